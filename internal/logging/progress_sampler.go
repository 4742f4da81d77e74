package logging

import "strings"

// ProgressSampler suppresses repetitive conversion progress logs while
// preserving signal when the file changes or a percentage bucket is crossed.
type ProgressSampler struct {
	bucketSize float64
	lastFile   string
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 10%) or when the file changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. A negative
// percent means the total is unknown and only file changes emit.
func (s *ProgressSampler) ShouldLog(file string, percent float64) bool {
	if s == nil {
		return true
	}
	file = strings.TrimSpace(file)
	emit := false
	if file != "" && file != s.lastFile {
		s.lastFile = file
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		bucket := int(percent / s.bucketSize)
		if percent >= 100 {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastFile = ""
	s.lastBucket = -1
}
