package history

import "time"

// Status is the outcome of one conversion attempt.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Entry is one row of the ledger.
type Entry struct {
	ID           int64
	RunID        string
	Input        string
	InputSize    int64
	InputModTime time.Time
	Output       string
	Format       string
	// Settings fingerprints every option that affects the encoded output.
	Settings      string
	Status        Status
	GridSize      int
	Frames        int
	SkippedFrames int
	ErrorKind     string
	ErrorMessage  string
	ErrorLine     int
	Elapsed       time.Duration
	CreatedAt     time.Time
}

// Matches reports whether e describes a successful conversion of an input
// with the given size, modification time and settings.
func (e *Entry) Matches(size int64, modTime time.Time, settings string) bool {
	if e == nil || e.Status != StatusSucceeded {
		return false
	}
	return e.InputSize == size && e.InputModTime.Equal(modTime) && e.Settings == settings
}
