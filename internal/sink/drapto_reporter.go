package sink

import (
	"log/slog"

	draptolib "github.com/five82/drapto"

	"golfr/internal/logging"
)

// draptoReporter forwards drapto events to the sink logger. Stage progress is
// sampled so long encodes do not flood the log.
type draptoReporter struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

func newDraptoReporter(logger *slog.Logger) *draptoReporter {
	return &draptoReporter{
		logger:  logging.NewComponentLogger(logger, "drapto"),
		sampler: logging.NewProgressSampler(25),
	}
}

func (r *draptoReporter) Hardware(draptolib.HardwareSummary) {}

func (r *draptoReporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Debug("av1 encode initialized",
		logging.Any("input", s.InputFile),
		logging.Any("resolution", s.Resolution),
	)
}

func (r *draptoReporter) StageProgress(s draptolib.StageProgress) {
	if r.sampler.ShouldLog(s.Stage, float64(s.Percent)) {
		r.logger.Debug("av1 stage", logging.String("stage", s.Stage), logging.Float64("percent", float64(s.Percent)))
	}
}

func (r *draptoReporter) CropResult(draptolib.CropSummary) {}

func (r *draptoReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Debug("av1 encoding config",
		logging.Any("encoder", s.Encoder),
		logging.Any("preset", s.Preset),
		logging.Any("quality", s.Quality),
	)
}

func (r *draptoReporter) EncodingStarted(totalFrames uint64) {
	r.logger.Debug("av1 encoding started", logging.Int64("total_frames", int64(totalFrames)))
}

func (r *draptoReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	if r.sampler.ShouldLog("encoding", float64(s.Percent)) {
		r.logger.Info("av1 encoding",
			logging.Float64("percent", float64(s.Percent)),
			logging.Int64("frame", int64(s.CurrentFrame)),
			logging.Int64("total_frames", int64(s.TotalFrames)),
		)
	}
}

func (r *draptoReporter) ValidationComplete(s draptolib.ValidationSummary) {
	if !s.Passed {
		logging.WarnWithContext(r.logger, "av1 output validation failed", "av1_validation",
			logging.String(logging.FieldImpact, "encoded video may not play back correctly"))
	}
}

func (r *draptoReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Debug("av1 encoding complete",
		logging.Any(logging.FieldOutput, s.OutputPath),
		logging.Int64("encoded_bytes", int64(s.EncodedSize)),
	)
}

func (r *draptoReporter) Warning(message string) {
	logging.WarnWithContext(r.logger, message, "drapto_warning")
}

func (r *draptoReporter) Error(e draptolib.ReporterError) {
	logging.ErrorWithContext(r.logger, "drapto reported an error", "drapto_error",
		logging.Any("title", e.Title),
		logging.Any("detail", e.Message),
		logging.Any(logging.FieldErrorHint, e.Suggestion),
	)
}

func (r *draptoReporter) OperationComplete(string) {}

func (r *draptoReporter) BatchStarted(draptolib.BatchStartInfo) {}

func (r *draptoReporter) FileProgress(draptolib.FileProgressContext) {}

func (r *draptoReporter) BatchComplete(draptolib.BatchSummary) {}

var _ draptolib.Reporter = (*draptoReporter)(nil)
