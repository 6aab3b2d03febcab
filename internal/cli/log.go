package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the command logger: records go to w with a wall-clock
// time and the application prefix, so they stay apart from the status
// lines printed on stdout.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          appName,
		Level:           level,
	})
}

// stageTimer times one pipeline stage over a batch of pages.
type stageTimer struct {
	logger *log.Logger
	stage  string
	start  time.Time
}

func startStage(l *log.Logger, stage string) stageTimer {
	l.Debug("stage started", "stage", stage)
	return stageTimer{logger: l, stage: stage, start: time.Now()}
}

// finish logs the stage summary record.
func (s stageTimer) finish(pages, failed int) {
	s.logger.Info("stage finished",
		"stage", s.stage,
		"pages", pages,
		"failed", failed,
		"elapsed", time.Since(s.start).Round(time.Millisecond))
}
