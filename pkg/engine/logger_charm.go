package engine

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// CharmLogger is the production Logger, wrapping charmbracelet/log for
// colored, leveled, timestamped output.
type CharmLogger struct {
	logger *charmlog.Logger
}

// NewCharmLogger builds a Logger writing to stderr at the given level.
func NewCharmLogger(level charmlog.Level) *CharmLogger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return &CharmLogger{logger: l}
}

func (c *CharmLogger) Debug(msg string, args ...interface{}) { c.logger.Debug(msg, args...) }
func (c *CharmLogger) Info(msg string, args ...interface{})  { c.logger.Info(msg, args...) }
func (c *CharmLogger) Warn(msg string, args ...interface{})  { c.logger.Warn(msg, args...) }
func (c *CharmLogger) Error(msg string, args ...interface{}) { c.logger.Error(msg, args...) }
