package logging

import (
	"time"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger returns a gorm logger that writes through logrus. SQL tracing
// is only enabled when the logger runs at debug level.
func GormLogger(logger logrus.FieldLogger) gormlogger.Interface {
	level := gormlogger.Warn
	if l, ok := logger.(*logrus.Logger); ok && l.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(gormWriter{logger: logger.WithField("component", "gorm")}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type gormWriter struct {
	logger logrus.FieldLogger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.logger.Infof(format, args...)
}
