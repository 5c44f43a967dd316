package logging

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
)

// LogrusFormatter is a logrus formatter
type LogrusFormatter struct{}

// Format renders a single log entry from logrus entry to zerolog. Nothing is
// returned to logrus, so its own output stays empty.
func (f *LogrusFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var ev *zerolog.Event
	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		ev = log.Error()
	case logrus.WarnLevel:
		ev = log.Warn()
	case logrus.DebugLevel:
		ev = log.Debug()
	case logrus.TraceLevel:
		ev = log.Trace()
	default:
		ev = log.Info()
	}
	// logrus.Fields is a named map type zerolog does not recognize
	ev.Fields(map[string]interface{}(entry.Data)).Msg(strings.TrimSpace(entry.Message))
	return nil, nil
}
