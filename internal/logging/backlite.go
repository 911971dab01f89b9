package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// TaskLogger adapts logrus to the task queue's logger, which passes
// alternating key/value pairs after the message.
type TaskLogger struct {
	Logger logrus.FieldLogger
}

func (l TaskLogger) Info(message string, params ...any) {
	l.Logger.WithFields(pairsToFields(params)).Info(message)
}

func (l TaskLogger) Error(message string, params ...any) {
	l.Logger.WithFields(pairsToFields(params)).Error(message)
}

func pairsToFields(params []any) logrus.Fields {
	fields := logrus.Fields{"component": "tasks"}
	for i := 0; i < len(params); i += 2 {
		key := fmt.Sprint(params[i])
		if i+1 < len(params) {
			fields[key] = params[i+1]
		} else {
			fields[key] = "(missing)"
		}
	}
	return fields
}
