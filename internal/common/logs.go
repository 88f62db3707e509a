package common

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ServiceLog is a log event emitted by a component that doesn't
// log directly, the receiving end decides how it gets surfaced
type ServiceLog struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func ServiceLogf(level, text string, f ...any) ServiceLog {
	return ServiceLog{
		Level:   level,
		Message: fmt.Sprintf(text, f...),
	}
}

// StartServiceLogLoop fans events from `serviceLogs` into logrus
// until the channel is closed
func StartServiceLogLoop(serviceLogs chan ServiceLog) {
	go func() {
		for {
			serviceLog, ok := <-serviceLogs
			if !ok {
				return
			}
			log := logrus.Info
			switch LogLevel(serviceLog.Level) {
			case LogLevelTrace:
				log = logrus.Trace
			case LogLevelDebug:
				log = logrus.Debug
			case LogLevelInfo:
				log = logrus.Info
			case LogLevelWarn:
				log = logrus.Warn
			case LogLevelError:
				log = logrus.Error
			}
			log(serviceLog.Message)
		}
	}()
}

var noopServiceLog chan ServiceLog

func init() {
	noopServiceLog = make(chan ServiceLog, 64)
	go startNoopServiceLog()
}

// GetNoopServiceLog returns a channel whose events are discarded,
// useful as a default when a caller doesn't care about logs
func GetNoopServiceLog() chan ServiceLog {
	return noopServiceLog
}

func startNoopServiceLog() {
	for {
		_, ok := <-noopServiceLog
		if !ok {
			break
		}
	}
}

func StopNoopServiceLog() {
	close(noopServiceLog)
}
