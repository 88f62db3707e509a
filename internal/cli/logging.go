package cli

import (
	"fmt"
	"io"
	"os"

	"flagops/internal/common"

	"github.com/sirupsen/logrus"
)

func InitLogging(logLevel string) {
	switch common.LogLevel(logLevel) {
	case common.LogLevelTrace:
		logrus.SetLevel(logrus.TraceLevel)
	case common.LogLevelDebug:
		logrus.SetLevel(logrus.DebugLevel)
	case common.LogLevelInfo:
		logrus.SetLevel(logrus.InfoLevel)
	case common.LogLevelWarn:
		logrus.SetLevel(logrus.WarnLevel)
	case common.LogLevelError:
		logrus.SetLevel(logrus.ErrorLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// InitLogFile tees log output to the file at `logFilePath` on top
// of stderr, the file handle is left open for the process lifetime
func InitLogFile(logFilePath string) error {
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file at path[%s]: %s", logFilePath, err)
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return nil
}
