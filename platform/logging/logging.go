package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init configures the process-wide logger. LOG_LEVEL falls back to info.
func Init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
