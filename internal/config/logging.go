package config

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// NewLogger writes text to stderr in development and JSON otherwise. When
// LOG_FILE is set, entries are also appended to a rotated file.
func NewLogger() (*logrus.Logger, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	var formatter logrus.Formatter = &logrus.JSONFormatter{}
	if Development() {
		level = logrus.DebugLevel
		formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true}
	}
	log.SetLevel(level)
	log.SetFormatter(formatter)
	log.SetOutput(os.Stderr)

	if path, ok := os.LookupEnv("LOG_FILE"); ok && path != "" {
		hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
			Filename:   path,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
			Level:      level,
			Formatter:  &logrus.JSONFormatter{},
		})
		if err != nil {
			return nil, err
		}
		log.AddHook(hook)
	}

	return log, nil
}
