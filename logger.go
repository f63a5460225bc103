package main

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(newFormatter())
	if x, exists := os.LookupEnv("LOG"); exists {
		if err := setLogLevel(x); err != nil {
			log.Warn(err)
		}
	}
}

func logrusLevel(s string) (logrus.Level, error) {
	return logrus.ParseLevel(strings.ToLower(s))
}

func setLogLevel(s string) error {
	level, err := logrusLevel(s)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

// TextFormatter caches whether its output is a terminal, so every logger
// gets its own.
func newFormatter() logrus.Formatter {
	return &logrus.TextFormatter{DisableTimestamp: true}
}

// outputLogger is a logger writing to w formatted like the CLI logger and
// sharing its hooks. Run output goes to w while diagnostics stay on stderr.
func outputLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(newFormatter())
	l.ReplaceHooks(log.Hooks)
	return l
}
