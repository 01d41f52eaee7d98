// SPDX-License-Identifier: EPL-2.0

// Package logger builds the logrus logger the rest of musa writes to.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup returns a logger writing to w in format "text" or "json". An
// unparsable level falls back to info. A nil w means stderr.
func Setup(level, format string, w io.Writer) (*logrus.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(w)

	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return l, nil
}

// WithComponent tags every entry from l with the component name.
func WithComponent(l logrus.FieldLogger, name string) logrus.FieldLogger {
	return l.WithField("component", name)
}
