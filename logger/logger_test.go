// SPDX-License-Identifier: EPL-2.0

package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel logrus.Level
		wantErr   bool
	}{
		{"text debug", "debug", "text", logrus.DebugLevel, false},
		{"json warn", "warn", "JSON", logrus.WarnLevel, false},
		{"bad level", "loud", "text", logrus.InfoLevel, false},
		{"default format", "error", "", logrus.ErrorLevel, false},
		{"bad format", "info", "xml", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l, err := Setup(tt.level, tt.format, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Setup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if l.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", l.GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := Setup("info", "json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	WithComponent(l, "player").Info("ready")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output %q is not json: %v", buf.String(), err)
	}
	if entry["component"] != "player" || entry["msg"] != "ready" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	WithComponent(l, "player").Debug("hidden")
	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("debug entry written at info level: %q", buf.String())
	}
}
