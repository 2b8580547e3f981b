package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{level: "", want: logrus.InfoLevel},
		{level: "debug", want: logrus.DebugLevel},
		{level: "WARN", want: logrus.WarnLevel},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := New(&bytes.Buffer{}, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if log.GetLevel() != tt.want {
				t.Errorf("expected level %s, got %s", tt.want, log.GetLevel())
			}
		})
	}
}

func TestNewWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info")
	if err != nil {
		t.Fatal(err)
	}

	log.WithField("batch", "b-1").Info("refresh complete")
	log.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "refresh complete") || !strings.Contains(out, "batch=b-1") {
		t.Errorf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug line logged at info level")
	}
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	log, closer, err := Open(dir, "info")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	log.Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry: %s", data)
	}
}
