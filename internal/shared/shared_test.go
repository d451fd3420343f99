package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain title", input: "Beach Day_2022.jpg", want: "Beach Day_2022.jpg"},
		{name: "vietnamese title", input: "Tết_2022.jpg", want: "Tết_2022.jpg"},
		{name: "path separators", input: "a/b\\c_2020.mp4", want: "a_b_c_2020.mp4"},
		{name: "surrounding whitespace", input: "  Trip_2019.jpg  ", want: "Trip_2019.jpg"},
		{name: "control characters", input: "line\nbreak_2021.jpg", want: "linebreak_2021.jpg"},
		{name: "only dots", input: "..", want: "untitled"},
		{name: "empty", input: "", want: "untitled"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "sync")
		logger.Info("started")

		if !strings.Contains(buf.String(), "component=sync") {
			t.Errorf("expected component field, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "gallery.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Info("written")

		content := mustRead(t, path)
		if !strings.Contains(content, "written") {
			t.Errorf("expected file to contain log line, got %q", content)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}
