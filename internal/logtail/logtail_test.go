package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if lines != nil {
		t.Fatalf("Read() = %v, want nil", lines)
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2025, 10, 8, 21, 1, 5, 0, time.UTC)
	clock := ts.In(time.Local).Format("15:04:05")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty line",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text passes through",
			input:    "panic: something",
			expected: "panic: something",
		},
		{
			name:     "broken json passes through",
			input:    `{"level":"info"`,
			expected: `{"level":"info"`,
		},
		{
			name:     "info with fields",
			input:    `{"level":"info","ts":"2025-10-08T21:01:05.000Z","caller":"jobs/controller.go:120","msg":"job started","target":"/photos/my trip","job_id":"abc","simulate":false}`,
			expected: clock + ` INFO job started job_id=abc simulate=false target="/photos/my trip"`,
		},
		{
			name:     "epoch timestamp and logger name",
			input:    fmt.Sprintf(`{"level":"warn","ts":%d,"logger":"tagger","msg":"recognition failed","count":3}`, ts.Unix()),
			expected: clock + " WARN [tagger] recognition failed count=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.input)
			if result != tt.expected {
				t.Errorf("Format() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFormatLines(t *testing.T) {
	input := []string{
		`{"level":"error","msg":"job finished","outcome":"failure"}`,
		"not json",
	}

	expected := []string{
		"ERROR job finished outcome=failure",
		"not json",
	}

	result := FormatLines(input)

	if !reflect.DeepEqual(result, expected) {
		t.Errorf("FormatLines() = %q, want %q", result, expected)
	}
	if FormatLines(nil) != nil {
		t.Errorf("FormatLines(nil) should be nil")
	}
}

func TestLevel(t *testing.T) {
	if got := Level(`{"level":"debug","msg":"x"}`); got != "DEBUG" {
		t.Errorf("Level() = %q, want DEBUG", got)
	}
	if got := Level("plain"); got != "" {
		t.Errorf("Level() = %q, want empty", got)
	}
}
