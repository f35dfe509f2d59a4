package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Keys written by the application's zap encoder.
const (
	keyTime    = "ts"
	keyLevel   = "level"
	keyMessage = "msg"
	keyLogger  = "logger"
	keyCaller  = "caller"
	keyStack   = "stacktrace"
)

// Format renders one JSON log line as "15:04:05 LEVEL message key=value ...".
// Lines that are not JSON objects are returned unchanged.
func Format(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return line
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(trimmed), &entry); err != nil {
		return line
	}

	parts := make([]string, 0, 4)
	if ts := formatTime(entry[keyTime]); ts != "" {
		parts = append(parts, ts)
	}
	level := strings.ToUpper(stringValue(entry[keyLevel]))
	if level == "" {
		level = "INFO"
	}
	parts = append(parts, level)
	if name := stringValue(entry[keyLogger]); name != "" {
		parts = append(parts, "["+name+"]")
	}
	if msg := stringValue(entry[keyMessage]); msg != "" {
		parts = append(parts, msg)
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		switch k {
		case keyTime, keyLevel, keyMessage, keyLogger, keyCaller, keyStack:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+valueString(entry[k]))
	}
	return strings.Join(parts, " ")
}

// FormatLines applies Format to every line.
func FormatLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Format(line)
	}
	return out
}

// Level extracts the upper-case level of a JSON log line, or "".
func Level(line string) string {
	var entry struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &entry); err != nil {
		return ""
	}
	return strings.ToUpper(entry.Level)
}

func formatTime(v any) string {
	switch t := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.In(time.Local).Format("15:04:05")
			}
		}
		return t
	case float64:
		sec := int64(t)
		nsec := int64((t - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).In(time.Local).Format("15:04:05")
	default:
		return ""
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func valueString(v any) string {
	switch t := v.(type) {
	case string:
		if strings.ContainsAny(t, " \t") {
			return fmt.Sprintf("%q", t)
		}
		return t
	case nil:
		return "null"
	case float64, bool:
		return fmt.Sprint(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
