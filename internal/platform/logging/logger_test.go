package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/logging"
)

func TestNewLogger_JSONRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logging.NewLogger("warn", "json", &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("dropped")
	log.Warn("kept", "ride_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines=%q", lines)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["msg"] != "kept" || rec["ride_id"] != float64(7) {
		t.Fatalf("rec=%v", rec)
	}
}

func TestNewLogger_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logging.NewLogger("debug", "text", &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Debug("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("out=%q", buf.String())
	}
}

func TestNewLogger_RejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := logging.NewLogger("loud", "json", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := logging.NewLogger("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected format error")
	}
}
