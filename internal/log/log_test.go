package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetOutput_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "debug")
	defer SetOutput(&bytes.Buffer{}, "off")

	Ledger.Info().Uint64("nonce", 7).Msg("staked")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "ledger" {
		t.Errorf("component = %v, want ledger", entry["component"])
	}
	if entry["nonce"] != float64(7) {
		t.Errorf("nonce = %v, want 7", entry["nonce"])
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	if err := Init("info", true, path); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer SetOutput(&bytes.Buffer{}, "off")

	RPC.Info().Msg("listening")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), `"component":"rpc"`) {
		t.Errorf("log file missing component field: %s", data)
	}
}
