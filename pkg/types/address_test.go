package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero-value Address should be zero")
	}
	if (Address{0x01}).IsZero() {
		t.Error("non-zero Address should not be zero")
	}
}

func TestAddress_String(t *testing.T) {
	a := Address{0xab}
	s := a.String()
	if !strings.HasPrefix(s, "0xab") {
		t.Errorf("String() = %s, want 0xab prefix", s)
	}
	if len(s) != 2+2*AddressSize {
		t.Errorf("String() length = %d, want %d", len(s), 2+2*AddressSize)
	}
}

func TestAddress_Bytes(t *testing.T) {
	a := Address{0x01, 0x02}
	b := a.Bytes()
	b[0] = 0xFF
	if a[0] == 0xFF {
		t.Error("Bytes() should return a copy, not a reference")
	}
}

func TestParseAddress(t *testing.T) {
	raw := "00112233445566778899aabbccddeeff00112233"
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "raw hex", input: raw},
		{name: "0x prefix", input: "0x" + raw},
		{name: "upper case prefix", input: "0X" + strings.ToUpper(raw)},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "0x1234", wantErr: true},
		{name: "bad hex", input: strings.Repeat("z", 40), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAddress(%q) should have returned error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) error: %v", tt.input, err)
			}
			if a.Hex() != raw {
				t.Errorf("Hex() = %s, want %s", a.Hex(), raw)
			}
		})
	}
}

func TestAddress_JSON(t *testing.T) {
	a := Address{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.HasPrefix(string(data), `"0xdeadbeef`) {
		t.Errorf("Marshal() = %s", data)
	}

	var raw Address
	if err := json.Unmarshal([]byte(`"`+a.Hex()+`"`), &raw); err != nil {
		t.Fatalf("Unmarshal(raw hex) error: %v", err)
	}
	if raw != a {
		t.Errorf("Unmarshal(raw hex) = %s, want %s", raw, a)
	}
}
