package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HexBytes is a byte slice that encodes as a hex string in JSON.
// Public keys, signatures and governance proofs travel as HexBytes.
type HexBytes []byte

// String returns the hex encoding.
func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// MarshalJSON encodes the bytes as a hex string.
func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON decodes a hex string, with or without a 0x prefix.
func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := ParseHexBytes(s)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

// ParseHexBytes decodes a hex string, with or without a 0x prefix.
func ParseHexBytes(s string) (HexBytes, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return HexBytes{}, nil
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return decoded, nil
}
