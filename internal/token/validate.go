package token

import (
	"errors"
	"fmt"
)

// Metadata validation errors.
var (
	ErrEmptyName      = errors.New("token name is empty")
	ErrEmptySymbol    = errors.New("token symbol is empty")
	ErrSymbolTooLong  = errors.New("token symbol too long")
	ErrTooManyDecimal = errors.New("token decimals too large")
)

// Limits on metadata fields.
const (
	MaxSymbolLength = 12
	MaxNameLength   = 64
	MaxDecimals     = 18
)

// Validate checks metadata before it is registered.
func (m *Metadata) Validate() error {
	if m.Name == "" {
		return ErrEmptyName
	}
	if len(m.Name) > MaxNameLength {
		return fmt.Errorf("token name longer than %d bytes", MaxNameLength)
	}
	if m.Symbol == "" {
		return ErrEmptySymbol
	}
	if len(m.Symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: %d > %d", ErrSymbolTooLong, len(m.Symbol), MaxSymbolLength)
	}
	if m.Decimals > MaxDecimals {
		return fmt.Errorf("%w: %d > %d", ErrTooManyDecimal, m.Decimals, MaxDecimals)
	}
	if _, err := ParseConvention(string(m.Convention)); err != nil {
		return err
	}
	return nil
}
