package main

import (
	"testing"

	"github.com/Klingon-tech/klingnet-stakeledger/config"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"1", config.Coin, false},
		{"0.5", config.Coin / 2, false},
		{"12.000000000001", 12*config.Coin + 1, false},
		{"0", 0, false},
		{"", 0, true},
		{"-1", 0, true},
		{"1.0000000000001", 0, true},
		{"abc", 0, true},
		{"18446744073709551615", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := formatAmount(config.Coin + 5); got != "1.000000000005" {
		t.Errorf("formatAmount = %q", got)
	}
	if got := formatAmount(0); got != "0.000000000000" {
		t.Errorf("formatAmount(0) = %q", got)
	}
}
