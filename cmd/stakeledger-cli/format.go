package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingnet-stakeledger/config"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// formatAmount renders native base units as a decimal coin amount.
func formatAmount(units uint64) string {
	whole := units / config.Coin
	frac := units % config.Coin
	return fmt.Sprintf("%d.%012d", whole, frac)
}

// formatAssetAmount renders native amounts in coins and token amounts in
// base units.
func formatAssetAmount(asset types.Asset, units uint64) string {
	if asset.IsNative() {
		return formatAmount(units)
	}
	return fmt.Sprintf("%d (%s)", units, asset)
}

// parseAmount converts a decimal coin string to base units.
func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	parts := strings.SplitN(s, ".", 2)

	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > config.Decimals {
			return 0, fmt.Errorf("too many decimal places (max %d)", config.Decimals)
		}
		fracStr = fracStr + strings.Repeat("0", config.Decimals-len(fracStr))
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional part: %w", err)
		}
	}

	if whole > (^uint64(0)-frac)/config.Coin {
		return 0, fmt.Errorf("amount overflows")
	}
	return whole*config.Coin + frac, nil
}

func mustAddress(field, s string) types.Address {
	addr, err := types.ParseAddress(s)
	if err != nil {
		fatal("invalid %s address: %v", field, err)
	}
	return addr
}

func mustTokenID(s string) types.TokenID {
	id, err := types.HexToTokenID(strings.TrimPrefix(s, "0x"))
	if err != nil {
		fatal("invalid token ID: %v", err)
	}
	return id
}

// mustAsset parses "native" or a token ID.
func mustAsset(s string) types.Asset {
	if s == "native" {
		return types.NativeAsset()
	}
	return types.TokenAsset(mustTokenID(s))
}
