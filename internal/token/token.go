// Package token holds the registry of fungible tokens the ledger custodies:
// their descriptive metadata and the return-value convention each token's
// transfer calls follow.
package token

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Convention describes how a token reports the outcome of a transfer.
type Convention string

const (
	// ConventionStrict tokens return true on success and fail loudly otherwise.
	ConventionStrict Convention = "strict"
	// ConventionVoid tokens return nothing on success and fail loudly otherwise.
	ConventionVoid Convention = "void"
	// ConventionBool tokens return false instead of failing.
	ConventionBool Convention = "bool"
)

// ParseConvention parses a convention name. Empty means strict.
func ParseConvention(s string) (Convention, error) {
	switch Convention(s) {
	case "", ConventionStrict:
		return ConventionStrict, nil
	case ConventionVoid, ConventionBool:
		return Convention(s), nil
	default:
		return "", fmt.Errorf("unknown token convention %q", s)
	}
}

// DeriveTokenID computes a deterministic TokenID from the issuer and symbol.
// TokenID = BLAKE3(tag || creator || symbol).
func DeriveTokenID(creator types.Address, symbol string) types.TokenID {
	return types.TokenID(crypto.TaggedHash("klingnet-stakeledger/token-id", creator[:], []byte(symbol)))
}

// Metadata holds descriptive information about a token.
type Metadata struct {
	Name       string        `json:"name"`
	Symbol     string        `json:"symbol"`
	Decimals   uint8         `json:"decimals"`
	Creator    types.Address `json:"creator"`
	Convention Convention    `json:"convention"`
}
