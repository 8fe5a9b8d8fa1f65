// Package custody moves funds in and out of the ledger's custody account.
//
// Native value lives in a storage-backed bank. Tokens live in per-token
// books reached through the Token interface. Every write resolves its
// database through storage.Scope, so a caller that carries a journal in
// its context gets all custody effects of an operation committed or
// discarded together with its own state.
package custody

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Custody errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAllowanceNotGranted = errors.New("allowance not granted")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrUnknownToken        = errors.New("unknown token")
	ErrUnsolicitedTransfer = errors.New("unsolicited transfer to custody")
	ErrOverflow            = errors.New("balance overflow")
)

// Port moves an asset between an account and the ledger's custody.
type Port interface {
	// Pull moves amount of asset from the account into custody.
	Pull(ctx context.Context, from types.Address, asset types.Asset, amount uint64) error
	// Push moves amount of asset out of custody to the account.
	Push(ctx context.Context, to types.Address, asset types.Asset, amount uint64) error
}

func encodeAmount(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeAmount(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("amount must be 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func addAmount(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}
