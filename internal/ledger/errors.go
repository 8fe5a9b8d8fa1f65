package ledger

import (
	"errors"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/auth"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/custody"
)

// Operation errors. Each aborts the whole operation with no state change.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrStakeNotFound      = errors.New("stake not found")
	ErrExcessiveSlash     = errors.New("slash exceeds staked amount")
	ErrPaused             = errors.New("ledger is paused")
	ErrNonceOverflow      = errors.New("nonce counter exhausted")
	ErrInvalidKey         = errors.New("invalid public key")
	ErrNotInitialized     = errors.New("ledger not initialized")
	ErrAlreadyInitialized = errors.New("ledger already initialized")
	ErrUnsupportedVersion = errors.New("unsupported state version")
)

// Errors raised by the verifiers and the custody port, re-exported so
// callers can match the whole taxonomy against this package.
var (
	ErrUnauthorized           = auth.ErrUnauthorized
	ErrInvalidGovernanceProof = auth.ErrInvalidGovernanceProof
	ErrInsufficientBalance    = custody.ErrInsufficientBalance
	ErrAllowanceNotGranted    = custody.ErrAllowanceNotGranted
	ErrTransferFailed         = custody.ErrTransferFailed
	ErrUnknownToken           = custody.ErrUnknownToken
)
