// Package auth implements the two independent signature gates of the stake
// ledger: the registry authority, whose recoverable ECDSA signatures
// authorize individual releases, and the governance authority, whose
// aggregate Schnorr signatures authorize administrative actions.
package auth

import "errors"

var (
	// ErrUnauthorized is returned when a release signature does not recover
	// to the registered registry key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidGovernanceProof is returned when a governance proof fails
	// verification.
	ErrInvalidGovernanceProof = errors.New("invalid governance proof")
)
