package rpc

import (
	"errors"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/custody"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/ledger"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
)

var errorCodes = []struct {
	err  error
	code int
}{
	{ledger.ErrInvalidAmount, CodeInvalidAmount},
	{ledger.ErrInsufficientBalance, CodeInsufficientBalance},
	{ledger.ErrAllowanceNotGranted, CodeAllowanceNotGranted},
	{ledger.ErrStakeNotFound, CodeStakeNotFound},
	{ledger.ErrUnauthorized, CodeUnauthorized},
	{ledger.ErrInvalidGovernanceProof, CodeInvalidGovernanceProof},
	{ledger.ErrExcessiveSlash, CodeExcessiveSlash},
	{ledger.ErrTransferFailed, CodeTransferFailed},
	{ledger.ErrPaused, CodePaused},
	{ledger.ErrUnknownToken, CodeUnknownToken},
	{ledger.ErrInvalidKey, CodeInvalidKey},
	{ledger.ErrNotInitialized, CodeNotInitialized},
	{custody.ErrUnsolicitedTransfer, CodeUnsolicitedTransfer},
	{storage.ErrNotFound, CodeNotFound},
}

// ledgerError converts an error returned by the ledger or custody into an
// RPC error carrying the code of the first matching sentinel.
func ledgerError(err error) *Error {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return &Error{Code: ec.code, Message: err.Error()}
		}
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}
