package custody

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Return is the value a token's transfer call reported.
type Return uint8

const (
	// ReturnVoid means the call returned no value.
	ReturnVoid Return = iota
	// ReturnTrue means the call returned true.
	ReturnTrue
	// ReturnFalse means the call returned false.
	ReturnFalse
)

func (r Return) String() string {
	switch r {
	case ReturnVoid:
		return "void"
	case ReturnTrue:
		return "true"
	case ReturnFalse:
		return "false"
	default:
		return fmt.Sprintf("return(%d)", uint8(r))
	}
}

// Token is a fungible token contract as seen from custody.
type Token interface {
	ID() types.TokenID
	BalanceOf(ctx context.Context, owner types.Address) (uint64, error)
	Allowance(ctx context.Context, owner, spender types.Address) (uint64, error)
	// Transfer moves amount from from to to, as called by from.
	Transfer(ctx context.Context, from, to types.Address, amount uint64) (Return, error)
	// TransferFrom moves amount from from to to using spender's allowance.
	TransferFrom(ctx context.Context, spender, from, to types.Address, amount uint64) (Return, error)
}

// safeCall folds a token call result into a single error. A call that
// fails or returns false is a failed transfer; a call that returns true
// or nothing succeeded.
func safeCall(id types.TokenID, ret Return, err error) error {
	if err != nil {
		return fmt.Errorf("%w: token %s: %v", ErrTransferFailed, id, err)
	}
	if ret == ReturnFalse {
		return fmt.Errorf("%w: token %s returned false", ErrTransferFailed, id)
	}
	return nil
}

// SafeTransfer calls tok.Transfer and accepts any non-false result.
func SafeTransfer(ctx context.Context, tok Token, from, to types.Address, amount uint64) error {
	ret, err := tok.Transfer(ctx, from, to, amount)
	return safeCall(tok.ID(), ret, err)
}

// SafeTransferFrom calls tok.TransferFrom and accepts any non-false result.
func SafeTransferFrom(ctx context.Context, tok Token, spender, from, to types.Address, amount uint64) error {
	ret, err := tok.TransferFrom(ctx, spender, from, to, amount)
	return safeCall(tok.ID(), ret, err)
}
