package custody

import (
	"context"
	"fmt"

	klog "github.com/Klingon-tech/klingnet-stakeledger/internal/log"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Vault implements Port over the native bank and the token registry.
type Vault struct {
	bank   *NativeBank
	tokens *Registry
}

// NewVault creates a vault. The custody account is the bank's.
func NewVault(bank *NativeBank, tokens *Registry) *Vault {
	return &Vault{bank: bank, tokens: tokens}
}

// Custody returns the custody account address.
func (v *Vault) Custody() types.Address { return v.bank.Custody() }

// Bank returns the native bank.
func (v *Vault) Bank() *NativeBank { return v.bank }

// Tokens returns the token registry.
func (v *Vault) Tokens() *Registry { return v.tokens }

// Pull moves amount of asset from from into custody.
func (v *Vault) Pull(ctx context.Context, from types.Address, asset types.Asset, amount uint64) error {
	if amount == 0 {
		return nil
	}
	switch asset.Kind {
	case types.KindNative:
		return v.bank.Pull(ctx, from, amount)
	case types.KindToken:
		return v.pullToken(ctx, from, asset.Token, amount)
	default:
		return fmt.Errorf("pull: invalid asset %s", asset)
	}
}

func (v *Vault) pullToken(ctx context.Context, from types.Address, id types.TokenID, amount uint64) error {
	tok, err := v.tokens.Token(ctx, id)
	if err != nil {
		return err
	}
	custody := v.Custody()
	bal, err := tok.BalanceOf(ctx, from)
	if err != nil {
		return fmt.Errorf("%w: balance query: %v", ErrTransferFailed, err)
	}
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, bal, amount)
	}
	allowance, err := tok.Allowance(ctx, from, custody)
	if err != nil {
		return fmt.Errorf("%w: allowance query: %v", ErrTransferFailed, err)
	}
	if allowance < amount {
		return fmt.Errorf("%w: %s allows %d, needs %d", ErrAllowanceNotGranted, from, allowance, amount)
	}
	if err := SafeTransferFrom(ctx, tok, custody, from, custody, amount); err != nil {
		return err
	}
	klog.Custody.Debug().Str("token", id.String()).Str("from", from.String()).Uint64("amount", amount).Msg("Token pulled")
	return nil
}

// Push moves amount of asset out of custody to to. Native value sent to
// the zero address is burned.
func (v *Vault) Push(ctx context.Context, to types.Address, asset types.Asset, amount uint64) error {
	if amount == 0 {
		return nil
	}
	switch asset.Kind {
	case types.KindNative:
		if to.IsZero() {
			return v.bank.Burn(ctx, amount)
		}
		return v.bank.Push(ctx, to, amount)
	case types.KindToken:
		tok, err := v.tokens.Token(ctx, asset.Token)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		if err := SafeTransfer(ctx, tok, v.Custody(), to, amount); err != nil {
			return err
		}
		klog.Custody.Debug().Str("token", asset.Token.String()).Str("to", to.String()).Uint64("amount", amount).Msg("Token pushed")
		return nil
	default:
		return fmt.Errorf("push: invalid asset %s", asset)
	}
}
