package ledger

import (
	"context"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// DepositNative stakes value units of the native asset from caller. The
// value is taken from caller's native balance as part of the call.
func (l *Ledger) DepositNative(ctx context.Context, caller types.Address, synthesizerID string, value uint64) (uint64, error) {
	return l.deposit(ctx, caller, types.NativeAsset(), value, synthesizerID)
}

// DepositToken stakes amount of token id from caller. The caller must hold
// amount and must have approved the custody account to pull it.
func (l *Ledger) DepositToken(ctx context.Context, caller types.Address, id types.TokenID, amount uint64, synthesizerID string) (uint64, error) {
	if id.IsZero() {
		return 0, fmt.Errorf("%w: zero token id", ErrUnknownToken)
	}
	return l.deposit(ctx, caller, types.TokenAsset(id), amount, synthesizerID)
}

func (l *Ledger) deposit(ctx context.Context, caller types.Address, asset types.Asset, amount uint64, synthesizerID string) (uint64, error) {
	var nonce uint64
	err := l.run(ctx, "deposit", func(ctx context.Context, st *state) error {
		if err := l.requireUnpaused(st); err != nil {
			return err
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if err := l.port.Pull(ctx, caller, asset, amount); err != nil {
			return err
		}

		m, err := st.meta()
		if err != nil {
			return err
		}
		if m.NextNonce == math.MaxUint64 {
			return ErrNonceOverflow
		}
		nonce = m.NextNonce
		m.NextNonce++
		m.Height++
		if err := st.putMeta(m); err != nil {
			return err
		}

		stake := &Stake{
			Nonce:         nonce,
			Owner:         caller,
			Amount:        amount,
			DepositHeight: m.Height,
			Asset:         asset,
			SynthesizerID: synthesizerID,
		}
		if err := st.putStake(stake); err != nil {
			return err
		}
		if err := st.appendEvent(stakeEvent(EventStaked, stake, amount)); err != nil {
			return err
		}

		l.logger.Info().
			Uint64("nonce", nonce).
			Str("owner", caller.String()).
			Str("asset", asset.String()).
			Uint64("amount", amount).
			Msg("Stake deposited")
		return nil
	})
	if err != nil {
		return 0, err
	}
	return nonce, nil
}
