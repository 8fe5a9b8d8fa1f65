package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/auth"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// ReleaseRequest asks for the normal, registry-authorized release of a stake.
type ReleaseRequest struct {
	Caller    types.Address
	Nonce     uint64
	Slash     uint64
	Signature []byte
	// Asset, when set, must equal the stake's asset. Typed entry points
	// set it so a call for one asset kind never releases another.
	Asset *types.Asset
}

// ReleaseNative releases a native stake.
func (l *Ledger) ReleaseNative(ctx context.Context, caller types.Address, nonce, slash uint64, sig []byte) (*Receipt, error) {
	asset := types.NativeAsset()
	return l.Release(ctx, ReleaseRequest{Caller: caller, Nonce: nonce, Slash: slash, Signature: sig, Asset: &asset})
}

// ReleaseToken releases a stake of token id.
func (l *Ledger) ReleaseToken(ctx context.Context, caller types.Address, id types.TokenID, nonce, slash uint64, sig []byte) (*Receipt, error) {
	asset := types.TokenAsset(id)
	return l.Release(ctx, ReleaseRequest{Caller: caller, Nonce: nonce, Slash: slash, Signature: sig, Asset: &asset})
}

// Release pays out a stake against a registry signature over
// (owner, asset, amount, nonce, slash). The slashed part goes to the slash
// sink and the rest to the owner. The stake is marked released before any
// funds move.
func (l *Ledger) Release(ctx context.Context, req ReleaseRequest) (*Receipt, error) {
	var receipt *Receipt
	err := l.run(ctx, "release", func(ctx context.Context, st *state) error {
		if err := l.requireUnpaused(st); err != nil {
			return err
		}
		stake, err := liveStake(st, req.Nonce)
		if err != nil {
			return err
		}
		if req.Asset != nil && *req.Asset != stake.Asset {
			return fmt.Errorf("%w: nonce %d holds %s, not %s", ErrStakeNotFound, req.Nonce, stake.Asset, req.Asset)
		}
		if stake.Owner != req.Caller {
			return fmt.Errorf("%w: caller %s does not own nonce %d", ErrUnauthorized, req.Caller, req.Nonce)
		}
		if req.Slash > stake.Amount {
			return fmt.Errorf("%w: slash %d > amount %d", ErrExcessiveSlash, req.Slash, stake.Amount)
		}

		m, err := st.meta()
		if err != nil {
			return err
		}
		msg := auth.ReleaseMessage{
			Owner:  stake.Owner,
			Asset:  stake.Asset,
			Amount: stake.Amount,
			Nonce:  stake.Nonce,
			Slash:  req.Slash,
		}
		if err := l.releases.VerifyRelease(msg, req.Signature, m.RegistryKey); err != nil {
			return err
		}

		if err := markReleased(st, stake); err != nil {
			return err
		}

		payout := stake.Amount - req.Slash
		if req.Slash > 0 {
			if err := l.push(ctx, m.SlashSink, stake.Asset, req.Slash); err != nil {
				return err
			}
		}
		if payout > 0 {
			if err := l.push(ctx, stake.Owner, stake.Asset, payout); err != nil {
				return err
			}
		}

		ev := stakeEvent(EventUnstaked, stake, payout)
		ev.Slashed = req.Slash
		if err := st.appendEvent(ev); err != nil {
			return err
		}

		receipt = &Receipt{Nonce: stake.Nonce, Owner: stake.Owner, Asset: stake.Asset, Payout: payout, Slashed: req.Slash}
		l.logger.Info().
			Uint64("nonce", stake.Nonce).
			Str("owner", stake.Owner.String()).
			Str("asset", stake.Asset.String()).
			Uint64("payout", payout).
			Uint64("slash", req.Slash).
			Msg("Stake released")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// RecoverRequest asks governance to force the release of a stake.
type RecoverRequest struct {
	Nonce uint64
	// Kind, when set, must equal the stake's asset kind.
	Kind  *types.AssetKind
	Proof []byte
}

// ForceRecover pays a stake's full amount back to its owner on governance
// authority, bypassing the registry. It works while paused.
func (l *Ledger) ForceRecover(ctx context.Context, req RecoverRequest) (*Receipt, error) {
	var receipt *Receipt
	err := l.run(ctx, "recover", func(ctx context.Context, st *state) error {
		stake, err := liveStake(st, req.Nonce)
		if err != nil {
			return err
		}
		if req.Kind != nil && *req.Kind != stake.Asset.Kind {
			return fmt.Errorf("%w: nonce %d holds %s, not %s", ErrStakeNotFound, req.Nonce, stake.Asset.Kind, *req.Kind)
		}
		if err := l.consumeGovernance(st, func(seq uint64) auth.GovernanceMessage {
			return auth.RecoveryMessage(seq, stake.Asset.Kind, stake.Nonce)
		}, req.Proof); err != nil {
			return err
		}

		if err := markReleased(st, stake); err != nil {
			return err
		}
		if err := l.push(ctx, stake.Owner, stake.Asset, stake.Amount); err != nil {
			return err
		}
		if err := st.appendEvent(stakeEvent(EventRecovered, stake, stake.Amount)); err != nil {
			return err
		}

		receipt = &Receipt{Nonce: stake.Nonce, Owner: stake.Owner, Asset: stake.Asset, Payout: stake.Amount}
		l.logger.Warn().
			Uint64("nonce", stake.Nonce).
			Str("owner", stake.Owner.String()).
			Uint64("amount", stake.Amount).
			Msg("Stake force-recovered by governance")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// liveStake returns the stake at nonce if it still holds funds.
func liveStake(st *state, nonce uint64) (*Stake, error) {
	stake, err := st.stake(nonce)
	if err != nil {
		return nil, err
	}
	if stake.Released {
		return nil, fmt.Errorf("%w: nonce %d already released", ErrStakeNotFound, nonce)
	}
	return stake, nil
}

func markReleased(st *state, stake *Stake) error {
	stake.Released = true
	if err := st.putStake(stake); err != nil {
		return err
	}
	_, err := st.bumpHeight()
	return err
}

func (l *Ledger) push(ctx context.Context, to types.Address, asset types.Asset, amount uint64) error {
	err := l.port.Push(ctx, to, asset, amount)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransferFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransferFailed, err)
}
