package ledger

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/auth"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
)

// requireUnpaused is the pause gate of the public surface.
func (l *Ledger) requireUnpaused(st *state) error {
	m, err := st.meta()
	if err != nil {
		return err
	}
	if m.Paused {
		return ErrPaused
	}
	return nil
}

// consumeGovernance verifies proof over the message build returns for the
// current governance sequence number and advances the sequence, so each
// proof authorizes exactly one action.
func (l *Ledger) consumeGovernance(st *state, build func(seq uint64) auth.GovernanceMessage, proof []byte) error {
	m, err := st.meta()
	if err != nil {
		return err
	}
	msg := build(m.GovernanceSeq)
	if err := l.governance.VerifyGovernance(msg, proof, m.GovernanceKey); err != nil {
		return err
	}
	m.GovernanceSeq++
	return st.putMeta(m)
}

// Pause stops deposits and releases. Pausing a paused ledger is accepted
// and still consumes the proof.
func (l *Ledger) Pause(ctx context.Context, proof []byte) error {
	return l.setPaused(ctx, true, proof)
}

// Unpause reopens deposits and releases.
func (l *Ledger) Unpause(ctx context.Context, proof []byte) error {
	return l.setPaused(ctx, false, proof)
}

func (l *Ledger) setPaused(ctx context.Context, paused bool, proof []byte) error {
	build, kind, op := auth.UnpauseMessage, EventUnpaused, "unpause"
	if paused {
		build, kind, op = auth.PauseMessage, EventPaused, "pause"
	}
	return l.run(ctx, op, func(ctx context.Context, st *state) error {
		if err := l.consumeGovernance(st, build, proof); err != nil {
			return err
		}
		m, err := st.meta()
		if err != nil {
			return err
		}
		m.Paused = paused
		m.Height++
		if err := st.putMeta(m); err != nil {
			return err
		}
		if err := st.appendEvent(&Event{Kind: kind}); err != nil {
			return err
		}
		l.logger.Warn().Bool("paused", paused).Msg("Pause state set by governance")
		return nil
	})
}

// RotateRegistryKey installs newKey as the registry key. Signatures by the
// previous key stop verifying immediately.
func (l *Ledger) RotateRegistryKey(ctx context.Context, newKey, proof []byte) error {
	if err := crypto.ValidatePublicKey(newKey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return l.run(ctx, "rotate-registry-key", func(ctx context.Context, st *state) error {
		build := func(seq uint64) auth.GovernanceMessage {
			return auth.RotateKeyMessage(seq, newKey)
		}
		if err := l.consumeGovernance(st, build, proof); err != nil {
			return err
		}
		m, err := st.meta()
		if err != nil {
			return err
		}
		m.RegistryKey = append(m.RegistryKey[:0:0], newKey...)
		m.Height++
		if err := st.putMeta(m); err != nil {
			return err
		}
		if err := st.appendEvent(&Event{Kind: EventRegistryKeyRotated, Key: m.RegistryKey}); err != nil {
			return err
		}
		l.logger.Warn().
			Str("registry", crypto.AddressFromPubKey(newKey).String()).
			Msg("Registry key rotated")
		return nil
	})
}
