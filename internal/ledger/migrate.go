package ledger

import (
	"context"
	"errors"
	"fmt"
)

// migrate upgrades state written by an older schema. It is a no-op for an
// uninitialized or current ledger.
//
// Version 1 (and unversioned state) deleted a stake's record when it was
// released. Version 2 keeps every nonce below the counter: surviving v1
// records are rewritten as live stakes and missing nonces become pruned
// tombstones. The whole upgrade commits as one batch.
func (l *Ledger) migrate(ctx context.Context) error {
	st := l.view(ctx)
	exists, err := st.hasMeta()
	if err != nil || !exists {
		return err
	}
	m, err := st.meta()
	if err != nil {
		return err
	}
	switch {
	case m.Version == SchemaVersion:
		return nil
	case m.Version > SchemaVersion:
		return fmt.Errorf("%w: %d (this build supports up to %d)", ErrUnsupportedVersion, m.Version, SchemaVersion)
	}

	from := m.Version
	var live, pruned uint64
	err = l.run(ctx, "migrate", func(ctx context.Context, st *state) error {
		m, err := st.meta()
		if err != nil {
			return err
		}
		for n := uint64(0); n < m.NextNonce; n++ {
			stake, err := st.stake(n)
			switch {
			case err == nil:
				stake.Released = false
				stake.Pruned = false
				live++
			case errors.Is(err, ErrStakeNotFound):
				stake = &Stake{Nonce: n, Released: true, Pruned: true}
				pruned++
			default:
				return err
			}
			if err := st.putStake(stake); err != nil {
				return err
			}
		}
		m.Version = SchemaVersion
		return st.putMeta(m)
	})
	if err != nil {
		return fmt.Errorf("migrate ledger state v%d -> v%d: %w", from, SchemaVersion, err)
	}
	l.logger.Info().
		Uint32("from", from).
		Uint32("to", SchemaVersion).
		Uint64("live", live).
		Uint64("tombstones", pruned).
		Msg("Ledger state migrated")
	return nil
}
