// Package ledger implements the stake ledger: nonce-addressed deposits of
// native value and tokens, releases authorized by the registry authority,
// and the governance-gated pause, key rotation and forced recovery paths.
//
// Every mutating operation runs exclusively under the ledger lock against
// a storage journal. The journal is committed in one batch when the
// operation succeeds and discarded when it fails, so a failed payout
// also undoes the release mark written before it. Calls that re-enter the
// ledger with the context of a running operation (for example from a
// native receive hook) run as nested frames of that operation.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/auth"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/custody"
	klog "github.com/Klingon-tech/klingnet-stakeledger/internal/log"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Config wires a ledger to its collaborators.
type Config struct {
	// DB is the root database shared with the custody port.
	DB storage.DB
	// Port moves funds in and out of custody.
	Port custody.Port
	// Releases verifies registry signatures. Defaults to auth.RegistryVerifier.
	Releases auth.ReleaseVerifier
	// Governance verifies governance proofs. Defaults to auth.SchnorrGovernance.
	Governance auth.GovernanceVerifier
}

// Ledger is the stake ledger.
type Ledger struct {
	root       storage.DB
	port       custody.Port
	releases   auth.ReleaseVerifier
	governance auth.GovernanceVerifier
	logger     zerolog.Logger

	mu sync.Mutex
}

// Params are the values fixed when a ledger is initialized.
type Params struct {
	GovernanceKey []byte
	RegistryKey   []byte
	SlashSink     types.Address
	Custody       types.Address
}

// New creates a ledger. State written by an older schema is migrated
// before New returns.
func New(cfg Config) (*Ledger, error) {
	if cfg.DB == nil || cfg.Port == nil {
		return nil, fmt.Errorf("ledger: DB and Port are required")
	}
	l := &Ledger{
		root:       cfg.DB,
		port:       cfg.Port,
		releases:   cfg.Releases,
		governance: cfg.Governance,
		logger:     klog.Ledger,
	}
	if l.releases == nil {
		l.releases = auth.RegistryVerifier{}
	}
	if l.governance == nil {
		l.governance = auth.SchnorrGovernance{}
	}
	if err := l.migrate(context.Background()); err != nil {
		return nil, err
	}
	return l, nil
}

// Initialized reports whether the ledger has been initialized.
func (l *Ledger) Initialized(ctx context.Context) (bool, error) {
	return l.view(ctx).hasMeta()
}

// Initialize writes the initial ledger state.
func (l *Ledger) Initialize(ctx context.Context, p Params) error {
	if err := crypto.ValidatePublicKey(p.GovernanceKey); err != nil {
		return fmt.Errorf("%w: governance key: %v", ErrInvalidKey, err)
	}
	if err := crypto.ValidatePublicKey(p.RegistryKey); err != nil {
		return fmt.Errorf("%w: registry key: %v", ErrInvalidKey, err)
	}
	if p.Custody.IsZero() {
		return fmt.Errorf("ledger: custody address is required")
	}
	return l.run(ctx, "initialize", func(ctx context.Context, st *state) error {
		exists, err := st.hasMeta()
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyInitialized
		}
		l.logger.Info().
			Str("custody", p.Custody.String()).
			Str("slash_sink", p.SlashSink.String()).
			Msg("Ledger initialized")
		return st.putMeta(&Meta{
			Version:       SchemaVersion,
			RegistryKey:   append(types.HexBytes{}, p.RegistryKey...),
			GovernanceKey: append(types.HexBytes{}, p.GovernanceKey...),
			SlashSink:     p.SlashSink,
			Custody:       p.Custody,
		})
	})
}

// Exec runs fn as one serialized, atomic operation. Custody calls made
// with the context passed to fn join the operation's journal. Hosts use
// it for bank and token operations that are not ledger operations but
// must be ordered with them.
func (l *Ledger) Exec(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return l.run(ctx, name, func(ctx context.Context, _ *state) error {
		return fn(ctx)
	})
}

type frameKey struct{}

type frame struct {
	ledger  *Ledger
	journal *storage.Journal
}

// run executes fn as an operation. A call made with the context of a
// running operation becomes a nested frame that reverts to its checkpoint
// on error instead of taking the lock again.
func (l *Ledger) run(ctx context.Context, op string, fn func(ctx context.Context, st *state) error) error {
	if f, ok := ctx.Value(frameKey{}).(*frame); ok && f.ledger == l {
		rev := f.journal.Checkpoint()
		if err := fn(ctx, newState(f.journal)); err != nil {
			f.journal.RevertTo(rev)
			l.logger.Debug().Err(err).Str("op", op).Msg("Nested operation reverted")
			return err
		}
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	j := storage.NewJournal(l.root)
	ctx = context.WithValue(ctx, frameKey{}, &frame{ledger: l, journal: j})
	ctx = storage.WithJournal(ctx, j)

	if err := fn(ctx, newState(j)); err != nil {
		j.Discard()
		l.logger.Debug().Err(err).Str("op", op).Msg("Operation rejected")
		return err
	}
	if err := j.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

// view returns a read-only state for queries: the running operation's
// journal when called from inside one, committed state otherwise.
func (l *Ledger) view(ctx context.Context) *state {
	if f, ok := ctx.Value(frameKey{}).(*frame); ok && f.ledger == l {
		return newState(f.journal)
	}
	return newState(l.root)
}

// Info returns the ledger's global state.
func (l *Ledger) Info(ctx context.Context) (*Meta, error) {
	return l.view(ctx).meta()
}

// Stake returns the record stored at nonce, released or not.
func (l *Ledger) Stake(ctx context.Context, nonce uint64) (*Stake, error) {
	return l.view(ctx).stake(nonce)
}

// StakesByOwner returns every stake deposited by owner in nonce order.
func (l *Ledger) StakesByOwner(ctx context.Context, owner types.Address) ([]Stake, error) {
	st := l.view(ctx)
	nonces, err := st.ownerNonces(owner)
	if err != nil {
		return nil, err
	}
	out := make([]Stake, 0, len(nonces))
	for _, n := range nonces {
		s, err := st.stake(n)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}
