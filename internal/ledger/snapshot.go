package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
)

// Snapshot is the complete durable ledger state.
type Snapshot struct {
	Meta   Meta    `json:"meta"`
	Stakes []Stake `json:"stakes"`
	Events []Event `json:"events"`
}

// Snapshot captures the committed ledger state.
func (l *Ledger) Snapshot(ctx context.Context) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := newState(l.root)
	m, err := st.meta()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Meta: *m, Stakes: []Stake{}, Events: []Event{}}
	if err := st.forEachStake(func(s *Stake) error {
		snap.Stakes = append(snap.Stakes, *s)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := st.forEachEvent(0, func(ev *Event) error {
		snap.Events = append(snap.Events, *ev)
		return nil
	}); err != nil {
		return nil, err
	}
	return snap, nil
}

// Validate checks the snapshot's structural invariants: stakes are exactly
// nonces 0..NextNonce-1 in order and live stakes have a positive amount.
func (s *Snapshot) Validate() error {
	if s.Meta.Version != SchemaVersion {
		return fmt.Errorf("%w: snapshot version %d", ErrUnsupportedVersion, s.Meta.Version)
	}
	if uint64(len(s.Stakes)) != s.Meta.NextNonce {
		return fmt.Errorf("snapshot has %d stakes, counter is %d", len(s.Stakes), s.Meta.NextNonce)
	}
	for i, st := range s.Stakes {
		if st.Nonce != uint64(i) {
			return fmt.Errorf("snapshot stake %d has nonce %d", i, st.Nonce)
		}
		if !st.Pruned && st.Amount == 0 {
			return fmt.Errorf("snapshot stake %d has zero amount", i)
		}
	}
	if uint64(len(s.Events)) != s.Meta.EventSeq {
		return fmt.Errorf("snapshot has %d events, sequence is %d", len(s.Events), s.Meta.EventSeq)
	}
	return nil
}

// Restore replaces the ledger state in db with snap. Custody balances are
// not part of a ledger snapshot.
func Restore(db storage.DB, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	ns := storage.NewPrefixDB(db, ledgerNamespace)
	if err := ns.DeleteAll(); err != nil {
		return fmt.Errorf("clear ledger state: %w", err)
	}

	batch := ns.NewBatch()
	meta, err := json.Marshal(snap.Meta)
	if err != nil {
		return err
	}
	if err := batch.Put(keyMeta, meta); err != nil {
		return err
	}
	for i := range snap.Stakes {
		st := &snap.Stakes[i]
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		if err := batch.Put(stakeKey(st.Nonce), data); err != nil {
			return err
		}
		if !st.Pruned {
			if err := batch.Put(ownerKey(st.Owner, st.Nonce), []byte{}); err != nil {
				return err
			}
		}
	}
	for i := range snap.Events {
		data, err := json.Marshal(&snap.Events[i])
		if err != nil {
			return err
		}
		if err := batch.Put(eventKey(snap.Events[i].Seq), data); err != nil {
			return err
		}
	}
	return batch.Commit()
}
