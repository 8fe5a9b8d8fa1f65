package ledger

import (
	"context"
	"errors"

	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// EventKind names a ledger event.
type EventKind string

// Event kinds.
const (
	EventStaked             EventKind = "Staked"
	EventUnstaked           EventKind = "Unstaked"
	EventRecovered          EventKind = "Recovered"
	EventPaused             EventKind = "Paused"
	EventUnpaused           EventKind = "Unpaused"
	EventRegistryKeyRotated EventKind = "RegistryKeyRotated"
)

// Event is one entry of the append-only event log. Stake events carry the
// stake fields; Amount is the payout for Unstaked. Governance events carry
// only what applies to them.
type Event struct {
	Seq           uint64         `json:"seq"`
	Height        uint64         `json:"height"`
	Kind          EventKind      `json:"kind"`
	Owner         *types.Address `json:"owner,omitempty"`
	Asset         *types.Asset   `json:"asset,omitempty"`
	Amount        uint64         `json:"amount,omitempty"`
	SynthesizerID string         `json:"synthesizer_id,omitempty"`
	Nonce         *uint64        `json:"nonce,omitempty"`
	Slashed       uint64         `json:"slashed,omitempty"`
	Key           types.HexBytes `json:"key,omitempty"`
}

func stakeEvent(kind EventKind, st *Stake, amount uint64) *Event {
	owner := st.Owner
	asset := st.Asset
	nonce := st.Nonce
	return &Event{
		Kind:          kind,
		Owner:         &owner,
		Asset:         &asset,
		Amount:        amount,
		SynthesizerID: st.SynthesizerID,
		Nonce:         &nonce,
	}
}

// EventFilter selects events. Zero fields match everything.
type EventFilter struct {
	Kind    EventKind
	Owner   *types.Address
	Nonce   *uint64
	FromSeq uint64
	// Limit caps the result size; 0 means DefaultEventLimit.
	Limit int
}

// DefaultEventLimit caps unbounded event queries.
const DefaultEventLimit = 1000

func (f *EventFilter) match(ev *Event) bool {
	if f.Kind != "" && ev.Kind != f.Kind {
		return false
	}
	if f.Owner != nil && (ev.Owner == nil || *ev.Owner != *f.Owner) {
		return false
	}
	if f.Nonce != nil && (ev.Nonce == nil || *ev.Nonce != *f.Nonce) {
		return false
	}
	return true
}

var errLimitReached = errors.New("limit reached")

// Events returns the events matching filter in sequence order.
func (l *Ledger) Events(ctx context.Context, filter EventFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	out := []Event{}
	err := l.view(ctx).forEachEvent(filter.FromSeq, func(ev *Event) error {
		if !filter.match(ev) {
			return nil
		}
		out = append(out, *ev)
		if len(out) >= limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	return out, nil
}
