package ledger

import (
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// SchemaVersion is the current state layout. Version 1 deleted released
// stakes; version 2 keeps them as tombstones.
const SchemaVersion = 2

// Stake is one deposit. Its identity fields never change; only Released
// flips, exactly once.
type Stake struct {
	Nonce         uint64        `json:"nonce"`
	Owner         types.Address `json:"owner"`
	Amount        uint64        `json:"amount"`
	DepositHeight uint64        `json:"deposit_height"`
	Asset         types.Asset   `json:"asset"`
	SynthesizerID string        `json:"synthesizer_id"`
	Released      bool          `json:"released"`
	// Pruned marks a tombstone synthesized by the v1 migration for a nonce
	// whose record the old layout had already deleted. Only Nonce and
	// Released are meaningful on it.
	Pruned bool `json:"pruned,omitempty"`
}

// Active reports whether the stake still holds funds.
func (s *Stake) Active() bool {
	return !s.Released
}

// Meta is the ledger's global state.
type Meta struct {
	Version       uint32         `json:"version"`
	NextNonce     uint64         `json:"next_nonce"`
	Height        uint64         `json:"height"`
	Paused        bool           `json:"paused"`
	RegistryKey   types.HexBytes `json:"registry_key"`
	GovernanceKey types.HexBytes `json:"governance_key"`
	GovernanceSeq uint64         `json:"governance_seq"`
	EventSeq      uint64         `json:"event_seq"`
	SlashSink     types.Address  `json:"slash_sink"`
	Custody       types.Address  `json:"custody"`
}

// Receipt describes the payout of a release or recovery.
type Receipt struct {
	Nonce   uint64        `json:"nonce"`
	Owner   types.Address `json:"owner"`
	Asset   types.Asset   `json:"asset"`
	Payout  uint64        `json:"payout"`
	Slashed uint64        `json:"slashed"`
}
