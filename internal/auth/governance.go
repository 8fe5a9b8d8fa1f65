package auth

import (
	"encoding/binary"
	"fmt"

	klog "github.com/Klingon-tech/klingnet-stakeledger/internal/log"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

const governanceDomain = "klingnet-stakeledger/governance/v1"

// Action is the literal domain tag of a governance action.
type Action string

// Governance actions. Each tag is distinct so a proof for one action
// never verifies for another.
const (
	ActionPause                Action = "Pause"
	ActionUnpause              Action = "Unpause"
	ActionSetRegistryKey       Action = "SetRegistryKey"
	ActionRecoveryUnstake      Action = "RecoveryUnstake"
	ActionRecoveryUnstakeToken Action = "RecoveryUnstakeToken"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionPause, ActionUnpause, ActionSetRegistryKey,
		ActionRecoveryUnstake, ActionRecoveryUnstakeToken:
		return true
	}
	return false
}

// RecoveryAction returns the recovery tag for a stake of the given kind.
func RecoveryAction(kind types.AssetKind) Action {
	if kind == types.KindToken {
		return ActionRecoveryUnstakeToken
	}
	return ActionRecoveryUnstake
}

// GovernanceMessage is an administrative action bound to the ledger's
// governance sequence number.
type GovernanceMessage struct {
	Action Action
	Seq    uint64
	Params []byte
}

// PauseMessage builds the message for pausing at seq.
func PauseMessage(seq uint64) GovernanceMessage {
	return GovernanceMessage{Action: ActionPause, Seq: seq}
}

// UnpauseMessage builds the message for unpausing at seq.
func UnpauseMessage(seq uint64) GovernanceMessage {
	return GovernanceMessage{Action: ActionUnpause, Seq: seq}
}

// RotateKeyMessage builds the message for installing newKey as the
// registry key.
func RotateKeyMessage(seq uint64, newKey []byte) GovernanceMessage {
	params := make([]byte, len(newKey))
	copy(params, newKey)
	return GovernanceMessage{Action: ActionSetRegistryKey, Seq: seq, Params: params}
}

// RecoveryMessage builds the forced-recovery message for nonce.
func RecoveryMessage(seq uint64, kind types.AssetKind, nonce uint64) GovernanceMessage {
	return GovernanceMessage{
		Action: RecoveryAction(kind),
		Seq:    seq,
		Params: binary.BigEndian.AppendUint64(nil, nonce),
	}
}

// Digest returns the hash the governance signers sign.
func (m GovernanceMessage) Digest() types.Hash {
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], m.Seq)
	var tagLen [2]byte
	binary.BigEndian.PutUint16(tagLen[:], uint16(len(m.Action)))
	return crypto.TaggedHash(governanceDomain, tagLen[:], []byte(m.Action), seq[:], m.Params)
}

// GovernanceVerifier checks governance proofs. Implementations treat the
// proof as an opaque aggregate signature over the message digest.
type GovernanceVerifier interface {
	VerifyGovernance(msg GovernanceMessage, proof, governanceKey []byte) error
}

// SchnorrGovernance verifies a 64-byte Schnorr signature made with the
// aggregate key of the governance signer set.
type SchnorrGovernance struct{}

// VerifyGovernance implements GovernanceVerifier.
func (SchnorrGovernance) VerifyGovernance(msg GovernanceMessage, proof, governanceKey []byte) error {
	if !msg.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidGovernanceProof, msg.Action)
	}
	digest := msg.Digest()
	if !crypto.VerifySignature(digest[:], proof, governanceKey) {
		klog.Auth.Debug().
			Str("action", string(msg.Action)).
			Uint64("seq", msg.Seq).
			Msg("Governance proof rejected")
		return fmt.Errorf("%w: %s", ErrInvalidGovernanceProof, msg.Action)
	}
	return nil
}

// SignGovernance produces a governance proof over msg with a single key.
// Operators holding the aggregate key use it; threshold signing happens
// outside this module.
func SignGovernance(key crypto.Signer, msg GovernanceMessage) ([]byte, error) {
	digest := msg.Digest()
	sig, err := key.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", msg.Action, err)
	}
	return sig, nil
}
