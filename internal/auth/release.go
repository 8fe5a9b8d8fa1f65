package auth

import (
	"encoding/binary"
	"fmt"

	klog "github.com/Klingon-tech/klingnet-stakeledger/internal/log"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

const releaseDomain = "klingnet-stakeledger/release/v1"

// ReleaseMessage is the tuple a registry signature authorizes.
type ReleaseMessage struct {
	Owner  types.Address `json:"owner"`
	Asset  types.Asset   `json:"asset"`
	Amount uint64        `json:"amount"`
	Nonce  uint64        `json:"nonce"`
	Slash  uint64        `json:"slash"`
}

// Encode returns the fixed-width canonical encoding:
// owner(20) || asset(33) || amount(8) || nonce(8) || slash(8).
func (m ReleaseMessage) Encode() []byte {
	buf := make([]byte, 0, types.AddressSize+1+types.HashSize+24)
	buf = append(buf, m.Owner[:]...)
	buf = append(buf, m.Asset.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, m.Amount)
	buf = binary.BigEndian.AppendUint64(buf, m.Nonce)
	buf = binary.BigEndian.AppendUint64(buf, m.Slash)
	return buf
}

// Hash returns the domain-tagged message hash.
func (m ReleaseMessage) Hash() types.Hash {
	return crypto.TaggedHash(releaseDomain, m.Encode())
}

// Digest returns the prefixed hash the registry authority signs.
func (m ReleaseMessage) Digest() types.Hash {
	return crypto.SignedMessageHash(m.Hash())
}

// ReleaseVerifier checks release signatures.
type ReleaseVerifier interface {
	VerifyRelease(msg ReleaseMessage, signature, registryKey []byte) error
}

// RegistryVerifier verifies compact recoverable ECDSA signatures against
// the registered registry key. It holds no state.
type RegistryVerifier struct{}

// VerifyRelease recovers the signer of msg and compares it with
// registryKey. Every failure maps to ErrUnauthorized.
func (RegistryVerifier) VerifyRelease(msg ReleaseMessage, signature, registryKey []byte) error {
	digest := msg.Digest()
	recovered, err := crypto.RecoverPublicKey(digest[:], signature)
	if err != nil {
		klog.Auth.Debug().Err(err).Uint64("nonce", msg.Nonce).Msg("Release signature malformed")
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if len(registryKey) == 0 || string(recovered) != string(registryKey) {
		klog.Auth.Debug().
			Uint64("nonce", msg.Nonce).
			Str("signer", crypto.AddressFromPubKey(recovered).String()).
			Msg("Release signed by unregistered key")
		return fmt.Errorf("%w: signer is not the registry key", ErrUnauthorized)
	}
	return nil
}

// SignRelease produces a registry signature over msg.
func SignRelease(key crypto.RecoverableSigner, msg ReleaseMessage) ([]byte, error) {
	digest := msg.Digest()
	sig, err := key.SignRecoverable(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign release: %w", err)
	}
	return sig, nil
}
