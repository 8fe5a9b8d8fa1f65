package crypto

import (
	"bytes"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

// Sizes of the serialized key and signature formats.
const (
	PrivateKeySize       = 32
	PublicKeySize        = 33
	SchnorrSignatureSize = 64
	RecoverableSigSize   = 65
)

// Signer signs messages with a private key using Schnorr/secp256k1.
type Signer interface {
	// Sign produces a Schnorr signature over a 32-byte hash.
	Sign(hash []byte) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// RecoverableSigner produces signatures from which the public key can be
// recovered.
type RecoverableSigner interface {
	SignRecoverable(hash []byte) ([]byte, error)
	PublicKey() []byte
}

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// Sign produces a Schnorr signature over a 32-byte hash.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	sig, err := schnorr.Sign(pk.key, hash)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// SignRecoverable produces a 65-byte compact ECDSA signature over a 32-byte
// hash: one recovery byte followed by R and S.
func (pk *PrivateKey) SignRecoverable(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	return ecdsa.SignCompact(pk.key, hash, true), nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// ValidatePublicKey checks that b is a valid compressed secp256k1 point.
func ValidatePublicKey(b []byte) error {
	if len(b) != PublicKeySize {
		return fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(b))
	}
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	return nil
}

// VerifySignature checks a Schnorr signature against a 32-byte hash
// and a compressed public key. Returns false on any error.
func VerifySignature(hash, signature, publicKey []byte) bool {
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}

// RecoverPublicKey recovers the compressed public key that produced a
// 65-byte compact signature over hash.
func RecoverPublicKey(hash, signature []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	if len(signature) != RecoverableSigSize {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", RecoverableSigSize, len(signature))
	}
	pub, _, err := ecdsa.RecoverCompact(signature, hash)
	if err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}
	return pub.SerializeCompressed(), nil
}

// VerifyRecoverable reports whether signature over hash recovers to
// publicKey. Returns false on any error.
func VerifyRecoverable(hash, signature, publicKey []byte) bool {
	recovered, err := RecoverPublicKey(hash, signature)
	if err != nil {
		return false
	}
	return bytes.Equal(recovered, publicKey)
}
