package keys

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// BIP-44 style derivation: m/44'/8888'/role'/0/index.
const (
	PurposeBIP44     = bip32.FirstHardenedChild + 44
	CoinTypeKlingnet = bip32.FirstHardenedChild + 8888
)

// Role is what a key is used for. It selects the hardened account level
// of the derivation path, so one mnemonic yields unrelated keys per role.
type Role string

const (
	RoleGovernance Role = "governance"
	RoleRegistry   Role = "registry"
	RoleAccount    Role = "account"
)

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleGovernance, RoleRegistry, RoleAccount:
		return r, nil
	default:
		return "", fmt.Errorf("unknown key role %q", s)
	}
}

func (r Role) account() (uint32, error) {
	switch r {
	case RoleGovernance:
		return 0, nil
	case RoleRegistry:
		return 1, nil
	case RoleAccount:
		return 2, nil
	default:
		return 0, fmt.Errorf("unknown key role %q", r)
	}
}

// Path returns the derivation path string of the role's key at index.
func (r Role) Path(index uint32) (string, error) {
	acct, err := r.account()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("m/44'/8888'/%d'/0/%d", acct, index), nil
}

// HDKey is a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives the child at index. Add bip32.FirstHardenedChild
// for hardened derivation.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives a key along a sequence of indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// DeriveRole derives the key of role at index.
func (k *HDKey) DeriveRole(role Role, index uint32) (*HDKey, error) {
	acct, err := role.account()
	if err != nil {
		return nil, err
	}
	return k.DerivePath(PurposeBIP44, CoinTypeKlingnet, bip32.FirstHardenedChild+acct, 0, index)
}

// PrivateKeyBytes returns the raw 32-byte private key, or nil for a
// public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 stores private keys as 33 bytes with a leading zero.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// PrivateKey returns the signing key.
func (k *HDKey) PrivateKey() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot sign with a public-only key")
	}
	return crypto.PrivateKeyFromBytes(priv)
}

// Address returns the address of the key.
func (k *HDKey) Address() types.Address {
	return crypto.AddressFromPubKey(k.PublicKeyBytes())
}

// IsPrivate reports whether the key holds a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Neuter returns a public-only copy.
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}
