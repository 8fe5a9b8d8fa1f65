package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	klog "github.com/Klingon-tech/klingnet-stakeledger/internal/log"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Keystore errors.
var (
	ErrKeyExists   = errors.New("key already exists")
	ErrKeyNotFound = errors.New("key not found")
	ErrInvalidName = errors.New("invalid key name")
)

const keyFileVersion = 1

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// keyFile is the on-disk JSON format of one encrypted key.
type keyFile struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	Role      Role           `json:"role"`
	Address   types.Address  `json:"address"`
	PublicKey types.HexBytes `json:"public_key"`
	Path      string         `json:"path,omitempty"` // Derivation path, when derived from a mnemonic.
	Sealed    types.HexBytes `json:"sealed_key"`
}

// KeyInfo describes a stored key without its secret.
type KeyInfo struct {
	Name      string         `json:"name"`
	Role      Role           `json:"role"`
	Address   types.Address  `json:"address"`
	PublicKey types.HexBytes `json:"public_key"`
	Path      string         `json:"path,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Keystore stores password-encrypted keys in a directory, one file per key.
type Keystore struct {
	dir    string
	params EncryptionParams
}

// NewKeystore opens the keystore in dir, creating the directory if needed.
func NewKeystore(dir string, params EncryptionParams) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir, params: params}, nil
}

func (ks *Keystore) path(name string) string {
	return filepath.Join(ks.dir, name+".key")
}

// Generate creates a fresh random key under name.
func (ks *Keystore) Generate(name string, role Role, password []byte) (*KeyInfo, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return ks.store(name, role, key, "", password)
}

// Import stores an existing private key under name.
func (ks *Keystore) Import(name string, role Role, key *crypto.PrivateKey, password []byte) (*KeyInfo, error) {
	return ks.store(name, role, key, "", password)
}

// ImportMnemonic derives the role's key at index from mnemonic and stores
// it under name.
func (ks *Keystore) ImportMnemonic(name string, role Role, mnemonic, passphrase string, index uint32, password []byte) (*KeyInfo, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	hd, err := master.DeriveRole(role, index)
	if err != nil {
		return nil, err
	}
	key, err := hd.PrivateKey()
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	path, _ := role.Path(index)
	return ks.store(name, role, key, path, password)
}

func (ks *Keystore) store(name string, role Role, key *crypto.PrivateKey, path string, password []byte) (*KeyInfo, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	file := ks.path(name)
	if _, err := os.Stat(file); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExists, name)
	}

	secret := key.Serialize()
	defer zero(secret)
	sealed, err := Seal(secret, password, ks.params)
	if err != nil {
		return nil, fmt.Errorf("encrypt key: %w", err)
	}
	pub := key.PublicKey()
	kf := &keyFile{
		Version:   keyFileVersion,
		CreatedAt: time.Now().UTC(),
		Role:      role,
		Address:   crypto.AddressFromPubKey(pub),
		PublicKey: pub,
		Path:      path,
		Sealed:    sealed,
	}
	if err := writeKeyFile(file, kf); err != nil {
		return nil, err
	}
	klog.Keys.Info().Str("name", name).Str("role", string(role)).Str("address", kf.Address.String()).Msg("Key stored")
	return kf.info(name), nil
}

// Unlock decrypts the key stored under name.
func (ks *Keystore) Unlock(name string, password []byte) (*crypto.PrivateKey, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	secret, err := Open(kf.Sealed, password)
	if err != nil {
		return nil, fmt.Errorf("unlock %s: %w", name, err)
	}
	defer zero(secret)
	key, err := crypto.PrivateKeyFromBytes(secret)
	if err != nil {
		return nil, fmt.Errorf("unlock %s: %w", name, err)
	}
	if string(key.PublicKey()) != string(kf.PublicKey) {
		key.Zero()
		return nil, fmt.Errorf("unlock %s: key does not match its public key", name)
	}
	return key, nil
}

// Info returns the public description of the key stored under name.
func (ks *Keystore) Info(name string) (*KeyInfo, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	return kf.info(name), nil
}

// List returns every stored key sorted by name.
func (ks *Keystore) List() ([]KeyInfo, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var out []KeyInfo
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".key" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".key")
		info, err := ks.Info(name)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the key stored under name.
func (ks *Keystore) Delete(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.Remove(ks.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return err
	}
	klog.Keys.Info().Str("name", name).Msg("Key deleted")
	return nil
}

func (ks *Keystore) read(name string) (*keyFile, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := os.ReadFile(ks.path(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", name, err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key %s: %w", name, err)
	}
	if kf.Version != keyFileVersion {
		return nil, fmt.Errorf("key %s: unsupported version %d", name, kf.Version)
	}
	return &kf, nil
}

func (kf *keyFile) info(name string) *KeyInfo {
	return &KeyInfo{
		Name:      name,
		Role:      kf.Role,
		Address:   kf.Address,
		PublicKey: kf.PublicKey,
		Path:      kf.Path,
		CreatedAt: kf.CreatedAt,
	}
}

func writeKeyFile(path string, kf *keyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}
