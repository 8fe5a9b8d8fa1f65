package keys

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// testMnemonic is the well-known BIP-39 test mnemonic.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

// fastParams returns low-cost Argon2 params for fast tests.
func fastParams() EncryptionParams {
	return EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1}
}

func masterKey(t *testing.T) *HDKey {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	return master
}

func TestGenerateMnemonic(t *testing.T) {
	m, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if n := len(strings.Fields(m)); n != 24 {
		t.Errorf("word count = %d, want 24", n)
	}
	if !ValidateMnemonic(m) {
		t.Error("generated mnemonic should validate")
	}
	if ValidateMnemonic("abandon abandon abandon") {
		t.Error("short mnemonic should not validate")
	}
	if _, err := SeedFromMnemonic("not a mnemonic", ""); err == nil {
		t.Error("SeedFromMnemonic() should reject an invalid mnemonic")
	}
}

func TestDeriveRole_KnownVector(t *testing.T) {
	// m/44'/8888'/0'/0/0 of the test mnemonic is the testnet authority key.
	key, err := masterKey(t).DeriveRole(RoleGovernance, 0)
	if err != nil {
		t.Fatalf("DeriveRole() error: %v", err)
	}
	want := "030bef68f8657df88098a0546da1712c88b459788bea1a6bbe964004166a25144f"
	if got := types.HexBytes(key.PublicKeyBytes()).String(); got != want {
		t.Errorf("public key = %s, want %s", got, want)
	}
	if key.Depth() != 5 {
		t.Errorf("depth = %d, want 5", key.Depth())
	}
}

func TestDeriveRole_RolesDiffer(t *testing.T) {
	master := masterKey(t)
	seen := map[string]Role{}
	for _, role := range []Role{RoleGovernance, RoleRegistry, RoleAccount} {
		key, err := master.DeriveRole(role, 0)
		if err != nil {
			t.Fatalf("DeriveRole(%s) error: %v", role, err)
		}
		pub := string(key.PublicKeyBytes())
		if other, ok := seen[pub]; ok {
			t.Errorf("roles %s and %s derive the same key", role, other)
		}
		seen[pub] = role
	}
	if _, err := master.DeriveRole("miner", 0); err == nil {
		t.Error("DeriveRole() should reject an unknown role")
	}
}

func TestHDKey_PrivateKeyAndNeuter(t *testing.T) {
	key, err := masterKey(t).DeriveRole(RoleRegistry, 3)
	if err != nil {
		t.Fatalf("DeriveRole() error: %v", err)
	}
	priv, err := key.PrivateKey()
	if err != nil {
		t.Fatalf("PrivateKey() error: %v", err)
	}
	if !bytes.Equal(priv.PublicKey(), key.PublicKeyBytes()) {
		t.Error("signing key does not match HD public key")
	}
	if key.Address() != crypto.AddressFromPubKey(key.PublicKeyBytes()) {
		t.Error("Address() does not match AddressFromPubKey")
	}

	pub := key.Neuter()
	if pub.IsPrivate() || pub.PrivateKeyBytes() != nil {
		t.Error("neutered key should be public-only")
	}
	if _, err := pub.PrivateKey(); err == nil {
		t.Error("PrivateKey() should fail on a public-only key")
	}
}

func TestRole_Path(t *testing.T) {
	path, err := RoleAccount.Path(7)
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	if path != "m/44'/8888'/2'/0/7" {
		t.Errorf("Path() = %q", path)
	}
	if _, err := ParseRole("registry"); err != nil {
		t.Errorf("ParseRole(registry) error: %v", err)
	}
	if _, err := ParseRole("root"); err == nil {
		t.Error("ParseRole() should reject an unknown role")
	}
}

func TestSealOpen(t *testing.T) {
	secret := []byte("32 bytes of very secret material")
	sealed, err := Seal(secret, []byte("pw"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	opened, err := Open(sealed, []byte("pw"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if !bytes.Equal(opened, secret) {
		t.Error("Open() did not return the sealed data")
	}

	if _, err := Open(sealed, []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Open() with wrong password error = %v, want %v", err, ErrWrongPassword)
	}

	tampered := append([]byte(nil), sealed...)
	tampered[5] ^= 0x01 // salt byte: header is authenticated
	if _, err := Open(tampered, []byte("pw")); err == nil {
		t.Error("Open() should reject a tampered header")
	}
	if _, err := Open(sealed[:10], []byte("pw")); err == nil {
		t.Error("Open() should reject truncated data")
	}
}

func TestKeystore_GenerateUnlock(t *testing.T) {
	ks, err := NewKeystore(t.TempDir(), fastParams())
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	info, err := ks.Generate("gov", RoleGovernance, []byte("pw"))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if info.Role != RoleGovernance || info.Address.IsZero() {
		t.Errorf("info = %+v", info)
	}

	key, err := ks.Unlock("gov", []byte("pw"))
	if err != nil {
		t.Fatalf("Unlock() error: %v", err)
	}
	if !bytes.Equal(key.PublicKey(), info.PublicKey) {
		t.Error("unlocked key does not match stored public key")
	}
	if _, err := ks.Unlock("gov", []byte("nope")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Unlock() with wrong password error = %v", err)
	}

	_, err = ks.Generate("gov", RoleGovernance, []byte("pw"))
	if !errors.Is(err, ErrKeyExists) {
		t.Errorf("duplicate Generate() error = %v, want %v", err, ErrKeyExists)
	}
}

func TestKeystore_ImportMnemonicAndList(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewKeystore(dir, fastParams())
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	info, err := ks.ImportMnemonic("registry", RoleRegistry, testMnemonic, "", 0, []byte("pw"))
	if err != nil {
		t.Fatalf("ImportMnemonic() error: %v", err)
	}
	if info.Path != "m/44'/8888'/1'/0/0" {
		t.Errorf("Path = %q", info.Path)
	}
	want, _ := masterKey(t).DeriveRole(RoleRegistry, 0)
	if !bytes.Equal(info.PublicKey, want.PublicKeyBytes()) {
		t.Error("imported key differs from derived key")
	}

	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if _, err := ks.Import("alice", RoleAccount, other, []byte("pw")); err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	list, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "alice" || list[1].Name != "registry" {
		t.Errorf("List() = %+v", list)
	}

	if err := ks.Delete("alice"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := ks.Info("alice"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Info() after Delete() error = %v, want %v", err, ErrKeyNotFound)
	}
	if err := ks.Delete("alice"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("second Delete() error = %v, want %v", err, ErrKeyNotFound)
	}
}

func TestKeystore_InvalidNames(t *testing.T) {
	ks, err := NewKeystore(t.TempDir(), fastParams())
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		if _, err := ks.Generate(name, RoleAccount, []byte("pw")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Generate(%q) error = %v, want %v", name, err, ErrInvalidName)
		}
	}
}
