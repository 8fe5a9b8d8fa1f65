package keys

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrWrongPassword is returned when a key file does not decrypt.
var ErrWrongPassword = errors.New("wrong password or corrupted key file")

// Sealed format:
//
//	version(1) | salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
const (
	sealVersion = 1
	SaltSize    = 32
	headerSize  = 1 + SaltSize + 4 + 4 + 1
)

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the Argon2id parameters used for new key files.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Seal encrypts data under password with Argon2id and XChaCha20-Poly1305.
// The header is authenticated as additional data.
func Seal(data, password []byte, params EncryptionParams) ([]byte, error) {
	out := make([]byte, headerSize, headerSize+chacha20poly1305.NonceSizeX+len(data)+chacha20poly1305.Overhead)
	out[0] = sealVersion
	if _, err := rand.Read(out[1 : 1+SaltSize]); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	binary.LittleEndian.PutUint32(out[1+SaltSize:], params.Memory)
	binary.LittleEndian.PutUint32(out[1+SaltSize+4:], params.Iterations)
	out[headerSize-1] = params.Parallelism

	key := deriveKey(password, out[1:1+SaltSize], params)
	defer zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	header := out[:headerSize]
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, header), nil
}

// Open decrypts data produced by Seal.
func Open(sealed, password []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	if len(sealed) < headerSize+nonceSize+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("sealed data too short: %d bytes", len(sealed))
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("unsupported seal version %d", sealed[0])
	}
	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(sealed[1+SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(sealed[1+SaltSize+4:]),
		Parallelism: sealed[headerSize-1],
	}
	if params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("invalid key derivation parameters")
	}

	key := deriveKey(password, sealed[1:1+SaltSize], params)
	defer zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	header := sealed[:headerSize]
	nonce := sealed[headerSize : headerSize+nonceSize]
	plaintext, err := aead.Open(nil, nonce, sealed[headerSize+nonceSize:], header)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}
