// Package crypto provides the hashing and signature primitives used by the
// stake ledger's two authorities.
package crypto

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
	"github.com/zeebo/blake3"
)

// SignedMessagePrefix is prepended to a 32-byte message hash before
// recoverable signing, so a release signature can never be replayed as a
// raw digest signature somewhere else.
const SignedMessagePrefix = "\x19Klingnet Signed Message:\n32"

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

// TaggedHash hashes a length-prefixed domain tag followed by each part.
// Distinct tags never produce colliding preimages.
func TaggedHash(tag string, parts ...[]byte) types.Hash {
	h := blake3.New()
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(tag)))
	h.Write(l[:])
	h.Write([]byte(tag))
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// SignedMessageHash applies SignedMessagePrefix to msgHash.
func SignedMessageHash(msgHash types.Hash) types.Hash {
	buf := make([]byte, 0, len(SignedMessagePrefix)+types.HashSize)
	buf = append(buf, SignedMessagePrefix...)
	buf = append(buf, msgHash[:]...)
	return Hash(buf)
}

// DeriveAddress returns a deterministic address owned by no key, used for
// system accounts such as ledger custody.
func DeriveAddress(label string) types.Address {
	h := TaggedHash("klingnet/system-address", []byte(label))
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
