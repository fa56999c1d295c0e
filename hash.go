package cellkit

import (
	"encoding/hex"
	"hash"
	"strings"

	"github.com/iov-one/cellkit/errors"
	"github.com/minio/blake2b-simd"
)

// HashLength is the length of all hashes used by the ledger.
const HashLength = 32

// hashPersonalization is the blake2b personalization used by the ledger for
// every hash it computes.
var hashPersonalization = []byte("ckb-default-hash")

// Hash is a 32 byte digest, for example a transaction hash.
type Hash [HashLength]byte

// NewHasher returns a blake2b-256 hasher personalized for the ledger.
func NewHasher() hash.Hash {
	h, err := blake2b.New(&blake2b.Config{
		Size:   HashLength,
		Person: hashPersonalization,
	})
	if err != nil {
		// Configuration is constant and always valid.
		panic(err)
	}
	return h
}

// Blake2b256 returns the ledger hash of all given byte slices written one
// after another.
func Blake2b256(data ...[]byte) Hash {
	h := NewHasher()
	for _, d := range data {
		_, _ = h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Blake160 returns the first 20 bytes of the ledger hash of given data.
func Blake160(data []byte) [20]byte {
	full := Blake2b256(data)
	var out [20]byte
	copy(out[:], full[:20])
	return out
}

// ParseHash decodes a 0x prefixed (or plain) hex representation of a hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, errors.Wrap(errors.ErrInput, "hash is not hex encoded")
	}
	if len(raw) != HashLength {
		return h, errors.Wrapf(errors.ErrInput, "hash must be %d bytes, got %d", HashLength, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// String returns the 0x prefixed hex representation.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero returns true if all bytes of the hash are zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(raw []byte) error {
	parsed, err := ParseHash(string(raw))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
