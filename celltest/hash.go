package celltest

import (
	"crypto/rand"
	"testing"

	"github.com/iov-one/cellkit"
)

// RandomHash returns a random hash generated on the fly.
func RandomHash(t testing.TB) cellkit.Hash {
	t.Helper()
	var h cellkit.Hash
	if _, err := rand.Read(h[:]); err != nil {
		t.Fatalf("cannot generate a random hash: %s", err)
	}
	return h
}

// RandomOutPoint returns an out point of a random transaction.
func RandomOutPoint(t testing.TB) cellkit.OutPoint {
	t.Helper()
	return cellkit.OutPoint{TxHash: RandomHash(t)}
}

// DecodeHash takes a 0x prefixed hex encoded hash and returns its value.
func DecodeHash(t testing.TB, encoded string) cellkit.Hash {
	t.Helper()
	h, err := cellkit.ParseHash(encoded)
	if err != nil {
		t.Fatalf("cannot decode hash %q: %s", encoded, err)
	}
	return h
}
