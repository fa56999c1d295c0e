package celltest

import (
	"testing"

	"github.com/iov-one/cellkit/crypto"
)

// NewKey returns a freshly generated secp256k1 key.
func NewKey(t testing.TB) *crypto.PrivateKey {
	t.Helper()
	k, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("cannot generate a key: %s", err)
	}
	return k
}
