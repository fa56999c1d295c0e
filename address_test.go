package cellkit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iov-one/cellkit/celltest/assert"
	"github.com/iov-one/cellkit/errors"
)

func TestShortAddress(t *testing.T) {
	args := bytes.Repeat([]byte{0x42}, 20)

	cases := map[string]struct {
		prefix  string
		lock    Script
		wantErr *errors.Error
	}{
		"single key on main network": {
			prefix: MainnetPrefix,
			lock:   Script{CodeHash: Secp256k1Blake160CodeHash, HashType: HashTypeType, Args: args},
		},
		"multisig on test network": {
			prefix: TestnetPrefix,
			lock:   Script{CodeHash: MultisigCodeHash, HashType: HashTypeType, Args: args},
		},
		"unknown prefix": {
			prefix:  "btc",
			lock:    Script{CodeHash: MultisigCodeHash, HashType: HashTypeType, Args: args},
			wantErr: errors.ErrInput,
		},
		"unknown code hash": {
			prefix:  MainnetPrefix,
			lock:    Script{CodeHash: TypeIDCodeHash, HashType: HashTypeType, Args: args},
			wantErr: errors.ErrInput,
		},
		"data hash type": {
			prefix:  MainnetPrefix,
			lock:    Script{CodeHash: MultisigCodeHash, HashType: HashTypeData, Args: args},
			wantErr: errors.ErrInput,
		},
		"args with a since": {
			prefix:  MainnetPrefix,
			lock:    Script{CodeHash: MultisigCodeHash, HashType: HashTypeType, Args: append(args, 1, 2, 3, 4, 5, 6, 7, 8)},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			addr, err := ShortAddress(tc.prefix, tc.lock)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr != nil {
				return
			}
			if !strings.HasPrefix(addr, tc.prefix+"1") {
				t.Fatalf("unexpected address %q", addr)
			}
			prefix, lock, err := ParseShortAddress(addr)
			assert.Nil(t, err)
			assert.Equal(t, tc.prefix, prefix)
			assert.Equal(t, true, lock.Equal(tc.lock))
		})
	}

	_, _, err := ParseShortAddress("ckb1invalid")
	assert.IsErr(t, errors.ErrInput, err)
}
