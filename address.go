package cellkit

import (
	"github.com/iov-one/cellkit/crypto/bech32"
	"github.com/iov-one/cellkit/errors"
)

const (
	// MainnetPrefix is the human readable part of main network addresses.
	MainnetPrefix = "ckb"
	// TestnetPrefix is the human readable part of test network addresses.
	TestnetPrefix = "ckt"

	shortFormat = 0x01
)

var (
	// Secp256k1Blake160CodeHash is the type hash of the default single key
	// lock deployed in the genesis block.
	Secp256k1Blake160CodeHash = mustParseHash("0x9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8")

	// MultisigCodeHash is the type hash of the default multisig lock
	// deployed in the genesis block.
	MultisigCodeHash = mustParseHash("0x5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8")
)

// shortCodeHashes maps the code hash index of the short address format to
// the lock code hash.
var shortCodeHashes = []Hash{
	Secp256k1Blake160CodeHash,
	MultisigCodeHash,
}

// ShortAddress returns the short format address of a default lock. Only
// single key and multisig locks with 20 byte arguments have a short form.
func ShortAddress(prefix string, lock Script) (string, error) {
	if prefix != MainnetPrefix && prefix != TestnetPrefix {
		return "", errors.Wrapf(errors.ErrInput, "unknown address prefix %q", prefix)
	}
	if lock.HashType != HashTypeType || len(lock.Args) != 20 {
		return "", errors.Wrap(errors.ErrInput, "lock has no short address")
	}
	for i, h := range shortCodeHashes {
		if h == lock.CodeHash {
			payload := append([]byte{shortFormat, byte(i)}, lock.Args...)
			return bech32.Encode(prefix, payload)
		}
	}
	return "", errors.Wrap(errors.ErrInput, "lock has no short address")
}

// ParseShortAddress decodes a short format address into its prefix and the
// lock script.
func ParseShortAddress(addr string) (string, Script, error) {
	prefix, payload, err := bech32.Decode(addr)
	if err != nil {
		return "", Script{}, errors.Wrap(err, "address")
	}
	if prefix != MainnetPrefix && prefix != TestnetPrefix {
		return "", Script{}, errors.Wrapf(errors.ErrInput, "unknown address prefix %q", prefix)
	}
	if len(payload) != 22 || payload[0] != shortFormat {
		return "", Script{}, errors.Wrap(errors.ErrInput, "not a short format address")
	}
	if int(payload[1]) >= len(shortCodeHashes) {
		return "", Script{}, errors.Wrapf(errors.ErrInput, "unknown code hash index %d", payload[1])
	}
	lock := Script{
		CodeHash: shortCodeHashes[payload[1]],
		HashType: HashTypeType,
		Args:     append([]byte(nil), payload[2:]...),
	}
	return prefix, lock, nil
}
