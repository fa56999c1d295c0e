package cellkit

import (
	"github.com/iov-one/cellkit/errors"
)

// TypeIDCodeHash is the code hash of the built in type id script.
var TypeIDCodeHash = mustParseHash("0x00000000000000000000000000000000000000000000000000545950455f4944")

// TypeIDArgs computes the identity of a cell created at given output index of
// a transaction with given first input. The identity stays the same when the
// cell is later updated by a transaction that carries the same type script.
func TypeIDArgs(firstInput CellInput, outputIndex uint64) Hash {
	return Blake2b256(firstInput.Serialize(), packUint64(outputIndex))
}

// TypeIDScript returns the type id script with given identity.
func TypeIDScript(id Hash) Script {
	return Script{
		CodeHash: TypeIDCodeHash,
		HashType: HashTypeType,
		Args:     append([]byte(nil), id[:]...),
	}
}

// TypeIDOf returns the identity carried by a type id script.
func TypeIDOf(s *Script) (Hash, error) {
	var id Hash
	if s == nil || s.CodeHash != TypeIDCodeHash || s.HashType != HashTypeType {
		return id, errors.Wrap(errors.ErrInput, "not a type id script")
	}
	if len(s.Args) != HashLength {
		return id, errors.Wrapf(errors.ErrInput, "type id args must be %d bytes", HashLength)
	}
	copy(id[:], s.Args)
	return id, nil
}

func mustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}
