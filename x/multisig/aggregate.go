package multisig

import (
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

// Aggregate returns a copy of the transaction with the signatures installed
// in the first witness. Exactly M signatures must be provided.
func Aggregate(tx *cellkit.Transaction, p Policy, signatures [][]byte) (*cellkit.Transaction, error) {
	return AggregateN(tx, p, signatures, int(p.RequireN))
}

// AggregateN works like Aggregate but lets the caller decide how many
// signatures are expected.
func AggregateN(tx *cellkit.Transaction, p Policy, signatures [][]byte, expected int) (*cellkit.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for i, sig := range signatures {
		if len(sig) != SignatureLength {
			return nil, errors.Wrapf(ErrSignatureLengthMismatch, "signature %d is %d bytes", i, len(sig))
		}
	}
	if len(signatures) != expected {
		return nil, errors.Wrapf(ErrSignatureCountMismatch, "want %d, got %d", expected, len(signatures))
	}
	lock, err := Encode(p)
	if err != nil {
		return nil, err
	}
	for _, sig := range signatures {
		lock = append(lock, sig...)
	}
	return cellkit.SetWitnessLock(tx, lock)
}
