package cellkit

import (
	"github.com/iov-one/cellkit/errors"
)

// WitnessArgs is the conventional structure of a witness. Lock carries the
// unlocking proof of the lock script of the input group, InputType and
// OutputType carry data for type scripts.
//
// A nil field is absent. A non nil, empty field is present and empty, which
// serializes differently.
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

// Serialize returns the binary representation of the witness.
func (w WitnessArgs) Serialize() []byte {
	return packTable([][]byte{
		packBytesOpt(w.Lock),
		packBytesOpt(w.InputType),
		packBytesOpt(w.OutputType),
	})
}

func packBytesOpt(b []byte) []byte {
	if b == nil {
		return nil
	}
	return packBytes(b)
}

// DecodeWitnessArgs parses a witness. An empty witness decodes to a value
// with all fields absent.
func DecodeWitnessArgs(raw []byte) (WitnessArgs, error) {
	var w WitnessArgs
	if len(raw) == 0 {
		return w, nil
	}
	fields, err := unpackTable(raw, 3)
	if err != nil {
		return w, errors.Wrap(err, "witness args")
	}
	dst := []*[]byte{&w.Lock, &w.InputType, &w.OutputType}
	for i, f := range fields {
		if len(f) == 0 {
			continue
		}
		b, err := unpackBytes(f)
		if err != nil {
			return w, errors.Wrapf(err, "witness args field %d", i)
		}
		*dst[i] = b
	}
	return w, nil
}

// SetWitnessLock returns a copy of the transaction with the lock field of
// the first witness set to given value. The witness list is padded with
// empty witnesses up to the number of inputs. The transaction passed as an
// argument is not modified.
func SetWitnessLock(tx *Transaction, lock []byte) (*Transaction, error) {
	w, err := DecodeWitnessArgs(tx.Witness(0))
	if err != nil {
		return nil, errors.Wrap(err, "first witness")
	}
	w.Lock = append([]byte{}, lock...)

	signed := tx.Clone()
	n := len(signed.Inputs)
	if n == 0 {
		n = 1
	}
	for len(signed.Witnesses) < n {
		signed.Witnesses = append(signed.Witnesses, []byte{})
	}
	signed.Witnesses[0] = w.Serialize()
	return signed, nil
}
