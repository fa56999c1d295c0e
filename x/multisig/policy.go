package multisig

import (
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

const (
	// MaxPubkeys is the largest number of keys a policy can declare.
	MaxPubkeys = 255

	// SignatureLength is the length of a single recoverable signature.
	SignatureLength = 65

	pubkeyHashLength = 20
	headerLength     = 4
)

// Policy is an R of M of N threshold signing rule.
type Policy struct {
	FormatVersion byte
	// RequireFirstN is the number of keys from the beginning of the list
	// that must always sign (R).
	RequireFirstN byte
	// RequireN is the number of signatures required (M).
	RequireN     byte
	PubkeyHashes [][20]byte
}

// Validate returns an error if the policy cannot be satisfied or encoded.
func (p Policy) Validate() error {
	n := len(p.PubkeyHashes)
	if n > MaxPubkeys {
		return errors.Wrapf(ErrPolicyTooLarge, "%d keys", n)
	}
	if n == 0 {
		return errors.Wrap(ErrPolicyInconsistent, "no keys")
	}
	if p.RequireN == 0 {
		return errors.Wrap(ErrPolicyInconsistent, "at least one signature must be required")
	}
	if int(p.RequireN) > n {
		return errors.Wrapf(ErrPolicyInconsistent, "%d signatures required from %d keys", p.RequireN, n)
	}
	if p.RequireFirstN > p.RequireN {
		return errors.Wrapf(ErrPolicyInconsistent, "first %d keys required with only %d signatures", p.RequireFirstN, p.RequireN)
	}
	seen := make(map[[20]byte]struct{}, n)
	for i, h := range p.PubkeyHashes {
		if _, ok := seen[h]; ok {
			return errors.Wrapf(ErrPolicyInconsistent, "key %d is a duplicate", i)
		}
		seen[h] = struct{}{}
	}
	return nil
}

// Encode returns the policy representation used in the lock arguments.
func Encode(p Policy) ([]byte, error) {
	n := len(p.PubkeyHashes)
	if n > MaxPubkeys {
		return nil, errors.Wrapf(ErrPolicyTooLarge, "%d keys", n)
	}
	out := make([]byte, 0, headerLength+n*pubkeyHashLength)
	out = append(out, p.FormatVersion, p.RequireFirstN, p.RequireN, byte(n))
	for _, h := range p.PubkeyHashes {
		out = append(out, h[:]...)
	}
	return out, nil
}

// Decode is the reverse of Encode. It does not check if the policy can be
// satisfied, use Validate for that.
func Decode(raw []byte) (Policy, error) {
	var p Policy
	if len(raw) < headerLength {
		return p, errors.Wrap(errors.ErrInput, "policy header too short")
	}
	n := int(raw[3])
	if len(raw) != headerLength+n*pubkeyHashLength {
		return p, errors.Wrapf(errors.ErrInput, "%d keys declared in %d bytes", n, len(raw))
	}
	p.FormatVersion = raw[0]
	p.RequireFirstN = raw[1]
	p.RequireN = raw[2]
	p.PubkeyHashes = make([][20]byte, n)
	for i := range p.PubkeyHashes {
		copy(p.PubkeyHashes[i][:], raw[headerLength+i*pubkeyHashLength:])
	}
	return p, nil
}

// ScriptHash returns the lock arguments of given policy.
func ScriptHash(p Policy) ([20]byte, error) {
	raw, err := Encode(p)
	if err != nil {
		return [20]byte{}, err
	}
	return cellkit.Blake160(raw), nil
}

// IndexOf returns the position of given key hash in the policy or -1.
func (p Policy) IndexOf(h [20]byte) int {
	for i, ph := range p.PubkeyHashes {
		if ph == h {
			return i
		}
	}
	return -1
}

// placeholder returns the lock field content hashed instead of the real
// signatures: the encoded policy followed by N zeroed signatures.
func placeholder(p Policy) ([]byte, error) {
	raw, err := Encode(p)
	if err != nil {
		return nil, err
	}
	return append(raw, make([]byte, len(p.PubkeyHashes)*SignatureLength)...), nil
}

// PlaceholderSize returns the size of the first witness lock field used when
// computing the signing message.
func PlaceholderSize(p Policy) int {
	return headerLength + len(p.PubkeyHashes)*(pubkeyHashLength+SignatureLength)
}

// Lock is a multisig lock script together with the policy it enforces.
type Lock struct {
	CodeHash cellkit.Hash
	HashType cellkit.ScriptHashType
	Policy   Policy
}

// DefaultLock returns the lock using the multisig script deployed in the
// genesis block.
func DefaultLock(p Policy) Lock {
	return Lock{
		CodeHash: cellkit.MultisigCodeHash,
		HashType: cellkit.HashTypeType,
		Policy:   p,
	}
}

// Script returns the lock script.
func (l Lock) Script() (cellkit.Script, error) {
	if err := l.Policy.Validate(); err != nil {
		return cellkit.Script{}, err
	}
	h, err := ScriptHash(l.Policy)
	if err != nil {
		return cellkit.Script{}, err
	}
	return cellkit.Script{
		CodeHash: l.CodeHash,
		HashType: l.HashType,
		Args:     h[:],
	}, nil
}
