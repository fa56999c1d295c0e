package multisig

import (
	"io/ioutil"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/crypto"
	"github.com/iov-one/cellkit/errors"
	"github.com/pelletier/go-toml"
)

// Session is a transaction waiting for cosigner signatures.
type Session struct {
	Transaction *cellkit.Transaction
	Lock        Lock
	Signatures  [][]byte
}

// sessionFile is the TOML representation of a session.
type sessionFile struct {
	Signatures  []string                `toml:"signatures"`
	Transaction cellkit.JSONTransaction `toml:"transaction"`
	Lock        LockConfig              `toml:"lock"`
}

// LockConfig is the TOML representation of a multisig lock.
type LockConfig struct {
	CodeHash       string   `toml:"code_hash"`
	HashType       string   `toml:"hash_type"`
	FormatVersion  int      `toml:"format_version"`
	RequireFirstN  int      `toml:"require_first_n"`
	RequireN       int      `toml:"require_n"`
	PubkeyHashList []string `toml:"pubkey_hash_list"`
}

// NewLockConfig returns the TOML representation of given lock.
func NewLockConfig(l Lock) LockConfig {
	hashes := make([]string, len(l.Policy.PubkeyHashes))
	for i, h := range l.Policy.PubkeyHashes {
		hashes[i] = hexutil.Encode(h[:])
	}
	return LockConfig{
		CodeHash:       l.CodeHash.String(),
		HashType:       l.HashType.String(),
		FormatVersion:  int(l.Policy.FormatVersion),
		RequireFirstN:  int(l.Policy.RequireFirstN),
		RequireN:       int(l.Policy.RequireN),
		PubkeyHashList: hashes,
	}
}

// Lock decodes and validates the lock configuration.
func (c LockConfig) Lock() (Lock, error) {
	var (
		l   Lock
		err error
	)
	if h, e := cellkit.ParseHash(c.CodeHash); e != nil {
		err = errors.AppendField(err, "code_hash", e)
	} else {
		l.CodeHash = h
	}
	if t, e := cellkit.ParseScriptHashType(c.HashType); e != nil {
		err = errors.AppendField(err, "hash_type", e)
	} else {
		l.HashType = t
	}
	var e error
	l.Policy.FormatVersion, e = byteField("format_version", c.FormatVersion)
	err = errors.Append(err, e)
	l.Policy.RequireFirstN, e = byteField("require_first_n", c.RequireFirstN)
	err = errors.Append(err, e)
	l.Policy.RequireN, e = byteField("require_n", c.RequireN)
	err = errors.Append(err, e)
	for i, s := range c.PubkeyHashList {
		raw, e := hexutil.Decode(s)
		if e != nil || len(raw) != pubkeyHashLength {
			err = errors.AppendField(err, "pubkey_hash_list", errors.Wrapf(errors.ErrInput, "key %d is not a 20 byte hex value", i))
			continue
		}
		var h [20]byte
		copy(h[:], raw)
		l.Policy.PubkeyHashes = append(l.Policy.PubkeyHashes, h)
	}
	if err != nil {
		return l, err
	}
	if err := l.Policy.Validate(); err != nil {
		return l, err
	}
	return l, nil
}

func byteField(name string, n int) (byte, error) {
	if n < 0 || n > 255 {
		return 0, errors.Field(name, errors.ErrOverflow, "%d does not fit a byte", n)
	}
	return byte(n), nil
}

// NewSession returns a session without any signatures.
func NewSession(tx *cellkit.Transaction, l Lock) *Session {
	return &Session{
		Transaction: tx,
		Lock:        l,
	}
}

// ParseSession decodes a TOML session document.
func ParseSession(raw []byte) (*Session, error) {
	var f sessionFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	tx, err := f.Transaction.Transaction()
	if err != nil {
		return nil, errors.Wrap(err, "transaction")
	}
	l, err := f.Lock.Lock()
	if err != nil {
		return nil, errors.Wrap(err, "lock")
	}
	s := &Session{Transaction: tx, Lock: l}
	for i, sig := range f.Signatures {
		raw, err := hexutil.Decode(sig)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "signature %d is not hex encoded", i)
		}
		s.Signatures = append(s.Signatures, raw)
	}
	return s, nil
}

// LoadSession reads a session document from given file.
func LoadSession(path string) (*Session, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "read %q: %s", path, err)
	}
	s, err := ParseSession(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "session %q", path)
	}
	return s, nil
}

// Marshal returns the TOML representation of the session.
func (s *Session) Marshal() ([]byte, error) {
	f := sessionFile{
		Signatures:  make([]string, len(s.Signatures)),
		Transaction: cellkit.NewJSONTransaction(s.Transaction),
		Lock:        NewLockConfig(s.Lock),
	}
	for i, sig := range s.Signatures {
		f.Signatures[i] = hexutil.Encode(sig)
	}
	raw, err := toml.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// Save writes the session document into given file.
func (s *Session) Save(path string) error {
	raw, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(path, raw, 0644); err != nil {
		return errors.Wrapf(errors.ErrInput, "write %q: %s", path, err)
	}
	return nil
}

// Message returns the digest cosigners must sign.
func (s *Session) Message() (cellkit.Hash, error) {
	return Message(s.Transaction, s.Lock.Policy)
}

// Sign adds a signature created with given key. The key must belong to the
// policy and must not have signed already.
func (s *Session) Sign(key *crypto.PrivateKey) ([]byte, error) {
	if s.Lock.Policy.IndexOf(key.PubkeyHash()) < 0 {
		return nil, errors.Wrap(errors.ErrInput, "key does not belong to the policy")
	}
	signers, err := s.Signers()
	if err != nil {
		return nil, err
	}
	for _, h := range signers {
		if h == key.PubkeyHash() {
			return nil, errors.Wrap(errors.ErrDuplicate, "key already signed")
		}
	}
	// Aggregation takes exactly M signatures, any further one would make the
	// session unusable.
	if len(signers) >= int(s.Lock.Policy.RequireN) {
		return nil, errors.Wrapf(ErrSignatureCountMismatch, "session already holds %d of %d signatures", len(signers), s.Lock.Policy.RequireN)
	}
	msg, err := s.Message()
	if err != nil {
		return nil, err
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return nil, err
	}
	s.Signatures = append(s.Signatures, sig)
	return sig, nil
}

// Signers returns key hashes of all collected signatures, in the order the
// signatures were collected. Every signature must be valid and created by a
// distinct key of the policy.
func (s *Session) Signers() ([][20]byte, error) {
	msg, err := s.Message()
	if err != nil {
		return nil, err
	}
	seen := make(map[[20]byte]struct{})
	signers := make([][20]byte, 0, len(s.Signatures))
	for i, sig := range s.Signatures {
		if len(sig) != SignatureLength {
			return nil, errors.Wrapf(ErrSignatureLengthMismatch, "signature %d is %d bytes", i, len(sig))
		}
		h, err := crypto.RecoverPubkeyHash(msg, sig)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		if s.Lock.Policy.IndexOf(h) < 0 {
			return nil, errors.Wrapf(errors.ErrInput, "signature %d is not signed by a policy key", i)
		}
		if _, ok := seen[h]; ok {
			return nil, errors.Wrapf(errors.ErrDuplicate, "signature %d", i)
		}
		seen[h] = struct{}{}
		signers = append(signers, h)
	}
	return signers, nil
}

// Complete returns true if the session holds enough signatures, including
// all the required first keys.
func (s *Session) Complete() (bool, error) {
	signers, err := s.Signers()
	if err != nil {
		return false, err
	}
	return satisfies(s.Lock.Policy, signers), nil
}

// Aggregate returns the signed transaction. The session must hold exactly M
// signatures.
func (s *Session) Aggregate() (*cellkit.Transaction, error) {
	return Aggregate(s.Transaction, s.Lock.Policy, s.Signatures)
}

func satisfies(p Policy, signers [][20]byte) bool {
	if len(signers) < int(p.RequireN) {
		return false
	}
	signed := make(map[[20]byte]struct{}, len(signers))
	for _, h := range signers {
		signed[h] = struct{}{}
	}
	for _, h := range p.PubkeyHashes[:p.RequireFirstN] {
		if _, ok := signed[h]; !ok {
			return false
		}
	}
	return true
}

// Template is a session document with every field filled with an example
// value. Replace the values before use.
const Template = `# Signatures collected from cosigners, 65 bytes each.
signatures = []

[transaction]
version = "0x0"
header_deps = []
outputs_data = ["0x"]
witnesses = ["0x"]

  [[transaction.cell_deps]]
  dep_type = "dep_group"
    [transaction.cell_deps.out_point]
    tx_hash = "0x0000000000000000000000000000000000000000000000000000000000000000"
    index = "0x1"

  [[transaction.inputs]]
  since = "0x0"
    [transaction.inputs.previous_output]
    tx_hash = "0x0000000000000000000000000000000000000000000000000000000000000000"
    index = "0x0"

  [[transaction.outputs]]
  capacity = "0x174876e800"
    [transaction.outputs.lock]
    code_hash = "0x9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8"
    hash_type = "type"
    args = "0x0000000000000000000000000000000000000000"

[lock]
code_hash = "0x5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8"
hash_type = "type"
format_version = 0
require_first_n = 0
require_n = 1
pubkey_hash_list = ["0x0000000000000000000000000000000000000001"]
`
