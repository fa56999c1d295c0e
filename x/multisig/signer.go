package multisig

import (
	"context"
	"path/filepath"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/crypto"
	"github.com/iov-one/cellkit/errors"
)

// LocalSigner signs transactions with cosigner keys available locally. This
// is useful when a single operator holds enough keys to satisfy the policy,
// for example on a development network.
type LocalSigner struct {
	Lock Lock
	Keys []*crypto.PrivateKey
}

// SignTransaction returns a copy of the transaction signed by the first M
// available keys, in the order they are declared in the policy.
func (s LocalSigner) SignTransaction(ctx context.Context, tx *cellkit.Transaction) (*cellkit.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCanceled, err.Error())
	}
	p := s.Lock.Policy
	msg, err := Message(tx, p)
	if err != nil {
		return nil, err
	}

	byHash := make(map[[20]byte]*crypto.PrivateKey, len(s.Keys))
	for _, k := range s.Keys {
		byHash[k.PubkeyHash()] = k
	}

	var sigs [][]byte
	for i, h := range p.PubkeyHashes {
		if len(sigs) == int(p.RequireN) {
			break
		}
		key, ok := byHash[h]
		if !ok {
			if i < int(p.RequireFirstN) {
				return nil, errors.Wrapf(ErrSignatureCountMismatch, "missing required key %d", i)
			}
			continue
		}
		sig, err := key.Sign(msg)
		if err != nil {
			return nil, errors.Wrapf(err, "key %d", i)
		}
		sigs = append(sigs, sig)
	}
	if len(sigs) != int(p.RequireN) {
		return nil, errors.Wrapf(ErrSignatureCountMismatch, "want %d keys, have %d", p.RequireN, len(sigs))
	}
	return Aggregate(tx, p, sigs)
}

// SessionSigner signs transactions using signatures collected in session
// files. A session is matched by the transaction hash.
type SessionSigner struct {
	// Dir is searched for *.toml session files.
	Dir string
}

// SignTransaction returns the transaction signed with signatures of the
// matching session. The session must be complete.
func (s SessionSigner) SignTransaction(ctx context.Context, tx *cellkit.Transaction) (*cellkit.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCanceled, err.Error())
	}
	session, path, err := s.find(tx.Hash())
	if err != nil {
		return nil, err
	}
	ok, err := session.Complete()
	if err != nil {
		return nil, errors.Wrapf(err, "session %q", path)
	}
	if !ok || len(session.Signatures) != int(session.Lock.Policy.RequireN) {
		return nil, errors.Wrapf(ErrSignatureCountMismatch, "session %q holds %d of %d signatures",
			path, len(session.Signatures), session.Lock.Policy.RequireN)
	}
	// Witnesses of the provided transaction are kept.
	return Aggregate(tx, session.Lock.Policy, session.Signatures)
}

func (s SessionSigner) find(txHash cellkit.Hash) (*Session, string, error) {
	paths, err := filepath.Glob(filepath.Join(s.Dir, "*.toml"))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrInput, err.Error())
	}
	for _, path := range paths {
		session, err := LoadSession(path)
		if err != nil {
			continue
		}
		if session.Transaction.Hash() == txHash {
			return session, path, nil
		}
	}
	return nil, "", errors.Wrapf(errors.ErrNotFound, "no session for transaction %s in %q", txHash, s.Dir)
}

// SessionPath returns the file name a session of given transaction is
// exported to.
func SessionPath(dir string, tx *cellkit.Transaction) string {
	return filepath.Join(dir, tx.Hash().String()+".toml")
}
