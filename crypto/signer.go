package crypto

import (
	"context"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

// KeySigner signs transactions spending cells locked with the default single
// key lock.
type KeySigner struct {
	Key *PrivateKey
}

// SignTransaction returns a copy of the transaction with the signature
// installed in the lock field of the first witness. Other fields of the
// first witness and all other witnesses are preserved.
func (s KeySigner) SignTransaction(ctx context.Context, tx *cellkit.Transaction) (*cellkit.Transaction, error) {
	if s.Key == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "private key")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCanceled, err.Error())
	}
	msg, err := cellkit.SigningMessage(tx, make([]byte, SignatureLength))
	if err != nil {
		return nil, errors.Wrap(err, "signing message")
	}
	sig, err := s.Key.Sign(msg)
	if err != nil {
		return nil, err
	}
	return cellkit.SetWitnessLock(tx, sig)
}
