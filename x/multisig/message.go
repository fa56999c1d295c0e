package multisig

import (
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

// Message returns the digest every cosigner must sign in order to authorize
// given transaction. Signatures already present in the first witness do not
// influence the result.
func Message(tx *cellkit.Transaction, p Policy) (cellkit.Hash, error) {
	if err := p.Validate(); err != nil {
		return cellkit.Hash{}, err
	}
	lock, err := placeholder(p)
	if err != nil {
		return cellkit.Hash{}, err
	}
	msg, err := cellkit.SigningMessage(tx, lock)
	if err != nil {
		return cellkit.Hash{}, errors.Wrap(err, "signing message")
	}
	return msg, nil
}
