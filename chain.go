package cellkit

import (
	"github.com/iov-one/cellkit/errors"
)

// TxStatus is the state of a transaction as seen by a node.
type TxStatus int

const (
	// TxUnknown means the node has never seen the transaction.
	TxUnknown TxStatus = iota
	// TxPending is a transaction in the pool, waiting to be proposed.
	TxPending
	// TxProposed is a transaction proposed but not yet committed.
	TxProposed
	// TxCommitted is a transaction included in the chain.
	TxCommitted
	// TxRejected is a transaction dropped by the pool.
	TxRejected
)

var txStatusNames = map[TxStatus]string{
	TxUnknown:   "unknown",
	TxPending:   "pending",
	TxProposed:  "proposed",
	TxCommitted: "committed",
	TxRejected:  "rejected",
}

func (s TxStatus) String() string {
	if n, ok := txStatusNames[s]; ok {
		return n
	}
	return "invalid"
}

// ParseTxStatus decodes the status name used by the node RPC.
func ParseTxStatus(name string) (TxStatus, error) {
	for s, n := range txStatusNames {
		if n == name {
			return s, nil
		}
	}
	return TxUnknown, errors.Wrapf(errors.ErrInput, "unknown transaction status %q", name)
}

// LiveCell is an unspent output.
type LiveCell struct {
	OutPoint OutPoint
	Output   CellOutput
	// DataLen is the size of the cell data.
	DataLen uint64
}
