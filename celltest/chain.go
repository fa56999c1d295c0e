package celltest

import (
	"context"
	"sync"
	"testing"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

// Chain is an in memory node. Transactions are accepted into a pool when
// sent and committed when their status is queried, once ConfirmAfter queries
// were made. Committing a transaction spends its inputs and creates its
// outputs. Scripts and signatures are not verified.
type Chain struct {
	// SendErrs are returned, one per call, by SendTransaction before any
	// transaction is accepted.
	SendErrs []error
	// StatusErrs are returned, one per call, by TransactionStatus before
	// any status is reported.
	StatusErrs []error
	// ConfirmAfter is the number of status queries answered with pending
	// before a transaction is committed.
	ConfirmAfter int
	// NeverCommit keeps all transactions pending.
	NeverCommit bool

	mu         sync.Mutex
	live       []cellkit.LiveCell
	txs        map[cellkit.Hash]*poolTx
	sent       []*cellkit.Transaction
	sendCall   int
	statusCall int
}

type poolTx struct {
	tx        *cellkit.Transaction
	queries   int
	committed bool
}

// NewChain returns a chain without any cells.
func NewChain() *Chain {
	return &Chain{txs: make(map[cellkit.Hash]*poolTx)}
}

// Fund creates a plain cell of given lock and capacity and returns its out
// point.
func (c *Chain) Fund(t testing.TB, lock cellkit.Script, capacity cellkit.Capacity) cellkit.OutPoint {
	t.Helper()
	op := RandomOutPoint(t)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live = append(c.live, cellkit.LiveCell{
		OutPoint: op,
		Output:   cellkit.CellOutput{Capacity: capacity, Lock: lock},
	})
	return op
}

// SendTransaction accepts a transaction into the pool. All inputs must be
// live. Sending the same transaction again is not an error.
func (c *Chain) SendTransaction(ctx context.Context, tx *cellkit.Transaction) (cellkit.Hash, error) {
	if err := ctx.Err(); err != nil {
		return cellkit.Hash{}, errors.Wrap(errors.ErrCanceled, err.Error())
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sendCall++
	if len(c.SendErrs) > 0 {
		err := c.SendErrs[0]
		c.SendErrs = c.SendErrs[1:]
		return cellkit.Hash{}, err
	}

	hash := tx.Hash()
	if _, ok := c.txs[hash]; ok {
		return hash, nil
	}
	for i, in := range tx.Inputs {
		if c.find(in.PreviousOutput) < 0 {
			return cellkit.Hash{}, errors.Wrapf(errors.ErrInput, "input %d: %s is not live", i, in.PreviousOutput)
		}
	}
	if len(tx.Outputs) != len(tx.OutputsData) {
		return cellkit.Hash{}, errors.Wrap(errors.ErrInput, "outputs data mismatch")
	}
	c.txs[hash] = &poolTx{tx: tx.Clone()}
	c.sent = append(c.sent, tx.Clone())
	return hash, nil
}

// TransactionStatus reports the status of a transaction, committing it when
// its turn has come.
func (c *Chain) TransactionStatus(ctx context.Context, hash cellkit.Hash) (cellkit.TxStatus, error) {
	if err := ctx.Err(); err != nil {
		return cellkit.TxUnknown, errors.Wrap(errors.ErrCanceled, err.Error())
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.statusCall++
	if len(c.StatusErrs) > 0 {
		err := c.StatusErrs[0]
		c.StatusErrs = c.StatusErrs[1:]
		return cellkit.TxUnknown, err
	}

	p, ok := c.txs[hash]
	if !ok {
		return cellkit.TxUnknown, nil
	}
	if p.committed {
		return cellkit.TxCommitted, nil
	}
	p.queries++
	if c.NeverCommit || p.queries <= c.ConfirmAfter {
		return cellkit.TxPending, nil
	}
	if err := c.commit(hash, p.tx); err != nil {
		return cellkit.TxRejected, nil
	}
	p.committed = true
	return cellkit.TxCommitted, nil
}

func (c *Chain) commit(hash cellkit.Hash, tx *cellkit.Transaction) error {
	for _, in := range tx.Inputs {
		if c.find(in.PreviousOutput) < 0 {
			return errors.Wrapf(errors.ErrState, "%s already spent", in.PreviousOutput)
		}
	}
	for _, in := range tx.Inputs {
		i := c.find(in.PreviousOutput)
		c.live = append(c.live[:i], c.live[i+1:]...)
	}
	for i, out := range tx.Outputs {
		c.live = append(c.live, cellkit.LiveCell{
			OutPoint: cellkit.OutPoint{TxHash: hash, Index: uint32(i)},
			Output:   out,
			DataLen:  uint64(len(tx.OutputsData[i])),
		})
	}
	return nil
}

func (c *Chain) find(op cellkit.OutPoint) int {
	for i, cell := range c.live {
		if cell.OutPoint == op {
			return i
		}
	}
	return -1
}

// LiveCells returns all live cells of given lock, in creation order.
func (c *Chain) LiveCells(ctx context.Context, lock cellkit.Script) ([]cellkit.LiveCell, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCanceled, err.Error())
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var cells []cellkit.LiveCell
	for _, cell := range c.live {
		if cell.Output.Lock.Equal(lock) {
			cells = append(cells, cell)
		}
	}
	return cells, nil
}

// Live returns the live cell at given out point.
func (c *Chain) Live(op cellkit.OutPoint) (cellkit.LiveCell, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(op)
	if i < 0 {
		return cellkit.LiveCell{}, false
	}
	return c.live[i], true
}

// Sent returns all transactions accepted so far, in order.
func (c *Chain) Sent() []*cellkit.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*cellkit.Transaction(nil), c.sent...)
}

func (c *Chain) SendCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCall
}

func (c *Chain) StatusCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusCall
}
