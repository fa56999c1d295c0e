package client

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
	"github.com/iov-one/cellkit/x/deployment"
	"golang.org/x/time/rate"
)

// cellsPerPage is the page size used when listing live cells.
const cellsPerPage = 100

// Error code returned by the node when a transaction is already in the pool.
const codeDuplicatedTransaction = -1107

// Client is a node JSON-RPC client wrapped to provide access to the data
// needed for deployments.
type Client struct {
	conn    *rpc.Client
	limiter *rate.Limiter
}

var (
	_ deployment.Chain         = (*Client)(nil)
	_ deployment.FundingSource = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithRateLimit bounds the number of requests sent to the node per second.
// Public nodes throttle clients that page through many cells or poll
// aggressively.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient wraps a Client around an existing connection.
func NewClient(conn *rpc.Client, opts ...Option) *Client {
	c := &Client{conn: conn}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial connects to the node at given URL.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	conn, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(deployment.ErrChainRPC, "dial %q: %s", url, err)
	}
	return NewClient(conn, opts...), nil
}

// Close releases the connection.
func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrapf(errors.ErrCanceled, "%s: %s", method, err)
		}
	}
	err := c.conn.CallContext(ctx, result, method, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return errors.Wrapf(errors.ErrCanceled, "%s: %s", method, ctx.Err())
	}
	// An error response means the node understood and refused the request,
	// anything else is a transport failure that can be retried.
	if e, ok := err.(rpc.Error); ok {
		return &nodeError{
			code: e.ErrorCode(),
			err:  errors.Wrapf(errors.ErrInput, "%s: %s (code %d)", method, e.Error(), e.ErrorCode()),
		}
	}
	return errors.Wrapf(deployment.ErrChainRPC, "%s: %s", method, err)
}

// nodeError is a request refused by the node.
type nodeError struct {
	code int
	err  error
}

func (e *nodeError) Error() string { return e.err.Error() }
func (e *nodeError) Cause() error  { return e.err }

// SendTransaction submits a signed transaction. A transaction that is
// already in the pool is not an error.
func (c *Client) SendTransaction(ctx context.Context, tx *cellkit.Transaction) (cellkit.Hash, error) {
	j := cellkit.NewJSONTransaction(tx)
	j.Hash = ""
	var res string
	err := c.call(ctx, &res, "send_transaction", j, "passthrough")
	if err != nil {
		if isDuplicated(err) {
			return tx.Hash(), nil
		}
		return cellkit.Hash{}, err
	}
	hash, err := cellkit.ParseHash(res)
	if err != nil {
		return cellkit.Hash{}, errors.Wrapf(deployment.ErrChainRPC, "send_transaction result: %s", err)
	}
	return hash, nil
}

func isDuplicated(err error) bool {
	e, ok := err.(*nodeError)
	if !ok {
		return false
	}
	return e.code == codeDuplicatedTransaction || strings.Contains(e.Error(), "Duplicated")
}

// TransactionStatus returns the pool or chain status of a transaction.
func (c *Client) TransactionStatus(ctx context.Context, hash cellkit.Hash) (cellkit.TxStatus, error) {
	var res *transactionResult
	if err := c.call(ctx, &res, "get_transaction", hash.String()); err != nil {
		return cellkit.TxUnknown, err
	}
	if res == nil {
		return cellkit.TxUnknown, nil
	}
	status, err := cellkit.ParseTxStatus(res.TxStatus.Status)
	if err != nil {
		return cellkit.TxUnknown, errors.Wrapf(deployment.ErrChainRPC, "get_transaction result: %s", err)
	}
	return status, nil
}

// LiveCells returns all live cells of given lock that carry no type script
// and no data.
func (c *Client) LiveCells(ctx context.Context, lock cellkit.Script) ([]cellkit.LiveCell, error) {
	key := searchKey{
		Script:     cellkit.NewJSONScript(lock),
		ScriptType: "lock",
		Filter: &searchFilter{
			ScriptLenRange:     [2]string{"0x0", "0x1"},
			OutputDataLenRange: [2]string{"0x0", "0x1"},
		},
		WithData: false,
	}
	var (
		cells  []cellkit.LiveCell
		cursor *string
	)
	for {
		var page cellsPage
		if err := c.call(ctx, &page, "get_cells", key, "asc", hexutil.EncodeUint64(cellsPerPage), cursor); err != nil {
			return nil, err
		}
		for i, o := range page.Objects {
			cell, err := o.liveCell()
			if err != nil {
				return nil, errors.Wrapf(deployment.ErrChainRPC, "get_cells object %d: %s", i, err)
			}
			cells = append(cells, cell)
		}
		if len(page.Objects) < cellsPerPage || page.LastCursor == "" {
			return cells, nil
		}
		next := page.LastCursor
		cursor = &next
	}
}

// GenesisDeps returns the dependencies needed to unlock the default locks.
// They are dep groups created by the second transaction of the genesis
// block.
func (c *Client) GenesisDeps(ctx context.Context) (*GenesisDeps, error) {
	var block *blockResult
	if err := c.call(ctx, &block, "get_block_by_number", hexutil.EncodeUint64(0)); err != nil {
		return nil, err
	}
	if block == nil || len(block.Transactions) < 2 {
		return nil, errors.Wrap(errors.ErrNotFound, "genesis dep groups")
	}
	hash, err := cellkit.ParseHash(block.Transactions[1].Hash)
	if err != nil {
		return nil, errors.Wrapf(deployment.ErrChainRPC, "genesis transaction hash: %s", err)
	}
	return &GenesisDeps{
		Secp256k1: cellkit.CellDep{
			OutPoint: cellkit.OutPoint{TxHash: hash, Index: 0},
			DepType:  cellkit.DepTypeDepGroup,
		},
		Multisig: cellkit.CellDep{
			OutPoint: cellkit.OutPoint{TxHash: hash, Index: 1},
			DepType:  cellkit.DepTypeDepGroup,
		},
	}, nil
}

// TipBlockNumber returns the height of the chain.
func (c *Client) TipBlockNumber(ctx context.Context) (uint64, error) {
	var res string
	if err := c.call(ctx, &res, "get_tip_block_number"); err != nil {
		return 0, err
	}
	n, err := hexutil.DecodeUint64(res)
	if err != nil {
		return 0, errors.Wrapf(deployment.ErrChainRPC, "get_tip_block_number result: %s", err)
	}
	return n, nil
}
