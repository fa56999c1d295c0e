package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/celltest"
	"github.com/iov-one/cellkit/celltest/assert"
	"github.com/iov-one/cellkit/errors"
	"github.com/iov-one/cellkit/x/deployment"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type handlerFunc func(t testing.TB, params []json.RawMessage) (interface{}, *rpcError)

// node is a JSON-RPC server answering with registered handlers.
type node struct {
	t        testing.TB
	handlers map[string]handlerFunc

	mu    sync.Mutex
	calls []string
}

func (n *node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	n.calls = append(n.calls, req.Method)
	n.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	h, ok := n.handlers[req.Method]
	if !ok {
		resp.Error = &rpcError{Code: -32601, Message: "method not found"}
	} else {
		resp.Result, resp.Error = h(n.t, req.Params)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func startNode(t testing.TB, handlers map[string]handlerFunc) (*Client, *node) {
	n := &node{t: t, handlers: handlers}
	srv := httptest.NewServer(n)
	t.Cleanup(srv.Close)
	c, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, n
}

func sampleTransaction(t testing.TB) *cellkit.Transaction {
	lock := celltest.NewKey(t).LockScript()
	return &cellkit.Transaction{
		CellDeps: []cellkit.CellDep{{OutPoint: celltest.RandomOutPoint(t), DepType: cellkit.DepTypeDepGroup}},
		Inputs:   []cellkit.CellInput{{PreviousOutput: celltest.RandomOutPoint(t)}},
		Outputs: []cellkit.CellOutput{
			{Capacity: cellkit.CKB(61), Lock: lock},
		},
		OutputsData: [][]byte{{}},
		Witnesses:   [][]byte{{0x01, 0x02}},
	}
}

func TestSendTransaction(t *testing.T) {
	tx := sampleTransaction(t)

	cases := map[string]struct {
		Result   interface{}
		Error    *rpcError
		WantHash cellkit.Hash
		WantErr  *errors.Error
	}{
		"accepted": {
			Result:   tx.Hash().String(),
			WantHash: tx.Hash(),
		},
		"already in the pool": {
			Error:    &rpcError{Code: -1107, Message: "PoolRejectedDuplicatedTransaction: already exists"},
			WantHash: tx.Hash(),
		},
		"rejected": {
			Error:   &rpcError{Code: -302, Message: "TransactionFailedToVerify: Verification failed"},
			WantErr: errors.ErrInput,
		},
		"malformed result": {
			Result:  "0x1234",
			WantErr: deployment.ErrChainRPC,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			c, _ := startNode(t, map[string]handlerFunc{
				"send_transaction": func(t testing.TB, params []json.RawMessage) (interface{}, *rpcError) {
					require.Len(t, params, 2)
					var j cellkit.JSONTransaction
					require.NoError(t, json.Unmarshal(params[0], &j))
					got, err := j.Transaction()
					require.NoError(t, err)
					assert.Equal(t, tx.Serialize(), got.Serialize())
					assert.Equal(t, `"passthrough"`, string(params[1]))
					return tc.Result, tc.Error
				},
			})
			hash, err := c.SendTransaction(context.Background(), tx)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			assert.Equal(t, tc.WantHash, hash)
		})
	}
}

func TestTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.TransactionStatus(context.Background(), celltest.RandomHash(t))
	assert.IsErr(t, deployment.ErrChainRPC, err)

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	c, err = Dial(context.Background(), down.URL)
	require.NoError(t, err)
	defer c.Close()
	_, err = c.SendTransaction(context.Background(), sampleTransaction(t))
	assert.IsErr(t, deployment.ErrChainRPC, err)
}

func TestCanceledCall(t *testing.T) {
	c, _ := startNode(t, map[string]handlerFunc{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.TipBlockNumber(ctx)
	assert.IsErr(t, errors.ErrCanceled, err)
}

func TestTransactionStatus(t *testing.T) {
	cases := map[string]struct {
		Result  interface{}
		Want    cellkit.TxStatus
		WantErr *errors.Error
	}{
		"pending":   {Result: statusResult("pending"), Want: cellkit.TxPending},
		"proposed":  {Result: statusResult("proposed"), Want: cellkit.TxProposed},
		"committed": {Result: statusResult("committed"), Want: cellkit.TxCommitted},
		"rejected":  {Result: statusResult("rejected"), Want: cellkit.TxRejected},
		"unknown":   {Result: statusResult("unknown"), Want: cellkit.TxUnknown},
		"null":      {Result: nil, Want: cellkit.TxUnknown},
		"invalid":   {Result: statusResult("gone"), WantErr: deployment.ErrChainRPC},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			hash := celltest.RandomHash(t)
			c, _ := startNode(t, map[string]handlerFunc{
				"get_transaction": func(t testing.TB, params []json.RawMessage) (interface{}, *rpcError) {
					assert.Equal(t, fmt.Sprintf("%q", hash), string(params[0]))
					return tc.Result, nil
				},
			})
			status, err := c.TransactionStatus(context.Background(), hash)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			assert.Equal(t, tc.Want, status)
		})
	}
}

func statusResult(status string) map[string]interface{} {
	return map[string]interface{}{
		"transaction": nil,
		"tx_status": map[string]interface{}{
			"status":     status,
			"block_hash": nil,
			"reason":     nil,
		},
	}
}

func TestLiveCells(t *testing.T) {
	lock := celltest.NewKey(t).LockScript()
	var want []cellkit.LiveCell
	for i := 0; i < cellsPerPage+1; i++ {
		want = append(want, cellkit.LiveCell{
			OutPoint: cellkit.OutPoint{TxHash: celltest.RandomHash(t), Index: uint32(i)},
			Output:   cellkit.CellOutput{Capacity: cellkit.CKB(uint64(100 + i)), Lock: lock},
		})
	}
	page := func(cells []cellkit.LiveCell, cursor string) map[string]interface{} {
		objects := make([]map[string]interface{}, len(cells))
		for i, c := range cells {
			objects[i] = map[string]interface{}{
				"output": cellkit.JSONCellOutput{
					Capacity: hexutil.EncodeUint64(uint64(c.Output.Capacity)),
					Lock:     cellkit.NewJSONScript(c.Output.Lock),
				},
				"out_point":    cellkit.NewJSONOutPoint(c.OutPoint),
				"block_number": "0x10",
				"tx_index":     "0x1",
			}
		}
		return map[string]interface{}{"objects": objects, "last_cursor": cursor}
	}

	var cursors []string
	c, n := startNode(t, map[string]handlerFunc{
		"get_cells": func(t testing.TB, params []json.RawMessage) (interface{}, *rpcError) {
			require.Len(t, params, 4)
			var key searchKey
			require.NoError(t, json.Unmarshal(params[0], &key))
			assert.Equal(t, cellkit.NewJSONScript(lock), key.Script)
			assert.Equal(t, "lock", key.ScriptType)
			require.NotNil(t, key.Filter)
			assert.Equal(t, [2]string{"0x0", "0x1"}, key.Filter.OutputDataLenRange)
			assert.Equal(t, `"asc"`, string(params[1]))
			assert.Equal(t, `"0x64"`, string(params[2]))
			cursors = append(cursors, string(params[3]))
			if string(params[3]) == "null" {
				return page(want[:cellsPerPage], "0xabcd"), nil
			}
			return page(want[cellsPerPage:], "0xffff"), nil
		},
	})

	cells, err := c.LiveCells(context.Background(), lock)
	require.NoError(t, err)
	assert.Equal(t, want, cells)
	assert.Equal(t, []string{"null", `"0xabcd"`}, cursors)
	assert.Equal(t, []string{"get_cells", "get_cells"}, n.calls)
}

func TestGenesisDeps(t *testing.T) {
	second := celltest.RandomHash(t)
	c, _ := startNode(t, map[string]handlerFunc{
		"get_block_by_number": func(t testing.TB, params []json.RawMessage) (interface{}, *rpcError) {
			assert.Equal(t, `"0x0"`, string(params[0]))
			return map[string]interface{}{
				"header": map[string]interface{}{"number": "0x0"},
				"transactions": []map[string]interface{}{
					{"hash": celltest.RandomHash(t).String()},
					{"hash": second.String()},
				},
			}, nil
		},
	})
	deps, err := c.GenesisDeps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cellkit.CellDep{
		OutPoint: cellkit.OutPoint{TxHash: second, Index: 0},
		DepType:  cellkit.DepTypeDepGroup,
	}, deps.Secp256k1)
	assert.Equal(t, cellkit.OutPoint{TxHash: second, Index: 1}, deps.Multisig.OutPoint)
}

func TestTipBlockNumber(t *testing.T) {
	c, _ := startNode(t, map[string]handlerFunc{
		"get_tip_block_number": func(t testing.TB, params []json.RawMessage) (interface{}, *rpcError) {
			return "0x3e8", nil
		},
	})
	n, err := c.TipBlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), n)
}

func TestRateLimit(t *testing.T) {
	n := &node{t: t, handlers: map[string]handlerFunc{
		"get_tip_block_number": func(t testing.TB, params []json.RawMessage) (interface{}, *rpcError) {
			return "0x1", nil
		},
	}}
	srv := httptest.NewServer(n)
	defer srv.Close()

	// A single token that is never refilled within the test.
	c, err := Dial(context.Background(), srv.URL, WithRateLimit(0.001, 1))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.TipBlockNumber(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.TipBlockNumber(ctx)
	assert.IsErr(t, errors.ErrCanceled, err)
	assert.Equal(t, []string{"get_tip_block_number"}, n.calls)
}
