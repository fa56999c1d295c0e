package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/celltest"
)

// genesisHash is the hash of the genesis transaction creating default lock
// dep groups on the test node.
var genesisHash = cellkit.Blake2b256([]byte("genesis dep groups"))

// startNode returns a JSON-RPC server that serves the in memory chain.
func startNode(t testing.TB, chain *celltest.Chain) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(&node{t: t, chain: chain})
	t.Cleanup(srv.Close)
	return srv
}

type node struct {
	t     testing.TB
	chain *celltest.Chain
}

type nodeRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type nodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type nodeResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *nodeError      `json:"error,omitempty"`
}

func (n *node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := nodeResponse{JSONRPC: "2.0", ID: req.ID}
	result, err := n.handle(r, req)
	if err != nil {
		resp.Error = &nodeError{Code: -302, Message: err.Error()}
	} else {
		resp.Result = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *node) handle(r *http.Request, req nodeRequest) (interface{}, error) {
	ctx := r.Context()
	switch req.Method {
	case "send_transaction":
		var j cellkit.JSONTransaction
		if err := json.Unmarshal(req.Params[0], &j); err != nil {
			return nil, err
		}
		tx, err := j.Transaction()
		if err != nil {
			return nil, err
		}
		hash, err := n.chain.SendTransaction(ctx, tx)
		if err != nil {
			return nil, err
		}
		return hash.String(), nil
	case "get_transaction":
		var raw string
		if err := json.Unmarshal(req.Params[0], &raw); err != nil {
			return nil, err
		}
		hash, err := cellkit.ParseHash(raw)
		if err != nil {
			return nil, err
		}
		status, err := n.chain.TransactionStatus(ctx, hash)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"transaction": nil,
			"tx_status":   map[string]interface{}{"status": status.String()},
		}, nil
	case "get_cells":
		var key struct {
			Script cellkit.JSONScript `json:"script"`
		}
		if err := json.Unmarshal(req.Params[0], &key); err != nil {
			return nil, err
		}
		lock, err := key.Script.Script()
		if err != nil {
			return nil, err
		}
		cells, err := n.chain.LiveCells(ctx, lock)
		if err != nil {
			return nil, err
		}
		objects := []map[string]interface{}{}
		for _, c := range cells {
			if c.Output.Type != nil || c.DataLen > 0 {
				continue
			}
			objects = append(objects, map[string]interface{}{
				"output": cellkit.JSONCellOutput{
					Capacity: hexutil.EncodeUint64(uint64(c.Output.Capacity)),
					Lock:     cellkit.NewJSONScript(c.Output.Lock),
				},
				"out_point": cellkit.NewJSONOutPoint(c.OutPoint),
			})
		}
		return map[string]interface{}{"objects": objects, "last_cursor": "0x"}, nil
	case "get_block_by_number":
		return map[string]interface{}{
			"transactions": []map[string]interface{}{
				{"hash": cellkit.Blake2b256([]byte("cellbase")).String()},
				{"hash": genesisHash.String()},
			},
		}, nil
	}
	n.t.Errorf("unexpected node call %q", req.Method)
	return nil, &unknownMethod{req.Method}
}

type unknownMethod struct{ name string }

func (e *unknownMethod) Error() string { return "unknown method " + e.name }
