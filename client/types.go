package client

import (
	"github.com/iov-one/cellkit"
)

// GenesisDeps are the cell dependencies of the locks deployed in the genesis
// block.
type GenesisDeps struct {
	Secp256k1 cellkit.CellDep
	Multisig  cellkit.CellDep
}

type transactionResult struct {
	TxStatus struct {
		Status    string  `json:"status"`
		BlockHash *string `json:"block_hash"`
		Reason    *string `json:"reason"`
	} `json:"tx_status"`
}

type searchKey struct {
	Script     cellkit.JSONScript `json:"script"`
	ScriptType string             `json:"script_type"`
	Filter     *searchFilter      `json:"filter,omitempty"`
	WithData   bool               `json:"with_data"`
}

type searchFilter struct {
	ScriptLenRange     [2]string `json:"script_len_range"`
	OutputDataLenRange [2]string `json:"output_data_len_range"`
}

type cellsPage struct {
	Objects    []cellObject `json:"objects"`
	LastCursor string       `json:"last_cursor"`
}

type cellObject struct {
	Output   cellkit.JSONCellOutput `json:"output"`
	OutPoint cellkit.JSONOutPoint   `json:"out_point"`
}

func (o cellObject) liveCell() (cellkit.LiveCell, error) {
	op, err := o.OutPoint.OutPoint()
	if err != nil {
		return cellkit.LiveCell{}, err
	}
	out, err := o.Output.CellOutput()
	if err != nil {
		return cellkit.LiveCell{}, err
	}
	return cellkit.LiveCell{OutPoint: op, Output: out}, nil
}

type blockResult struct {
	Transactions []struct {
		Hash string `json:"hash"`
	} `json:"transactions"`
}
