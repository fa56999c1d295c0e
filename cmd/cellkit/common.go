package main

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// writeTx writes the binary serialized transaction. The serialization starts
// with the total size of the transaction, which allows to stream many
// transactions.
func writeTx(w io.Writer, tx *cellkit.Transaction) (int, error) {
	return w.Write(tx.Serialize())
}

// readTx reads a single transaction written by writeTx.
func readTx(r io.Reader) (*cellkit.Transaction, int, error) {
	var size [txHeaderSize]byte
	if n, err := io.ReadFull(r, size[:]); err != nil {
		return nil, n, err
	}
	total := binary.LittleEndian.Uint32(size[:])
	if total < txHeaderSize || total > maxTxSize {
		return nil, txHeaderSize, errors.Wrapf(errors.ErrInput, "invalid transaction size %d", total)
	}
	raw := make([]byte, total)
	copy(raw, size[:])
	if n, err := io.ReadFull(r, raw[txHeaderSize:]); err != nil {
		return nil, n + txHeaderSize, err
	}
	tx, err := cellkit.DecodeTransaction(raw)
	if err != nil {
		return nil, int(total), err
	}
	return tx, int(total), nil
}

const (
	txHeaderSize = 4
	// maxTxSize is the block size limit of the chain. No transaction can be
	// bigger.
	maxTxSize = 597000
)

// newLogger returns the logger used by long running commands. Log lines are
// written to stderr so that the output can be piped.
func newLogger(debug bool) log.Logger {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr))
	if debug {
		return logger
	}
	return log.NewFilter(logger, log.AllowInfo())
}

// addressPrefix returns the address prefix of the selected network.
func addressPrefix(testnet bool) string {
	if testnet {
		return cellkit.TestnetPrefix
	}
	return cellkit.MainnetPrefix
}
