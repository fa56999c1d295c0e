package deployment

import (
	"context"
	"io/ioutil"
	"path/filepath"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

// Chain is a node accepting transactions.
type Chain interface {
	// SendTransaction submits a signed transaction to the pool and returns
	// its hash.
	SendTransaction(ctx context.Context, tx *cellkit.Transaction) (cellkit.Hash, error)
	// TransactionStatus returns what the node knows about a transaction.
	TransactionStatus(ctx context.Context, hash cellkit.Hash) (cellkit.TxStatus, error)
}

// Signer unlocks the inputs of a transaction. The returned transaction must
// differ from the given one only in witnesses.
type Signer interface {
	SignTransaction(ctx context.Context, tx *cellkit.Transaction) (*cellkit.Transaction, error)
}

// FundingSource lists cells that can pay for a deployment. Only cells
// without a type script and without data are expected.
type FundingSource interface {
	LiveCells(ctx context.Context, lock cellkit.Script) ([]cellkit.LiveCell, error)
}

// ArtifactSource provides the content of cells created from files.
type ArtifactSource interface {
	ReadArtifact(path string) ([]byte, error)
}

// FileArtifacts reads artifacts from the file system. Relative paths are
// resolved against Dir.
type FileArtifacts struct {
	Dir string
}

var _ ArtifactSource = FileArtifacts{}

func (f FileArtifacts) ReadArtifact(path string) ([]byte, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Dir, path)
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "artifact %q: %s", path, err)
	}
	return raw, nil
}
