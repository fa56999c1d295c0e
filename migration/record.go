package migration

import (
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

// Kind tells how a record was created.
type Kind string

const (
	// KindCell is a cell created from a local artifact.
	KindCell Kind = "cell"
	// KindDepGroup is a cell holding out points of other cells.
	KindDepGroup Kind = "dep_group"
	// KindReference is a cell that existed on chain before the deployment
	// and was only referenced by it.
	KindReference Kind = "reference"
)

// Record describes where a named cell currently lives.
type Record struct {
	Name     string
	Kind     Kind
	OutPoint cellkit.OutPoint
	// DataHash is the hash of the cell data. It is used to tell if a cell
	// must be updated.
	DataHash cellkit.Hash
	// TypeID is the identity of the cell if it carries a type id script.
	TypeID   *cellkit.Hash
	Capacity cellkit.Capacity
	// Migration is the sequence number of the deployment that created the
	// record.
	Migration uint64
}

// Validate returns an error if the record is not complete.
func (r Record) Validate() error {
	var err error
	if r.Name == "" {
		err = errors.AppendField(err, "name", errors.ErrEmpty)
	}
	switch r.Kind {
	case KindCell, KindDepGroup, KindReference:
	default:
		err = errors.AppendField(err, "kind", errors.Wrapf(errors.ErrInput, "unknown kind %q", r.Kind))
	}
	if r.OutPoint.TxHash.IsZero() {
		err = errors.AppendField(err, "tx_hash", errors.Wrap(errors.ErrEmpty, "transaction hash"))
	}
	return err
}

// recordJSON is the representation of a record in the deployment file.
type recordJSON struct {
	Name      string        `json:"name"`
	Kind      Kind          `json:"kind"`
	TxHash    cellkit.Hash  `json:"tx_hash"`
	Index     uint32        `json:"index"`
	DataHash  cellkit.Hash  `json:"data_hash"`
	TypeID    *cellkit.Hash `json:"type_id,omitempty"`
	Capacity  uint64        `json:"capacity"`
	Migration uint64        `json:"migration"`
}

func newRecordJSON(r Record) recordJSON {
	return recordJSON{
		Name:      r.Name,
		Kind:      r.Kind,
		TxHash:    r.OutPoint.TxHash,
		Index:     r.OutPoint.Index,
		DataHash:  r.DataHash,
		TypeID:    r.TypeID,
		Capacity:  uint64(r.Capacity),
		Migration: r.Migration,
	}
}

func (j recordJSON) record() Record {
	return Record{
		Name:      j.Name,
		Kind:      j.Kind,
		OutPoint:  cellkit.OutPoint{TxHash: j.TxHash, Index: j.Index},
		DataHash:  j.DataHash,
		TypeID:    j.TypeID,
		Capacity:  cellkit.Capacity(j.Capacity),
		Migration: j.Migration,
	}
}
