package deployment

import (
	"bytes"
	"io/ioutil"
	"strconv"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/crypto"
	"github.com/iov-one/cellkit/errors"
	"github.com/iov-one/cellkit/x/multisig"
	"github.com/pelletier/go-toml"
)

// Spec describes what a deployment puts on chain.
type Spec struct {
	Lock      Lock
	Cells     []Cell
	DepGroups []DepGroup
}

// Lock is the authority owning all deployed cells. Exactly one of the
// fields is set.
type Lock struct {
	Raw      *cellkit.Script
	Multisig *multisig.Lock
}

// Validate returns an error unless exactly one lock variant is set.
func (l Lock) Validate() error {
	switch {
	case l.Raw == nil && l.Multisig == nil:
		return errors.Wrap(errors.ErrEmpty, "lock must be raw or multisig")
	case l.Raw != nil && l.Multisig != nil:
		return errors.Wrap(errors.ErrInput, "lock must be either raw or multisig, not both")
	case l.Multisig != nil:
		return l.Multisig.Policy.Validate()
	}
	return nil
}

// Script returns the lock script of all deployed cells.
func (l Lock) Script() (cellkit.Script, error) {
	if err := l.Validate(); err != nil {
		return cellkit.Script{}, err
	}
	if l.Multisig != nil {
		return l.Multisig.Script()
	}
	return *l.Raw, nil
}

// PlaceholderSize returns the size of the witness lock field reserved in
// unsigned transactions.
func (l Lock) PlaceholderSize() int {
	if l.Multisig != nil {
		return multisig.PlaceholderSize(l.Multisig.Policy)
	}
	return crypto.SignatureLength
}

// Cell is a named script or data blob.
type Cell struct {
	Name     string
	Location Location
	// EnableTypeID attaches a type id script to the cell so that its type
	// script hash survives updates.
	EnableTypeID bool
}

// Location tells where the content of a cell comes from. Exactly one of the
// fields is set. A cell with an OutPoint already exists on chain and is only
// referenced. A cell with a File is created from a local artifact.
type Location struct {
	OutPoint *cellkit.OutPoint
	File     string
}

// Validate returns an error unless exactly one location variant is set.
func (l Location) Validate() error {
	switch {
	case l.OutPoint == nil && l.File == "":
		return errors.Wrap(errors.ErrEmpty, "location must be a file or an out point")
	case l.OutPoint != nil && l.File != "":
		return errors.Wrap(errors.ErrInput, "location must be either a file or an out point, not both")
	}
	return nil
}

// DepGroup is a cell listing the out points of other cells, so that they can
// be used as dependencies together.
type DepGroup struct {
	Name  string
	Cells []string
}

// Validate checks the whole spec. All problems found are returned together.
func (s *Spec) Validate() error {
	var err error
	if e := s.Lock.Validate(); e != nil {
		err = errors.AppendField(err, "lock", e)
	}
	if len(s.Cells) == 0 && len(s.DepGroups) == 0 {
		err = errors.Append(err, errors.Wrap(errors.ErrEmpty, "nothing to deploy"))
	}

	names := make(map[string]bool)
	cells := make(map[string]bool)
	for i, c := range s.Cells {
		field := "cells." + strconv.Itoa(i)
		if c.Name == "" {
			err = errors.AppendField(err, field+".name", errors.ErrEmpty)
		} else if names[c.Name] {
			err = errors.AppendField(err, field+".name", errors.Wrapf(errors.ErrDuplicate, "%q", c.Name))
		}
		names[c.Name] = true
		cells[c.Name] = true
		if e := c.Location.Validate(); e != nil {
			err = errors.AppendField(err, field+".location", e)
		} else if c.EnableTypeID && c.Location.OutPoint != nil {
			err = errors.AppendField(err, field+".enable_type_id",
				errors.Wrap(errors.ErrInput, "a referenced cell cannot get a type id"))
		}
	}
	for i, g := range s.DepGroups {
		field := "dep_groups." + strconv.Itoa(i)
		if g.Name == "" {
			err = errors.AppendField(err, field+".name", errors.ErrEmpty)
		} else if names[g.Name] {
			err = errors.AppendField(err, field+".name", errors.Wrapf(errors.ErrDuplicate, "%q", g.Name))
		}
		names[g.Name] = true
		if len(g.Cells) == 0 {
			err = errors.AppendField(err, field+".cells", errors.ErrEmpty)
		}
		members := make(map[string]bool, len(g.Cells))
		for _, m := range g.Cells {
			if !cells[m] {
				err = errors.AppendField(err, field+".cells", errors.Wrapf(ErrUnresolvedReference, "no cell named %q", m))
			}
			if members[m] {
				err = errors.AppendField(err, field+".cells", errors.Wrapf(errors.ErrDuplicate, "%q", m))
			}
			members[m] = true
		}
	}
	return err
}

// specFile is the TOML representation of a spec.
type specFile struct {
	Lock      lockFile       `toml:"lock"`
	Cells     []cellFile     `toml:"cells"`
	DepGroups []depGroupFile `toml:"dep_groups"`
}

type lockFile struct {
	Raw      *cellkit.JSONScript   `toml:"raw"`
	Multisig *multisig.LockConfig `toml:"multisig"`
}

type cellFile struct {
	Name         string       `toml:"name"`
	EnableTypeID bool         `toml:"enable_type_id"`
	Location     locationFile `toml:"location"`
}

type locationFile struct {
	File   string `toml:"file"`
	TxHash string `toml:"tx_hash"`
	Index  int64  `toml:"index"`
}

type depGroupFile struct {
	Name  string   `toml:"name"`
	Cells []string `toml:"cells"`
}

// ParseSpec decodes and validates a TOML spec document. Unknown keys are
// rejected.
func ParseSpec(raw []byte) (*Spec, error) {
	var f specFile
	if err := toml.NewDecoder(bytes.NewReader(raw)).Strict(true).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}

	var (
		spec Spec
		err  error
	)
	if f.Lock.Raw != nil {
		s, e := f.Lock.Raw.Script()
		if e != nil {
			err = errors.AppendField(err, "lock.raw", e)
		} else {
			spec.Lock.Raw = &s
		}
	}
	if f.Lock.Multisig != nil {
		l, e := f.Lock.Multisig.Lock()
		if e != nil {
			err = errors.AppendField(err, "lock.multisig", e)
		} else {
			spec.Lock.Multisig = &l
		}
	}
	for i, c := range f.Cells {
		loc, e := c.Location.location()
		if e != nil {
			err = errors.AppendField(err, "cells."+strconv.Itoa(i)+".location", e)
		}
		spec.Cells = append(spec.Cells, Cell{
			Name:         c.Name,
			Location:     loc,
			EnableTypeID: c.EnableTypeID,
		})
	}
	for _, g := range f.DepGroups {
		spec.DepGroups = append(spec.DepGroups, DepGroup{Name: g.Name, Cells: g.Cells})
	}
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (l locationFile) location() (Location, error) {
	if l.TxHash == "" {
		if l.Index != 0 {
			return Location{}, errors.Wrap(errors.ErrInput, "index without tx_hash")
		}
		return Location{File: l.File}, nil
	}
	if l.File != "" {
		return Location{}, errors.Wrap(errors.ErrInput, "location must be either a file or an out point, not both")
	}
	h, err := cellkit.ParseHash(l.TxHash)
	if err != nil {
		return Location{}, errors.Field("tx_hash", err, "invalid transaction hash")
	}
	if l.Index < 0 || l.Index > 0xffffffff {
		return Location{}, errors.Field("index", errors.ErrOverflow, "%d is not a valid index", l.Index)
	}
	return Location{OutPoint: &cellkit.OutPoint{TxHash: h, Index: uint32(l.Index)}}, nil
}

// LoadSpec reads a spec from given file.
func LoadSpec(path string) (*Spec, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "read %q: %s", path, err)
	}
	spec, err := ParseSpec(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "spec %q", path)
	}
	return spec, nil
}
