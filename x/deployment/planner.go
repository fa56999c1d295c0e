package deployment

import (
	"context"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
	"github.com/iov-one/cellkit/migration"
)

// Options change how a deployment is planned.
type Options struct {
	// Migrate reuses or updates cells recorded by previous deployments
	// instead of creating new ones.
	Migrate bool
	// FeePerTx is reserved as the fee of every planned transaction.
	FeePerTx cellkit.Capacity
	// LockDeps are the cell dependencies needed to unlock the deployment
	// lock. They are added to every planned transaction.
	LockDeps []cellkit.CellDep
}

// Plan is the list of transactions needed to bring the chain in line with a
// spec. Transactions must be committed in order.
type Plan struct {
	Transactions []*PlannedTx
	// References are records of referenced cells that are not yet
	// recorded. They do not require a transaction.
	References []migration.Record
	// OutPoints is the location of every cell and dep group once all
	// transactions are committed.
	OutPoints map[string]cellkit.OutPoint
}

// PlannedTx is an unsigned transaction together with the records describing
// the cells it creates.
type PlannedTx struct {
	Tx      *cellkit.Transaction
	Records []migration.Record
}

// Planner builds deployment transactions.
type Planner struct {
	Funding   FundingSource
	Artifacts ArtifactSource
}

// Plan returns the transactions deploying the spec on top of the state
// recorded so far. A nil state is the same as an empty one. Cells are
// created or updated by the first transaction and dep groups by the second,
// which is funded by the change of the first. Transactions that would not
// create anything are left out.
func (p *Planner) Plan(ctx context.Context, spec *Spec, state *migration.State, opts Options) (*Plan, error) {
	if err := spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "spec")
	}
	if state == nil {
		state = migration.NewState()
	}
	lock, err := spec.Lock.Script()
	if err != nil {
		return nil, errors.Wrap(err, "lock")
	}
	cells, err := p.Funding.LiveCells(ctx, lock)
	if err != nil {
		return nil, errors.Wrap(err, "collect funding cells")
	}
	b, err := newBuilder(lock, spec.Lock.PlaceholderSize(), opts, cells, state)
	if err != nil {
		return nil, err
	}

	plan := &Plan{OutPoints: make(map[string]cellkit.OutPoint)}

	cellsTx := b.draft()
	for _, c := range spec.Cells {
		if op := c.Location.OutPoint; op != nil {
			plan.OutPoints[c.Name] = *op
			prev, ok := state.Get(c.Name)
			if !ok || prev.Kind != migration.KindReference || prev.OutPoint != *op {
				plan.References = append(plan.References, migration.Record{
					Name:     c.Name,
					Kind:     migration.KindReference,
					OutPoint: *op,
				})
			}
			continue
		}

		data, err := p.Artifacts.ReadArtifact(c.Location.File)
		if err != nil {
			return nil, errors.Wrapf(err, "cell %q", c.Name)
		}
		out := output{
			name:     c.Name,
			kind:     migration.KindCell,
			data:     data,
			dataHash: cellkit.Blake2b256(data),
		}
		if c.EnableTypeID {
			out.freshTypeID = true
		}
		if prev, ok := state.Get(c.Name); opts.Migrate && ok && prev.Kind == migration.KindCell {
			if prev.DataHash == out.dataHash && (prev.TypeID != nil) == c.EnableTypeID {
				plan.OutPoints[c.Name] = prev.OutPoint
				continue
			}
			if err := cellsTx.consume(prev); err != nil {
				return nil, errors.Wrapf(err, "cell %q", c.Name)
			}
			if c.EnableTypeID && prev.TypeID != nil {
				id := *prev.TypeID
				out.typeID = &id
				out.freshTypeID = false
			}
		}
		cellsTx.add(out)
	}
	if !cellsTx.empty() {
		ptx, change, err := b.finalize(cellsTx)
		if err != nil {
			return nil, errors.Wrap(err, "cells transaction")
		}
		plan.Transactions = append(plan.Transactions, ptx)
		for _, r := range ptx.Records {
			plan.OutPoints[r.Name] = r.OutPoint
		}
		if change != nil {
			b.pool = append([]cellkit.LiveCell{*change}, b.pool...)
		}
	}

	groupsTx := b.draft()
	for _, g := range spec.DepGroups {
		members := make([]cellkit.OutPoint, len(g.Cells))
		for i, name := range g.Cells {
			op, ok := plan.OutPoints[name]
			if !ok {
				return nil, errors.Wrapf(ErrUnresolvedReference, "dep group %q: no cell named %q", g.Name, name)
			}
			members[i] = op
		}
		data := cellkit.SerializeOutPoints(members)
		out := output{
			name:     g.Name,
			kind:     migration.KindDepGroup,
			data:     data,
			dataHash: cellkit.Blake2b256(data),
		}
		if prev, ok := state.Get(g.Name); opts.Migrate && ok && prev.Kind == migration.KindDepGroup {
			if prev.DataHash == out.dataHash {
				plan.OutPoints[g.Name] = prev.OutPoint
				continue
			}
			if err := groupsTx.consume(prev); err != nil {
				return nil, errors.Wrapf(err, "dep group %q", g.Name)
			}
		}
		groupsTx.add(out)
	}
	if !groupsTx.empty() {
		ptx, _, err := b.finalize(groupsTx)
		if err != nil {
			return nil, errors.Wrap(err, "dep groups transaction")
		}
		plan.Transactions = append(plan.Transactions, ptx)
		for _, r := range ptx.Records {
			plan.OutPoints[r.Name] = r.OutPoint
		}
	}
	return plan, nil
}

// builder assembles transactions spending cells of the deployment lock.
type builder struct {
	lock        cellkit.Script
	placeholder int
	fee         cellkit.Capacity
	deps        []cellkit.CellDep
	minChange   cellkit.Capacity
	// pool holds the funding cells not spent yet, in the order they are
	// used.
	pool []cellkit.LiveCell
}

// newBuilder returns a builder funded by given live cells. Cells recorded by
// the state are never used as funding, even when they carry no data.
func newBuilder(lock cellkit.Script, placeholder int, opts Options, cells []cellkit.LiveCell, state *migration.State) (*builder, error) {
	minChange, err := cellkit.OccupiedCapacity(cellkit.CellOutput{Lock: lock}, nil)
	if err != nil {
		return nil, err
	}
	b := &builder{
		lock:        lock,
		placeholder: placeholder,
		fee:         opts.FeePerTx,
		deps:        opts.LockDeps,
		minChange:   minChange,
	}
	recorded := make(map[cellkit.OutPoint]struct{})
	for _, r := range state.Records() {
		recorded[r.OutPoint] = struct{}{}
	}
	for _, c := range cells {
		if c.Output.Type != nil || c.DataLen != 0 {
			continue
		}
		if _, ok := recorded[c.OutPoint]; ok {
			continue
		}
		b.pool = append(b.pool, c)
	}
	return b, nil
}

// output is a cell created by a planned transaction.
type output struct {
	name     string
	kind     migration.Kind
	data     []byte
	dataHash cellkit.Hash
	// typeID is set for cells keeping their identity.
	typeID *cellkit.Hash
	// freshTypeID is set for cells getting a new identity, computed once
	// the inputs are known.
	freshTypeID bool
}

type draft struct {
	tx      *cellkit.Transaction
	outputs []output
	have    cellkit.Capacity
}

func (b *builder) draft() *draft {
	return &draft{
		tx: &cellkit.Transaction{
			CellDeps: append([]cellkit.CellDep(nil), b.deps...),
		},
	}
}

func (d *draft) empty() bool {
	return len(d.outputs) == 0
}

// consume spends a previously deployed cell so that its capacity can be
// reused.
func (d *draft) consume(prev migration.Record) error {
	return d.spend(prev.OutPoint, prev.Capacity)
}

func (d *draft) spend(op cellkit.OutPoint, c cellkit.Capacity) error {
	have, err := d.have.Add(c)
	if err != nil {
		return err
	}
	d.have = have
	d.tx.Inputs = append(d.tx.Inputs, cellkit.CellInput{PreviousOutput: op})
	return nil
}

func (d *draft) add(out output) {
	o := cellkit.CellOutput{}
	switch {
	case out.typeID != nil:
		t := cellkit.TypeIDScript(*out.typeID)
		o.Type = &t
	case out.freshTypeID:
		// Same size as the final script, so the capacity does not change.
		t := cellkit.TypeIDScript(cellkit.Hash{})
		o.Type = &t
	}
	d.outputs = append(d.outputs, out)
	d.tx.Outputs = append(d.tx.Outputs, o)
	d.tx.OutputsData = append(d.tx.OutputsData, out.data)
}

// finalize sets the lock and capacity of all outputs, collects funding,
// computes type ids and returns the transaction with the records of the
// cells it creates. The change cell is returned if there is one.
func (b *builder) finalize(d *draft) (*PlannedTx, *cellkit.LiveCell, error) {
	need := b.fee
	for i := range d.tx.Outputs {
		out := &d.tx.Outputs[i]
		out.Lock = b.lock
		c, err := cellkit.OccupiedCapacity(*out, d.tx.OutputsData[i])
		if err != nil {
			return nil, nil, err
		}
		out.Capacity = c
		if need, err = need.Add(c); err != nil {
			return nil, nil, err
		}
	}

	change, err := b.balance(d, need)
	if err != nil {
		return nil, nil, err
	}

	for i, out := range d.outputs {
		if out.freshTypeID {
			id := cellkit.TypeIDArgs(d.tx.Inputs[0], uint64(i))
			t := cellkit.TypeIDScript(id)
			d.tx.Outputs[i].Type = &t
		}
	}

	d.tx.Witnesses = make([][]byte, len(d.tx.Inputs))
	d.tx.Witnesses[0] = cellkit.WitnessArgs{Lock: make([]byte, b.placeholder)}.Serialize()
	for i := 1; i < len(d.tx.Witnesses); i++ {
		d.tx.Witnesses[i] = []byte{}
	}

	hash := d.tx.Hash()
	ptx := &PlannedTx{Tx: d.tx}
	for i, out := range d.outputs {
		r := migration.Record{
			Name:     out.name,
			Kind:     out.kind,
			OutPoint: cellkit.OutPoint{TxHash: hash, Index: uint32(i)},
			DataHash: out.dataHash,
			Capacity: d.tx.Outputs[i].Capacity,
		}
		if t := d.tx.Outputs[i].Type; t != nil {
			id, err := cellkit.TypeIDOf(t)
			if err != nil {
				return nil, nil, err
			}
			r.TypeID = &id
		}
		ptx.Records = append(ptx.Records, r)
	}

	var changeCell *cellkit.LiveCell
	if change > 0 {
		idx := len(d.tx.Outputs) - 1
		changeCell = &cellkit.LiveCell{
			OutPoint: cellkit.OutPoint{TxHash: hash, Index: uint32(idx)},
			Output:   d.tx.Outputs[idx],
		}
	}
	return ptx, changeCell, nil
}

// balance spends funding cells until the inputs cover need. The surplus
// goes to a change output of the deployment lock. A surplus too small to
// pay for its own cell is not left as fee, more funding is collected
// instead. The change capacity is returned.
func (b *builder) balance(d *draft, need cellkit.Capacity) (cellkit.Capacity, error) {
	for {
		if d.have >= need {
			change := d.have - need
			if change == 0 {
				return 0, nil
			}
			if change >= b.minChange {
				d.tx.Outputs = append(d.tx.Outputs, cellkit.CellOutput{
					Capacity: change,
					Lock:     b.lock,
				})
				d.tx.OutputsData = append(d.tx.OutputsData, []byte{})
				return change, nil
			}
		}
		if len(b.pool) == 0 {
			return 0, errors.Wrapf(ErrInsufficientCapacity, "need %s CKB more", b.shortfall(d.have, need))
		}
		cell := b.pool[0]
		b.pool = b.pool[1:]
		if err := d.spend(cell.OutPoint, cell.Output.Capacity); err != nil {
			return 0, err
		}
	}
}

func (b *builder) shortfall(have, need cellkit.Capacity) cellkit.Capacity {
	if have < need {
		return need - have
	}
	// Enough to cover need, but the change cannot exist.
	return need + b.minChange - have
}
