package cellkit

import (
	"bytes"
	"fmt"

	"github.com/iov-one/cellkit/errors"
)

// ScriptHashType declares how a script code hash is matched against cell
// dependencies.
type ScriptHashType byte

const (
	HashTypeData  ScriptHashType = 0
	HashTypeType  ScriptHashType = 1
	HashTypeData1 ScriptHashType = 2
	HashTypeData2 ScriptHashType = 4
)

var hashTypeNames = map[ScriptHashType]string{
	HashTypeData:  "data",
	HashTypeType:  "type",
	HashTypeData1: "data1",
	HashTypeData2: "data2",
}

func (t ScriptHashType) String() string {
	if n, ok := hashTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("ScriptHashType(%d)", byte(t))
}

// ParseScriptHashType returns the hash type of given name.
func ParseScriptHashType(name string) (ScriptHashType, error) {
	for t, n := range hashTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrInput, "unknown script hash type %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t ScriptHashType) MarshalText() ([]byte, error) {
	if _, ok := hashTypeNames[t]; !ok {
		return nil, errors.Wrapf(errors.ErrInput, "unknown script hash type %d", byte(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ScriptHashType) UnmarshalText(raw []byte) error {
	v, err := ParseScriptHashType(string(raw))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Script is a predicate attached to a cell, either as a lock or as a type.
type Script struct {
	CodeHash Hash
	HashType ScriptHashType
	Args     []byte
}

// Serialize returns the binary representation of the script.
func (s Script) Serialize() []byte {
	return packTable([][]byte{
		s.CodeHash[:],
		{byte(s.HashType)},
		packBytes(s.Args),
	})
}

// Hash returns the script hash, also used as the script identity.
func (s Script) Hash() Hash {
	return Blake2b256(s.Serialize())
}

// OccupiedBytes returns how many bytes this script takes when stored in a
// cell.
func (s Script) OccupiedBytes() uint64 {
	return HashLength + 1 + uint64(len(s.Args))
}

// Equal returns true if both scripts are the same.
func (s Script) Equal(o Script) bool {
	return s.CodeHash == o.CodeHash && s.HashType == o.HashType && bytes.Equal(s.Args, o.Args)
}

func (s Script) clone() Script {
	s.Args = cloneBytes(s.Args)
	return s
}

func decodeScript(raw []byte) (Script, error) {
	var s Script
	fields, err := unpackTable(raw, 3)
	if err != nil {
		return s, errors.Wrap(err, "script")
	}
	if len(fields[0]) != HashLength || len(fields[1]) != 1 {
		return s, errors.Wrap(errors.ErrInput, "script fields size")
	}
	copy(s.CodeHash[:], fields[0])
	s.HashType = ScriptHashType(fields[1][0])
	if s.Args, err = unpackBytes(fields[2]); err != nil {
		return s, errors.Wrap(err, "script args")
	}
	return s, nil
}

// OutPoint references a single cell: the transaction that created it and the
// output index within that transaction.
type OutPoint struct {
	TxHash Hash
	Index  uint32
}

const outPointSize = HashLength + 4

// Serialize returns the binary representation of the out point.
func (o OutPoint) Serialize() []byte {
	out := make([]byte, 0, outPointSize)
	out = append(out, o.TxHash[:]...)
	return append(out, packUint32(o.Index)...)
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxHash, o.Index)
}

func decodeOutPoint(raw []byte) (OutPoint, error) {
	var o OutPoint
	if len(raw) != outPointSize {
		return o, errors.Wrapf(errors.ErrInput, "out point must be %d bytes", outPointSize)
	}
	copy(o.TxHash[:], raw)
	o.Index, _ = readUint32(raw[HashLength:])
	return o, nil
}

// SerializeOutPoints returns the binary representation of an out point
// vector. This is the content of a dep group cell.
func SerializeOutPoints(ops []OutPoint) []byte {
	items := make([][]byte, len(ops))
	for i, o := range ops {
		items[i] = o.Serialize()
	}
	return packFixVec(items)
}

// DecodeOutPoints is the reverse of SerializeOutPoints.
func DecodeOutPoints(raw []byte) ([]OutPoint, error) {
	items, err := unpackFixVec(raw, outPointSize)
	if err != nil {
		return nil, errors.Wrap(err, "out point vector")
	}
	ops := make([]OutPoint, len(items))
	for i, it := range items {
		if ops[i], err = decodeOutPoint(it); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

// CellInput spends a live cell.
type CellInput struct {
	Since          uint64
	PreviousOutput OutPoint
}

const cellInputSize = 8 + outPointSize

// Serialize returns the binary representation of the input.
func (c CellInput) Serialize() []byte {
	out := make([]byte, 0, cellInputSize)
	out = append(out, packUint64(c.Since)...)
	return append(out, c.PreviousOutput.Serialize()...)
}

func decodeCellInput(raw []byte) (CellInput, error) {
	var c CellInput
	if len(raw) != cellInputSize {
		return c, errors.Wrapf(errors.ErrInput, "cell input must be %d bytes", cellInputSize)
	}
	c.Since = readUint64(raw)
	op, err := decodeOutPoint(raw[8:])
	c.PreviousOutput = op
	return c, err
}

// CellOutput describes a cell created by a transaction. Cell data is kept
// separately in the transaction.
type CellOutput struct {
	Capacity Capacity
	Lock     Script
	Type     *Script
}

// Serialize returns the binary representation of the output.
func (c CellOutput) Serialize() []byte {
	var typ []byte
	if c.Type != nil {
		typ = c.Type.Serialize()
	}
	return packTable([][]byte{
		packUint64(uint64(c.Capacity)),
		c.Lock.Serialize(),
		typ,
	})
}

func (c CellOutput) clone() CellOutput {
	c.Lock = c.Lock.clone()
	if c.Type != nil {
		t := c.Type.clone()
		c.Type = &t
	}
	return c
}

func decodeCellOutput(raw []byte) (CellOutput, error) {
	var c CellOutput
	fields, err := unpackTable(raw, 3)
	if err != nil {
		return c, errors.Wrap(err, "cell output")
	}
	if len(fields[0]) != 8 {
		return c, errors.Wrap(errors.ErrInput, "capacity must be 8 bytes")
	}
	c.Capacity = Capacity(readUint64(fields[0]))
	if c.Lock, err = decodeScript(fields[1]); err != nil {
		return c, errors.Wrap(err, "lock")
	}
	if len(fields[2]) != 0 {
		t, err := decodeScript(fields[2])
		if err != nil {
			return c, errors.Wrap(err, "type")
		}
		c.Type = &t
	}
	return c, nil
}

// DepType declares how a cell dependency is loaded.
type DepType byte

const (
	DepTypeCode     DepType = 0
	DepTypeDepGroup DepType = 1
)

func (t DepType) String() string {
	switch t {
	case DepTypeCode:
		return "code"
	case DepTypeDepGroup:
		return "dep_group"
	default:
		return fmt.Sprintf("DepType(%d)", byte(t))
	}
}

// ParseDepType returns the dependency type of given name.
func ParseDepType(name string) (DepType, error) {
	switch name {
	case "code":
		return DepTypeCode, nil
	case "dep_group":
		return DepTypeDepGroup, nil
	default:
		return 0, errors.Wrapf(errors.ErrInput, "unknown dep type %q", name)
	}
}

// CellDep makes the content of a cell available to scripts of a transaction.
type CellDep struct {
	OutPoint OutPoint
	DepType  DepType
}

const cellDepSize = outPointSize + 1

// Serialize returns the binary representation of the cell dependency.
func (c CellDep) Serialize() []byte {
	return append(c.OutPoint.Serialize(), byte(c.DepType))
}

func decodeCellDep(raw []byte) (CellDep, error) {
	var c CellDep
	if len(raw) != cellDepSize {
		return c, errors.Wrapf(errors.ErrInput, "cell dep must be %d bytes", cellDepSize)
	}
	op, err := decodeOutPoint(raw[:outPointSize])
	if err != nil {
		return c, err
	}
	c.OutPoint = op
	c.DepType = DepType(raw[outPointSize])
	return c, nil
}

// Transaction is a ledger transaction. Witnesses are not part of the
// transaction hash.
type Transaction struct {
	Version     uint32
	CellDeps    []CellDep
	HeaderDeps  []Hash
	Inputs      []CellInput
	Outputs     []CellOutput
	OutputsData [][]byte
	Witnesses   [][]byte
}

// SerializeRaw returns the binary representation of the transaction without
// witnesses.
func (tx *Transaction) SerializeRaw() []byte {
	deps := make([][]byte, len(tx.CellDeps))
	for i, d := range tx.CellDeps {
		deps[i] = d.Serialize()
	}
	headers := make([][]byte, len(tx.HeaderDeps))
	for i, h := range tx.HeaderDeps {
		headers[i] = append([]byte(nil), h[:]...)
	}
	inputs := make([][]byte, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = in.Serialize()
	}
	outputs := make([][]byte, len(tx.Outputs))
	for i, out := range tx.Outputs {
		outputs[i] = out.Serialize()
	}
	return packTable([][]byte{
		packUint32(tx.Version),
		packFixVec(deps),
		packFixVec(headers),
		packFixVec(inputs),
		packTable(outputs),
		packBytesVec(tx.OutputsData),
	})
}

// Serialize returns the binary representation of the complete transaction,
// including witnesses.
func (tx *Transaction) Serialize() []byte {
	return packTable([][]byte{
		tx.SerializeRaw(),
		packBytesVec(tx.Witnesses),
	})
}

// Hash returns the transaction hash. Witnesses do not influence it.
func (tx *Transaction) Hash() Hash {
	return Blake2b256(tx.SerializeRaw())
}

// Clone returns a deep copy of the transaction.
func (tx *Transaction) Clone() *Transaction {
	c := &Transaction{
		Version:     tx.Version,
		CellDeps:    append([]CellDep(nil), tx.CellDeps...),
		HeaderDeps:  append([]Hash(nil), tx.HeaderDeps...),
		Inputs:      append([]CellInput(nil), tx.Inputs...),
		Outputs:     make([]CellOutput, len(tx.Outputs)),
		OutputsData: cloneBytesVec(tx.OutputsData),
		Witnesses:   cloneBytesVec(tx.Witnesses),
	}
	for i, o := range tx.Outputs {
		c.Outputs[i] = o.clone()
	}
	return c
}

// Witness returns the witness at given index or nil if not present.
func (tx *Transaction) Witness(i int) []byte {
	if i < 0 || i >= len(tx.Witnesses) {
		return nil
	}
	return tx.Witnesses[i]
}

// DecodeTransaction parses the binary representation of a complete
// transaction, as produced by Transaction.Serialize.
func DecodeTransaction(raw []byte) (*Transaction, error) {
	top, err := unpackTable(raw, 2)
	if err != nil {
		return nil, errors.Wrap(err, "transaction")
	}
	fields, err := unpackTable(top[0], 6)
	if err != nil {
		return nil, errors.Wrap(err, "raw transaction")
	}
	var tx Transaction
	if tx.Version, err = readUint32(fields[0]); err != nil || len(fields[0]) != 4 {
		return nil, errors.Wrap(errors.ErrInput, "version")
	}

	items, err := unpackFixVec(fields[1], cellDepSize)
	if err != nil {
		return nil, errors.Wrap(err, "cell deps")
	}
	for _, it := range items {
		d, err := decodeCellDep(it)
		if err != nil {
			return nil, errors.Wrap(err, "cell deps")
		}
		tx.CellDeps = append(tx.CellDeps, d)
	}

	if items, err = unpackFixVec(fields[2], HashLength); err != nil {
		return nil, errors.Wrap(err, "header deps")
	}
	for _, it := range items {
		var h Hash
		copy(h[:], it)
		tx.HeaderDeps = append(tx.HeaderDeps, h)
	}

	if items, err = unpackFixVec(fields[3], cellInputSize); err != nil {
		return nil, errors.Wrap(err, "inputs")
	}
	for _, it := range items {
		in, err := decodeCellInput(it)
		if err != nil {
			return nil, errors.Wrap(err, "inputs")
		}
		tx.Inputs = append(tx.Inputs, in)
	}

	if items, err = unpackTable(fields[4], -1); err != nil {
		return nil, errors.Wrap(err, "outputs")
	}
	for i, it := range items {
		out, err := decodeCellOutput(it)
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	if tx.OutputsData, err = unpackBytesVec(fields[5]); err != nil {
		return nil, errors.Wrap(err, "outputs data")
	}
	if len(tx.OutputsData) != len(tx.Outputs) {
		return nil, errors.Wrapf(errors.ErrInput, "%d outputs with %d data entries", len(tx.Outputs), len(tx.OutputsData))
	}
	if tx.Witnesses, err = unpackBytesVec(top[1]); err != nil {
		return nil, errors.Wrap(err, "witnesses")
	}
	return &tx, nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func cloneBytesVec(items [][]byte) [][]byte {
	if items == nil {
		return nil
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = cloneBytes(it)
	}
	return out
}
