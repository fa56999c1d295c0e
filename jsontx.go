package cellkit

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/cellkit/errors"
)

// JSON representation of the ledger types, as used by the node RPC. All
// numbers and byte arrays are 0x prefixed hex strings. The same structures
// are used in TOML documents.

type JSONScript struct {
	CodeHash string `json:"code_hash" toml:"code_hash"`
	HashType string `json:"hash_type" toml:"hash_type"`
	Args     string `json:"args" toml:"args"`
}

type JSONOutPoint struct {
	TxHash string `json:"tx_hash" toml:"tx_hash"`
	Index  string `json:"index" toml:"index"`
}

type JSONCellInput struct {
	Since          string       `json:"since" toml:"since"`
	PreviousOutput JSONOutPoint `json:"previous_output" toml:"previous_output"`
}

type JSONCellOutput struct {
	Capacity string      `json:"capacity" toml:"capacity"`
	Lock     JSONScript  `json:"lock" toml:"lock"`
	Type     *JSONScript `json:"type" toml:"type,omitempty"`
}

type JSONCellDep struct {
	OutPoint JSONOutPoint `json:"out_point" toml:"out_point"`
	DepType  string       `json:"dep_type" toml:"dep_type"`
}

// JSONTransaction is a transaction in the node RPC encoding. Hash is only
// informative and never trusted when decoding.
type JSONTransaction struct {
	Hash        string           `json:"hash,omitempty" toml:"hash,omitempty"`
	Version     string           `json:"version" toml:"version"`
	CellDeps    []JSONCellDep    `json:"cell_deps" toml:"cell_deps"`
	HeaderDeps  []string         `json:"header_deps" toml:"header_deps"`
	Inputs      []JSONCellInput  `json:"inputs" toml:"inputs"`
	Outputs     []JSONCellOutput `json:"outputs" toml:"outputs"`
	OutputsData []string         `json:"outputs_data" toml:"outputs_data"`
	Witnesses   []string         `json:"witnesses" toml:"witnesses"`
}

// NewJSONScript returns the JSON representation of a script.
func NewJSONScript(s Script) JSONScript {
	return JSONScript{
		CodeHash: s.CodeHash.String(),
		HashType: s.HashType.String(),
		Args:     hexutil.Encode(s.Args),
	}
}

// Script decodes the JSON representation.
func (j JSONScript) Script() (Script, error) {
	var s Script
	var err error
	if s.CodeHash, err = ParseHash(j.CodeHash); err != nil {
		return s, errors.Field("code_hash", err, "invalid code hash")
	}
	if s.HashType, err = ParseScriptHashType(j.HashType); err != nil {
		return s, errors.Field("hash_type", err, "invalid hash type")
	}
	if s.Args, err = hexutil.Decode(j.Args); err != nil {
		return s, errors.Field("args", errors.ErrInput, err.Error())
	}
	return s, nil
}

// NewJSONOutPoint returns the JSON representation of an out point.
func NewJSONOutPoint(o OutPoint) JSONOutPoint {
	return JSONOutPoint{
		TxHash: o.TxHash.String(),
		Index:  hexutil.EncodeUint64(uint64(o.Index)),
	}
}

// OutPoint decodes the JSON representation.
func (j JSONOutPoint) OutPoint() (OutPoint, error) {
	var o OutPoint
	h, err := ParseHash(j.TxHash)
	if err != nil {
		return o, errors.Field("tx_hash", err, "invalid transaction hash")
	}
	idx, err := decodeUint32(j.Index)
	if err != nil {
		return o, errors.Field("index", err, "invalid index")
	}
	o.TxHash = h
	o.Index = idx
	return o, nil
}

// NewJSONTransaction returns the JSON representation of a transaction,
// including its hash.
func NewJSONTransaction(tx *Transaction) JSONTransaction {
	j := JSONTransaction{
		Hash:        tx.Hash().String(),
		Version:     hexutil.EncodeUint64(uint64(tx.Version)),
		CellDeps:    make([]JSONCellDep, len(tx.CellDeps)),
		HeaderDeps:  make([]string, len(tx.HeaderDeps)),
		Inputs:      make([]JSONCellInput, len(tx.Inputs)),
		Outputs:     make([]JSONCellOutput, len(tx.Outputs)),
		OutputsData: make([]string, len(tx.OutputsData)),
		Witnesses:   make([]string, len(tx.Witnesses)),
	}
	for i, d := range tx.CellDeps {
		j.CellDeps[i] = JSONCellDep{
			OutPoint: NewJSONOutPoint(d.OutPoint),
			DepType:  d.DepType.String(),
		}
	}
	for i, h := range tx.HeaderDeps {
		j.HeaderDeps[i] = h.String()
	}
	for i, in := range tx.Inputs {
		j.Inputs[i] = JSONCellInput{
			Since:          hexutil.EncodeUint64(in.Since),
			PreviousOutput: NewJSONOutPoint(in.PreviousOutput),
		}
	}
	for i, out := range tx.Outputs {
		o := JSONCellOutput{
			Capacity: hexutil.EncodeUint64(uint64(out.Capacity)),
			Lock:     NewJSONScript(out.Lock),
		}
		if out.Type != nil {
			t := NewJSONScript(*out.Type)
			o.Type = &t
		}
		j.Outputs[i] = o
	}
	for i, d := range tx.OutputsData {
		j.OutputsData[i] = hexutil.Encode(d)
	}
	for i, w := range tx.Witnesses {
		j.Witnesses[i] = hexutil.Encode(w)
	}
	return j
}

// Transaction decodes the JSON representation. All problems found are
// returned together.
func (j JSONTransaction) Transaction() (*Transaction, error) {
	var (
		tx  Transaction
		err error
	)
	if v, e := decodeUint32(j.Version); e != nil {
		err = errors.AppendField(err, "version", e)
	} else {
		tx.Version = v
	}
	for i, d := range j.CellDeps {
		op, e := d.OutPoint.OutPoint()
		if e != nil {
			err = errors.AppendField(err, errors.Path("cell_deps", i), e)
			continue
		}
		dt, e := ParseDepType(d.DepType)
		if e != nil {
			err = errors.AppendField(err, errors.Path("cell_deps", i), e)
			continue
		}
		tx.CellDeps = append(tx.CellDeps, CellDep{OutPoint: op, DepType: dt})
	}
	for i, s := range j.HeaderDeps {
		h, e := ParseHash(s)
		if e != nil {
			err = errors.AppendField(err, errors.Path("header_deps", i), e)
			continue
		}
		tx.HeaderDeps = append(tx.HeaderDeps, h)
	}
	for i, in := range j.Inputs {
		since, e := hexutil.DecodeUint64(in.Since)
		if e != nil {
			err = errors.AppendField(err, errors.Path("inputs", i), errors.Wrap(errors.ErrInput, e.Error()))
			continue
		}
		op, e := in.PreviousOutput.OutPoint()
		if e != nil {
			err = errors.AppendField(err, errors.Path("inputs", i), e)
			continue
		}
		tx.Inputs = append(tx.Inputs, CellInput{Since: since, PreviousOutput: op})
	}
	for i, out := range j.Outputs {
		o, e := out.CellOutput()
		if e != nil {
			err = errors.AppendField(err, errors.Path("outputs", i), e)
			continue
		}
		tx.Outputs = append(tx.Outputs, o)
	}
	for i, d := range j.OutputsData {
		b, e := hexutil.Decode(d)
		if e != nil {
			err = errors.AppendField(err, errors.Path("outputs_data", i), errors.Wrap(errors.ErrInput, e.Error()))
			continue
		}
		tx.OutputsData = append(tx.OutputsData, b)
	}
	for i, w := range j.Witnesses {
		b, e := hexutil.Decode(w)
		if e != nil {
			err = errors.AppendField(err, errors.Path("witnesses", i), errors.Wrap(errors.ErrInput, e.Error()))
			continue
		}
		tx.Witnesses = append(tx.Witnesses, b)
	}
	if err != nil {
		return nil, err
	}
	if len(tx.Outputs) != len(tx.OutputsData) {
		return nil, errors.Wrapf(errors.ErrInput, "%d outputs with %d data entries", len(tx.Outputs), len(tx.OutputsData))
	}
	return &tx, nil
}

// CellOutput decodes the JSON representation.
func (j JSONCellOutput) CellOutput() (CellOutput, error) {
	var o CellOutput
	c, err := hexutil.DecodeUint64(j.Capacity)
	if err != nil {
		return o, errors.Field("capacity", errors.ErrInput, err.Error())
	}
	o.Capacity = Capacity(c)
	if o.Lock, err = j.Lock.Script(); err != nil {
		return o, errors.Wrap(err, "lock")
	}
	if j.Type != nil {
		t, err := j.Type.Script()
		if err != nil {
			return o, errors.Wrap(err, "type")
		}
		o.Type = &t
	}
	return o, nil
}

func decodeUint32(s string) (uint32, error) {
	n, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, errors.Wrap(errors.ErrInput, err.Error())
	}
	if n > 0xffffffff {
		return 0, errors.Wrapf(errors.ErrOverflow, "%s does not fit uint32", s)
	}
	return uint32(n), nil
}
