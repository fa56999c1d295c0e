package cellkit

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/cellkit/celltest/assert"
	"github.com/iov-one/cellkit/errors"
	"github.com/stretchr/testify/require"
)

func TestJSONTransactionRoundTrip(t *testing.T) {
	tx := sampleTransaction()

	j := NewJSONTransaction(tx)
	assert.Equal(t, tx.Hash().String(), j.Hash)
	assert.Equal(t, "0x174876e800", j.Outputs[0].Capacity)
	assert.Equal(t, "dep_group", j.CellDeps[0].DepType)
	assert.Equal(t, "0x", j.OutputsData[1])

	raw, err := json.Marshal(j)
	require.NoError(t, err)

	var decoded JSONTransaction
	require.NoError(t, json.Unmarshal(raw, &decoded))
	back, err := decoded.Transaction()
	require.NoError(t, err)
	assert.HexEqual(t, tx.Serialize(), back.Serialize())
}

func TestJSONTransactionNullType(t *testing.T) {
	raw, err := json.Marshal(NewJSONTransaction(sampleTransaction()))
	require.NoError(t, err)

	var generic struct {
		Outputs []map[string]interface{} `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(raw, &generic))
	typ, ok := generic.Outputs[1]["type"]
	require.True(t, ok, "type must always be present")
	require.Nil(t, typ)
}

func TestJSONTransactionErrors(t *testing.T) {
	valid := NewJSONTransaction(sampleTransaction())

	cases := map[string]struct {
		modify    func(*JSONTransaction)
		wantField string
		wantErr   *errors.Error
	}{
		"invalid version": {
			modify:    func(j *JSONTransaction) { j.Version = "zero" },
			wantField: "version",
			wantErr:   errors.ErrInput,
		},
		"version overflow": {
			modify:    func(j *JSONTransaction) { j.Version = "0x100000000" },
			wantField: "version",
			wantErr:   errors.ErrOverflow,
		},
		"invalid dep type": {
			modify:    func(j *JSONTransaction) { j.CellDeps[0].DepType = "group" },
			wantField: "cell_deps.0",
			wantErr:   errors.ErrInput,
		},
		"invalid input hash": {
			modify:    func(j *JSONTransaction) { j.Inputs[0].PreviousOutput.TxHash = "0x01" },
			wantField: "inputs.0",
			wantErr:   errors.ErrInput,
		},
		"invalid hash type": {
			modify:    func(j *JSONTransaction) { j.Outputs[1].Lock.HashType = "data3" },
			wantField: "outputs.1",
			wantErr:   errors.ErrInput,
		},
		"odd witness": {
			modify:    func(j *JSONTransaction) { j.Witnesses[1] = "0x1" },
			wantField: "witnesses.1",
			wantErr:   errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			raw, err := json.Marshal(valid)
			require.NoError(t, err)
			var j JSONTransaction
			require.NoError(t, json.Unmarshal(raw, &j))

			tc.modify(&j)
			_, err = j.Transaction()
			assert.FieldError(t, err, tc.wantField, tc.wantErr)
		})
	}

	j := NewJSONTransaction(sampleTransaction())
	j.OutputsData = j.OutputsData[:1]
	_, err := j.Transaction()
	assert.IsErr(t, errors.ErrInput, err)
}
