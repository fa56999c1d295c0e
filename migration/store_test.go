package migration

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/celltest/assert"
	"github.com/iov-one/cellkit/errors"
	"github.com/stretchr/testify/require"
)

func record(name string, kind Kind, seed string) Record {
	id := cellkit.Blake2b256([]byte("id-" + seed))
	return Record{
		Name:     name,
		Kind:     kind,
		OutPoint: cellkit.OutPoint{TxHash: cellkit.Blake2b256([]byte(seed)), Index: 1},
		DataHash: cellkit.Blake2b256([]byte("data-" + seed)),
		TypeID:   &id,
		Capacity: cellkit.CKB(100),
	}
}

func TestLoadEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "does", "not", "exist"))
	state, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), state.Sequence)
	assert.Equal(t, 0, state.Len())
}

func TestAppend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dev")
	s := NewStore(dir)

	state, err := s.Append([]Record{
		record("lock", KindCell, "a"),
		record("group", KindDepGroup, "b"),
		record("secp256k1", KindReference, "c"),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.Sequence)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, state.Records(), loaded.Records())

	names := []string{}
	for _, r := range loaded.Records() {
		names = append(names, r.Name)
		assert.Equal(t, uint64(1), r.Migration)
	}
	assert.Equal(t, []string{"group", "lock", "secp256k1"}, names)

	updated := record("lock", KindCell, "d")
	updated.TypeID = nil
	state, err = s.Append([]Record{updated})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), state.Sequence)

	loaded, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())
	got, ok := loaded.Get("lock")
	require.True(t, ok)
	assert.Equal(t, updated.OutPoint, got.OutPoint)
	assert.Equal(t, uint64(2), got.Migration)
	require.Nil(t, got.TypeID)
	group, ok := loaded.Get("group")
	require.True(t, ok)
	assert.Equal(t, uint64(1), group.Migration)

	_, ok = loaded.Get("missing")
	assert.Equal(t, false, ok)

	// An empty append still records a deployment.
	state, err = s.Append(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), state.Sequence)

	// No temporary files are left behind.
	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestAppendInvalidRecords(t *testing.T) {
	cases := map[string]struct {
		Records []Record
		WantErr *errors.Error
	}{
		"missing name": {
			Records: []Record{record("", KindCell, "a")},
			WantErr: errors.ErrEmpty,
		},
		"unknown kind": {
			Records: []Record{record("a", Kind("program"), "a")},
			WantErr: errors.ErrInput,
		},
		"missing out point": {
			Records: []Record{{Name: "a", Kind: KindCell}},
			WantErr: errors.ErrEmpty,
		},
		"duplicated name": {
			Records: []Record{record("a", KindCell, "a"), record("a", KindCell, "b")},
			WantErr: errors.ErrDuplicate,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			s := NewStore(t.TempDir())
			_, err := s.Append(tc.Records)
			assert.IsErr(t, tc.WantErr, err)

			if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
				t.Fatalf("deployment file must not be created: %v", err)
			}
		})
	}
}

func TestAppendReplacesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dev")
	s := NewStore(dir)
	for i := 0; i < 3; i++ {
		_, err := s.Append([]Record{record("a", KindCell, string(rune('a'+i)))})
		require.NoError(t, err)
	}
	infos, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, FileName, infos[0].Name())
	assert.Equal(t, os.FileMode(0644), infos[0].Mode().Perm())

	state, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), state.Sequence)
}

func TestRecordValidateFields(t *testing.T) {
	err := Record{Kind: Kind("program")}.Validate()
	assert.FieldError(t, err, "name", errors.ErrEmpty)
	assert.FieldError(t, err, "kind", errors.ErrInput)
	assert.FieldError(t, err, "tx_hash", errors.ErrEmpty)

	err = record("a", KindReference, "a").Validate()
	assert.Nil(t, err)
}

func TestCorruptedFile(t *testing.T) {
	cases := map[string]string{
		"empty file":       ``,
		"not json":         `deployment`,
		"unknown format":   `{"format": 7, "sequence": 1, "records": []}`,
		"unknown field":    `{"format": 1, "sequence": 1, "records": [], "extra": true}`,
		"invalid hash":     `{"format": 1, "sequence": 1, "records": [{"name": "a", "kind": "cell", "tx_hash": "0x01"}]}`,
		"missing tx hash":  `{"format": 1, "sequence": 1, "records": [{"name": "a", "kind": "cell"}]}`,
		"trailing data":    `{"format": 1, "sequence": 0, "records": []} garbage`,
		"two documents":    `{"format": 1, "sequence": 0, "records": []}{"format": 1, "sequence": 0, "records": []}`,
		"future migration": `{"format": 1, "sequence": 1, "records": [{"name": "a", "kind": "cell", "migration": 2, "tx_hash": "0x44f4c69744d5f8c55d642062949dcae49bc4e7ef43d388c5a12f42b5633d163e"}]}`,
		"duplicated record": `{"format": 1, "sequence": 1, "records": [` +
			`{"name": "a", "kind": "cell", "tx_hash": "0x44f4c69744d5f8c55d642062949dcae49bc4e7ef43d388c5a12f42b5633d163e"},` +
			`{"name": "a", "kind": "cell", "tx_hash": "0x44f4c69744d5f8c55d642062949dcae49bc4e7ef43d388c5a12f42b5633d163e"}]}`,
	}

	for testName, content := range cases {
		t.Run(testName, func(t *testing.T) {
			s := NewStore(t.TempDir())
			require.NoError(t, ioutil.WriteFile(s.Path(), []byte(content), 0644))

			_, err := s.Load()
			assert.IsErr(t, ErrMigrationCorrupt, err)

			_, err = s.Append([]Record{record("b", KindCell, "b")})
			assert.IsErr(t, ErrMigrationCorrupt, err)

			// Corrupted file is never repaired.
			raw, err := ioutil.ReadFile(s.Path())
			require.NoError(t, err)
			assert.Equal(t, content, string(raw))
		})
	}
}

func TestLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "production")

	first := NewStore(dir)
	require.NoError(t, first.Lock())

	second := NewStore(dir)
	assert.IsErr(t, ErrLocked, second.Lock())

	require.NoError(t, first.Unlock())
	require.NoError(t, second.Lock())
	require.NoError(t, second.Unlock())

	// The lock file does not interfere with the deployment file.
	state, err := first.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Len())
}

func TestStateClone(t *testing.T) {
	s := NewState()
	s.put(record("a", KindCell, "a"))
	c := s.Clone()
	c.put(record("b", KindCell, "b"))
	c.Sequence = 5

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, uint64(0), s.Sequence)
}
