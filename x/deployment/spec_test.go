package deployment

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/celltest/assert"
	"github.com/iov-one/cellkit/errors"
	"github.com/iov-one/cellkit/x/multisig"
	"github.com/stretchr/testify/require"
)

const rawLock = `
[lock.raw]
code_hash = "0x9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8"
hash_type = "type"
args = "0x0102030405060708090a0b0c0d0e0f1011121314"
`

func TestParseSpec(t *testing.T) {
	raw := rawLock + `
[[cells]]
name = "my_lock"
enable_type_id = true
location = { file = "build/release/my_lock" }

[[cells]]
name = "secp256k1_data"
location = { tx_hash = "0x71a7ba8fc96349fea0ed3a5c47992e3b4084b031a42264a018e0072e8172e46c", index = 3 }

[[dep_groups]]
name = "my_lock_group"
cells = ["my_lock", "secp256k1_data"]
`
	spec, err := ParseSpec([]byte(raw))
	require.NoError(t, err)

	require.NotNil(t, spec.Lock.Raw)
	assert.Nil(t, spec.Lock.Multisig)
	assert.Equal(t, cellkit.Secp256k1Blake160CodeHash, spec.Lock.Raw.CodeHash)
	assert.Equal(t, 65, spec.Lock.PlaceholderSize())

	require.Len(t, spec.Cells, 2)
	assert.Equal(t, Cell{
		Name:         "my_lock",
		Location:     Location{File: "build/release/my_lock"},
		EnableTypeID: true,
	}, spec.Cells[0])
	require.NotNil(t, spec.Cells[1].Location.OutPoint)
	assert.Equal(t, uint32(3), spec.Cells[1].Location.OutPoint.Index)
	assert.Equal(t, "", spec.Cells[1].Location.File)

	assert.Equal(t, []DepGroup{{
		Name:  "my_lock_group",
		Cells: []string{"my_lock", "secp256k1_data"},
	}}, spec.DepGroups)
}

func TestParseMultisigSpec(t *testing.T) {
	raw := `
[lock.multisig]
code_hash = "0x5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8"
hash_type = "type"
format_version = 0
require_first_n = 0
require_n = 2
pubkey_hash_list = [
	"0x0101010101010101010101010101010101010101",
	"0x0202020202020202020202020202020202020202",
	"0x0303030303030303030303030303030303030303",
]

[[cells]]
name = "code"
location = { file = "code" }
`
	spec, err := ParseSpec([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, spec.Lock.Multisig)
	assert.Equal(t, byte(2), spec.Lock.Multisig.Policy.RequireN)
	assert.Equal(t, 4+3*20+3*65, spec.Lock.PlaceholderSize())

	lock, err := spec.Lock.Script()
	assert.Nil(t, err)
	assert.Equal(t, 20, len(lock.Args))
}

func TestParseSpecErrors(t *testing.T) {
	const cell = `
[[cells]]
name = "code"
location = { file = "code" }
`
	cases := map[string]struct {
		Raw     string
		WantErr *errors.Error
	}{
		"no lock": {
			Raw:     cell,
			WantErr: errors.ErrEmpty,
		},
		"both locks": {
			Raw: rawLock + `
[lock.multisig]
code_hash = "0x5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8"
hash_type = "type"
require_n = 1
pubkey_hash_list = ["0x0101010101010101010101010101010101010101"]
` + cell,
			WantErr: errors.ErrInput,
		},
		"nothing to deploy": {
			Raw:     rawLock,
			WantErr: errors.ErrEmpty,
		},
		"location with file and out point": {
			Raw: rawLock + `
[[cells]]
name = "code"
location = { file = "code", tx_hash = "0x71a7ba8fc96349fea0ed3a5c47992e3b4084b031a42264a018e0072e8172e46c" }
`,
			WantErr: errors.ErrInput,
		},
		"location without anything": {
			Raw: rawLock + `
[[cells]]
name = "code"
`,
			WantErr: errors.ErrEmpty,
		},
		"index without transaction": {
			Raw: rawLock + `
[[cells]]
name = "code"
location = { index = 2 }
`,
			WantErr: errors.ErrInput,
		},
		"unknown key": {
			Raw: rawLock + `
[[cells]]
name = "code"
location = { file = "code" }
compress = true
`,
			WantErr: errors.ErrInput,
		},
		"duplicated name": {
			Raw:     rawLock + cell + cell,
			WantErr: errors.ErrDuplicate,
		},
		"type id on a reference": {
			Raw: rawLock + `
[[cells]]
name = "code"
enable_type_id = true
location = { tx_hash = "0x71a7ba8fc96349fea0ed3a5c47992e3b4084b031a42264a018e0072e8172e46c", index = 0 }
`,
			WantErr: errors.ErrInput,
		},
		"unresolved dep group member": {
			Raw: rawLock + cell + `
[[dep_groups]]
name = "group"
cells = ["code", "missing"]
`,
			WantErr: ErrUnresolvedReference,
		},
		"empty dep group": {
			Raw: rawLock + cell + `
[[dep_groups]]
name = "group"
cells = []
`,
			WantErr: errors.ErrEmpty,
		},
		"dep group named like a cell": {
			Raw: rawLock + cell + `
[[dep_groups]]
name = "code"
cells = ["code"]
`,
			WantErr: errors.ErrDuplicate,
		},
		"invalid multisig policy": {
			Raw: `
[lock.multisig]
code_hash = "0x5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8"
hash_type = "type"
require_n = 2
pubkey_hash_list = ["0x0101010101010101010101010101010101010101"]
` + cell,
			WantErr: multisig.ErrPolicyInconsistent,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := ParseSpec([]byte(tc.Raw))
			assert.IsErr(t, tc.WantErr, err)
		})
	}
}

func TestLoadSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployment.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(rawLock+`
[[cells]]
name = "code"
location = { file = "code.bin" }
`), 0600))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "code.bin"), []byte{0xca, 0xfe}, 0600))

	spec, err := LoadSpec(path)
	require.NoError(t, err)

	data, err := FileArtifacts{Dir: dir}.ReadArtifact(spec.Cells[0].Location.File)
	require.NoError(t, err)
	assert.HexEqual(t, []byte{0xca, 0xfe}, data)

	_, err = FileArtifacts{Dir: dir}.ReadArtifact("missing.bin")
	assert.IsErr(t, errors.ErrNotFound, err)

	_, err = LoadSpec(filepath.Join(dir, "missing.toml"))
	assert.IsErr(t, errors.ErrInput, err)
}
