package cellkit

import (
	"testing"

	"github.com/iov-one/cellkit/celltest/assert"
	"github.com/iov-one/cellkit/errors"
)

func TestParseCapacity(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    Capacity
		wantErr *errors.Error
	}{
		"whole":               {raw: "61", want: 61 * OneCKB},
		"with unit":           {raw: "61 CKB", want: 61 * OneCKB},
		"fraction":            {raw: "0.001", want: 100000},
		"smallest unit":       {raw: "0.00000001", want: 1},
		"whole and fraction":  {raw: "1.5", want: 150000000},
		"too many decimals":   {raw: "0.000000001", wantErr: errors.ErrInput},
		"negative":            {raw: "-1", wantErr: errors.ErrInput},
		"garbage":             {raw: "ten", wantErr: errors.ErrInput},
		"overflow":            {raw: "184467440738", wantErr: errors.ErrOverflow},
		"fraction overflow":   {raw: "184467440737.1", wantErr: errors.ErrOverflow},
		"whole does not fit":  {raw: "99999999999999999999", wantErr: errors.ErrOverflow},
		"largest whole value": {raw: "184467440737", want: 184467440737 * OneCKB},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseCapacity(tc.raw)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr == nil {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestCapacityString(t *testing.T) {
	cases := map[Capacity]string{
		0:             "0",
		1:             "0.00000001",
		OneCKB:        "1",
		150000000:     "1.5",
		61*OneCKB + 1: "61.00000001",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("%d: want %q, got %q", uint64(c), want, got)
		}
		parsed, err := ParseCapacity(c.String())
		assert.Nil(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestCapacityArithmetic(t *testing.T) {
	sum, err := CKB(1).Add(CKB(2))
	assert.Nil(t, err)
	assert.Equal(t, CKB(3), sum)

	_, err = Capacity(^uint64(0)).Add(1)
	assert.IsErr(t, errors.ErrOverflow, err)

	diff, err := CKB(3).Sub(CKB(1))
	assert.Nil(t, err)
	assert.Equal(t, CKB(2), diff)

	_, err = CKB(1).Sub(CKB(3))
	assert.IsErr(t, errors.ErrOverflow, err)

	var c Capacity
	assert.Nil(t, c.Set("0.5"))
	assert.Equal(t, OneCKB/2, c)

	assert.Panics(t, func() { CKB(^uint64(0)) })
}

func TestOccupiedCapacity(t *testing.T) {
	lock := Script{HashType: HashTypeType, Args: make([]byte, 20)}

	got, err := OccupiedCapacity(CellOutput{Lock: lock}, nil)
	assert.Nil(t, err)
	// capacity field, lock code hash, hash type and 20 bytes of args
	assert.Equal(t, CKB(8+32+1+20), got)

	typ := TypeIDScript(Blake2b256())
	got, err = OccupiedCapacity(CellOutput{Lock: lock, Type: &typ}, make([]byte, 100))
	assert.Nil(t, err)
	assert.Equal(t, CKB(61+65+100), got)
}
