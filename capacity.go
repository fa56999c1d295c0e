package cellkit

import (
	"bytes"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/iov-one/cellkit/errors"
)

// Capacity is an amount of the ledger native token expressed in shannons.
// Capacity of a cell limits how many bytes the cell can occupy.
type Capacity uint64

const (
	// OneCKB is the amount of shannons in a single CKB.
	OneCKB Capacity = 100000000

	// fracDigits is the number of decimal places a CKB amount can have.
	fracDigits = 8
)

// CKB returns the capacity of given amount of whole CKB. It panics if the
// amount does not fit, which is always a programming error.
func CKB(n uint64) Capacity {
	if n > math.MaxUint64/uint64(OneCKB) {
		panic("capacity overflow")
	}
	return Capacity(n) * OneCKB
}

// Add returns the sum of both values or ErrOverflow.
func (c Capacity) Add(o Capacity) (Capacity, error) {
	s := c + o
	if s < c {
		return 0, errors.Wrapf(errors.ErrOverflow, "%s + %s", c, o)
	}
	return s, nil
}

// Sub returns the difference of both values. Subtracting more than is
// available is ErrOverflow.
func (c Capacity) Sub(o Capacity) (Capacity, error) {
	if o > c {
		return 0, errors.Wrapf(errors.ErrOverflow, "%s - %s", c, o)
	}
	return c - o, nil
}

// String returns the human readable amount in CKB. Trailing fractional zeros
// are dropped, so the result can be parsed back with ParseCapacity.
func (c Capacity) String() string {
	var b bytes.Buffer
	_, _ = io.WriteString(&b, strconv.FormatUint(uint64(c/OneCKB), 10))
	if f := uint64(c % OneCKB); f != 0 {
		s := strconv.FormatUint(f, 10)
		s = "." + strings.Repeat("0", fracDigits-len(s)) + s
		_, _ = io.WriteString(&b, strings.TrimRight(s, "0"))
	}
	return b.String()
}

var humanCapacityRx = regexp.MustCompile(`^\s*(\d+)(?:\.(\d+))?\s*(?:CKB)?\s*$`)

// ParseCapacity parses an amount given in CKB, for example "61" or
// "0.001". At most 8 decimal places are accepted.
func ParseCapacity(h string) (Capacity, error) {
	m := humanCapacityRx.FindStringSubmatch(h)
	if m == nil {
		return 0, errors.Wrapf(errors.ErrInput, "invalid capacity format %q", h)
	}
	whole, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrOverflow, "whole value %q", m[1])
	}
	if whole > math.MaxUint64/uint64(OneCKB) {
		return 0, errors.Wrapf(errors.ErrOverflow, "whole value %q", m[1])
	}
	var frac uint64
	if f := m[2]; f != "" {
		if len(f) > fracDigits {
			return 0, errors.Wrapf(errors.ErrInput, "more than %d decimal places", fracDigits)
		}
		f += strings.Repeat("0", fracDigits-len(f))
		frac, err = strconv.ParseUint(f, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrInput, "fractional value %q", m[2])
		}
	}
	return (Capacity(whole) * OneCKB).Add(Capacity(frac))
}

// Set updates this capacity value to what is provided. This method
// implements flag.Value interface.
func (c *Capacity) Set(raw string) error {
	val, err := ParseCapacity(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}

// OccupiedCapacity returns the minimal capacity an output holding given data
// must carry. Every occupied byte costs one CKB.
func OccupiedCapacity(out CellOutput, data []byte) (Capacity, error) {
	size := uint64(8) + out.Lock.OccupiedBytes()
	if out.Type != nil {
		size += out.Type.OccupiedBytes()
	}
	size += uint64(len(data))
	if size > math.MaxUint64/uint64(OneCKB) {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d bytes", size)
	}
	return Capacity(size) * OneCKB, nil
}
