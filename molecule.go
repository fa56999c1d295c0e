package cellkit

import (
	"encoding/binary"

	"github.com/iov-one/cellkit/errors"
)

// Molecule layout primitives.
//
// Fixed size structures are a plain concatenation of their fields. Byte
// vectors and vectors of fixed size items are prefixed with the item count.
// Tables and vectors of dynamic size items start with a header: the total
// size followed by the offset of every item. All numbers are little endian
// uint32.

const headerUnit = 4

func packUint32(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return b
}

func packUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

// packBytes serializes a byte vector.
func packBytes(b []byte) []byte {
	out := make([]byte, 0, headerUnit+len(b))
	out = append(out, packUint32(uint32(len(b)))...)
	return append(out, b...)
}

// packFixVec serializes a vector of already serialized, fixed size items.
func packFixVec(items [][]byte) []byte {
	out := packUint32(uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// packTable serializes a table or a dynamic vector, both using the same
// header layout.
func packTable(fields [][]byte) []byte {
	header := headerUnit * (len(fields) + 1)
	total := header
	for _, f := range fields {
		total += len(f)
	}
	out := make([]byte, 0, total)
	out = append(out, packUint32(uint32(total))...)
	offset := header
	for _, f := range fields {
		out = append(out, packUint32(uint32(offset))...)
		offset += len(f)
	}
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

// readUint64 expects at least 8 bytes of data.
func readUint64(raw []byte) uint64 {
	return binary.LittleEndian.Uint64(raw)
}

func readUint32(raw []byte) (uint32, error) {
	if len(raw) < 4 {
		return 0, errors.Wrap(errors.ErrInput, "not enough data for uint32")
	}
	return binary.LittleEndian.Uint32(raw), nil
}

// packBytesVec serializes a dynamic vector of byte vectors.
func packBytesVec(items [][]byte) []byte {
	packed := make([][]byte, len(items))
	for i, it := range items {
		packed[i] = packBytes(it)
	}
	return packTable(packed)
}

// unpackTable splits a table or a dynamic vector into its items. If
// fieldCount is not negative, the number of items must match it.
func unpackTable(raw []byte, fieldCount int) ([][]byte, error) {
	total, err := readUint32(raw)
	if err != nil {
		return nil, errors.Wrap(err, "total size")
	}
	if int(total) != len(raw) {
		return nil, errors.Wrapf(errors.ErrInput, "total size %d does not match data length %d", total, len(raw))
	}
	if total == headerUnit {
		if fieldCount > 0 {
			return nil, errors.Wrapf(errors.ErrInput, "want %d fields, got none", fieldCount)
		}
		return nil, nil
	}
	first, err := readUint32(raw[headerUnit:])
	if err != nil {
		return nil, errors.Wrap(err, "first offset")
	}
	if first%headerUnit != 0 || first < 2*headerUnit || first > total {
		return nil, errors.Wrapf(errors.ErrInput, "invalid first offset %d", first)
	}
	count := int(first/headerUnit) - 1
	if fieldCount >= 0 && count != fieldCount {
		return nil, errors.Wrapf(errors.ErrInput, "want %d fields, got %d", fieldCount, count)
	}
	offsets := make([]int, count+1)
	for i := 0; i < count; i++ {
		off, err := readUint32(raw[headerUnit*(i+1):])
		if err != nil {
			return nil, errors.Wrapf(err, "offset %d", i)
		}
		offsets[i] = int(off)
	}
	offsets[count] = int(total)
	items := make([][]byte, count)
	for i := 0; i < count; i++ {
		if offsets[i] > offsets[i+1] || offsets[i] < int(first) {
			return nil, errors.Wrapf(errors.ErrInput, "invalid offset %d", offsets[i])
		}
		items[i] = raw[offsets[i]:offsets[i+1]]
	}
	return items, nil
}

// unpackBytes reads a byte vector that must span the whole raw data.
func unpackBytes(raw []byte) ([]byte, error) {
	n, err := readUint32(raw)
	if err != nil {
		return nil, errors.Wrap(err, "bytes length")
	}
	if int(n) != len(raw)-headerUnit {
		return nil, errors.Wrapf(errors.ErrInput, "bytes length %d does not match data length %d", n, len(raw)-headerUnit)
	}
	out := make([]byte, n)
	copy(out, raw[headerUnit:])
	return out, nil
}

// unpackFixVec splits a vector of fixed size items.
func unpackFixVec(raw []byte, itemSize int) ([][]byte, error) {
	n, err := readUint32(raw)
	if err != nil {
		return nil, errors.Wrap(err, "vector length")
	}
	if int(n)*itemSize != len(raw)-headerUnit {
		return nil, errors.Wrapf(errors.ErrInput, "vector of %d items of size %d does not match data length %d", n, itemSize, len(raw)-headerUnit)
	}
	items := make([][]byte, n)
	for i := range items {
		start := headerUnit + i*itemSize
		items[i] = raw[start : start+itemSize]
	}
	return items, nil
}

// unpackBytesVec reads a dynamic vector of byte vectors.
func unpackBytesVec(raw []byte) ([][]byte, error) {
	items, err := unpackTable(raw, -1)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		b, err := unpackBytes(it)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		out[i] = b
	}
	return out, nil
}
