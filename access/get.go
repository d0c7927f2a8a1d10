package access

import (
	"fmt"

	"github.com/quickwritereader/BitPackOS/types"
	"golang.org/x/exp/constraints"
	"lukechampine.com/uint128"
)

// Get reads the named field as T. It fails with ErrUnknownField for names
// never allocated and with ErrWidthMismatch when the field is wider than T.
func Get[T constraints.Unsigned](p *Packer, name string) (T, error) {
	v, err := p.extract("Get", name, bitsOf[T]())
	if err != nil {
		return 0, err
	}
	return T(v.Lo), nil
}

// GetUint128 reads the named field at full 128-bit width.
func GetUint128(p *Packer, name string) (uint128.Uint128, error) {
	return p.extract("GetUint128", name, MaxWidth)
}

// GetAny reads the named field as the smallest unsigned type that holds it:
// uint8, uint16, uint32, uint64 or uint128.Uint128.
func GetAny(p *Packer, name string) (any, error) {
	d, ok := p.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("GetAny %q: %w", name, ErrUnknownField)
	}
	switch {
	case d.Width <= 8:
		return Get[uint8](p, name)
	case d.Width <= 16:
		return Get[uint16](p, name)
	case d.Width <= 32:
		return Get[uint32](p, name)
	case d.Width <= 64:
		return Get[uint64](p, name)
	default:
		return GetUint128(p, name)
	}
}

// GetAt reads the field recorded by the i-th allocation, shadowed or not.
func GetAt[T constraints.Unsigned](p *Packer, i int) (T, error) {
	d, err := p.Descriptor(i)
	if err != nil {
		return 0, err
	}
	v, err := p.read("GetAt", d, bitsOf[T]())
	if err != nil {
		return 0, err
	}
	return T(v.Lo), nil
}

func (p *Packer) extract(op, name string, targetBits int) (uint128.Uint128, error) {
	pos, ok := p.index.Lookup(name)
	if !ok {
		return uint128.Zero, fmt.Errorf("%s %q: %w", op, name, ErrUnknownField)
	}
	return p.read(op, p.fields[pos], targetBits)
}

// read reassembles a field from its byte range. Bytes inside the range other
// than the first and last belong to the field in full.
func (p *Packer) read(op string, d types.Descriptor, targetBits int) (uint128.Uint128, error) {
	if d.Width > targetBits {
		return uint128.Zero, fmt.Errorf("%s %q: %d-bit field into %d-bit type: %w",
			op, d.Name, d.Width, targetBits, ErrWidthMismatch)
	}

	raw := p.buf[d.Start:d.End]
	shift := d.Shift()

	v := uint128.From64(uint64((raw[0] & d.StartMask) >> shift))
	for i := 1; i < len(raw); i++ {
		b := uint128.From64(uint64(raw[i] & d.MaskAt(i)))
		v = v.Or(b.Lsh(uint(types.BitsPerByte*i - shift)))
	}

	if n := v.Len(); n > targetBits {
		return uint128.Zero, fmt.Errorf("%s %q: decoded value needs %d bits, target has %d: %w",
			op, d.Name, n, targetBits, ErrWidthMismatch)
	}
	return v, nil
}

// GetAtUint128 reads the field recorded by the i-th allocation at full width.
func GetAtUint128(p *Packer, i int) (uint128.Uint128, error) {
	d, err := p.Descriptor(i)
	if err != nil {
		return uint128.Zero, err
	}
	return p.read("GetAtUint128", d, MaxWidth)
}
