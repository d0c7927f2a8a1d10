package access

import (
	"fmt"
	"iter"
	"math/bits"

	"github.com/quickwritereader/BitPackOS/types"
	"golang.org/x/exp/constraints"
	"lukechampine.com/uint128"
)

// MaxWidth is the widest field a packer accepts.
const MaxWidth = 128

// DuplicatePolicy decides what happens when a field name is allocated twice.
type DuplicatePolicy uint8

const (
	// DuplicateShadow keeps the older field in the buffer and makes the newer
	// one visible under the shared name.
	DuplicateShadow DuplicatePolicy = iota
	// DuplicateReject fails the allocation with ErrDuplicateField.
	DuplicateReject
)

func (d DuplicatePolicy) String() string {
	switch d {
	case DuplicateShadow:
		return "shadow"
	case DuplicateReject:
		return "reject"
	default:
		return "invalid"
	}
}

// Packer appends named fields of arbitrary bit width to a byte buffer with no
// padding between them.
//
// A Packer is not safe for concurrent use. Reads may run concurrently with
// each other as long as no allocation is in flight.
type Packer struct {
	buf    []byte             // packed fields, low-order bits first
	fields []types.Descriptor // one per allocation, in allocation order
	index  *types.FieldIndex  // name -> visible position in fields
	bitLen int                // bits claimed so far
	policy DuplicatePolicy
}

type Option func(*Packer)

// WithDuplicatePolicy sets how re-used field names are handled.
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(p *Packer) {
		p.policy = policy
	}
}

// WithCapacity preallocates room for the given number of bytes and fields.
func WithCapacity(byteCap, fieldCap int) Option {
	return func(p *Packer) {
		if byteCap > 0 {
			p.buf = make([]byte, 0, byteCap)
		}
		if fieldCap > 0 {
			p.fields = make([]types.Descriptor, 0, fieldCap)
		}
	}
}

// NewPacker returns an empty packer.
func NewPacker(opts ...Option) *Packer {
	p := &Packer{
		buf:    make([]byte, 0, 16),
		fields: make([]types.Descriptor, 0, 8),
		index:  types.NewFieldIndex(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Allocate appends a field holding the low width bits of value.
// width must be in 1..64.
func (p *Packer) Allocate(name string, width int, value uint64) error {
	if width > 64 {
		return fmt.Errorf("Allocate %q: width %d exceeds uint64: %w", name, width, ErrInvalidWidth)
	}
	return p.allocate("Allocate", name, width, uint128.From64(value))
}

// AllocateUint128 appends a field of up to MaxWidth bits.
func (p *Packer) AllocateUint128(name string, width int, value uint128.Uint128) error {
	return p.allocate("AllocateUint128", name, width, value)
}

// Put appends a field whose source value has type T. width may not exceed
// the bit size of T.
func Put[T constraints.Unsigned](p *Packer, name string, width int, value T) error {
	if width > bitsOf[T]() {
		return fmt.Errorf("Put %q: width %d exceeds %d-bit source: %w", name, width, bitsOf[T](), ErrInvalidWidth)
	}
	return p.allocate("Put", name, width, uint128.From64(uint64(value)))
}

func (p *Packer) allocate(op, name string, width int, value uint128.Uint128) error {
	if width < 1 || width > MaxWidth {
		return fmt.Errorf("%s %q: width %d: %w", op, name, width, ErrInvalidWidth)
	}
	if n := value.Len(); n > width {
		return fmt.Errorf("%s %q: value %s needs %d bits, width is %d: %w", op, name, value, n, width, ErrValueOverflow)
	}
	if p.policy == DuplicateReject && p.index.Has(name) {
		return fmt.Errorf("%s %q: %w", op, name, ErrDuplicateField)
	}

	shift := p.bitLen % types.BitsPerByte
	free := p.FreeBits()

	// the field starts in the tail byte only if that byte still has room
	start := len(p.buf)
	if free > 0 {
		start--
	}
	if free < width {
		p.buf = append(p.buf, make([]byte, types.BytesFor(width-free))...)
	}
	span := types.BytesFor(shift + width)

	for i := 0; i < span; i++ {
		var b uint8
		if i == 0 {
			b = uint8(value.Lo << shift)
		} else {
			b = uint8(value.Rsh(uint(types.BitsPerByte*i - shift)).Lo)
		}
		p.buf[start+i] |= b
	}

	startMask := types.MaskFor(min(width, types.BitsPerByte-shift)) << shift
	endMask := startMask
	if span > 1 {
		endMask = 0xFF
		if tail := (shift + width) % types.BitsPerByte; tail != 0 {
			endMask = types.MaskFor(tail)
		}
	}

	p.fields = append(p.fields, types.Descriptor{
		Name:      name,
		Width:     width,
		StartMask: startMask,
		EndMask:   endMask,
		Start:     start,
		End:       start + span,
	})
	p.index.Insert(name, len(p.fields)-1)
	p.bitLen += width
	return nil
}

// FreeBits is the number of unclaimed high bits in the last byte.
func (p *Packer) FreeBits() int {
	return len(p.buf)*types.BitsPerByte - p.bitLen
}

// BitLen is the number of bits claimed by fields.
func (p *Packer) BitLen() int {
	return p.bitLen
}

// ByteLen is the size of the packed buffer.
func (p *Packer) ByteLen() int {
	return len(p.buf)
}

// FieldCount counts allocations, shadowed ones included.
func (p *Packer) FieldCount() int {
	return len(p.fields)
}

// Bytes returns a copy of the packed buffer.
func (p *Packer) Bytes() []byte {
	out := make([]byte, len(p.buf))
	copy(out, p.buf)
	return out
}

// AppendTo appends the packed buffer to dst.
func (p *Packer) AppendTo(dst []byte) []byte {
	return append(dst, p.buf...)
}

// Descriptor returns the descriptor recorded by the i-th allocation.
func (p *Packer) Descriptor(i int) (types.Descriptor, error) {
	if i < 0 || i >= len(p.fields) {
		return types.Descriptor{}, fmt.Errorf("Descriptor %d of %d: %w", i, len(p.fields), ErrDescriptorRange)
	}
	return p.fields[i], nil
}

// Lookup returns the visible descriptor for name.
func (p *Packer) Lookup(name string) (types.Descriptor, bool) {
	pos, ok := p.index.Lookup(name)
	if !ok {
		return types.Descriptor{}, false
	}
	return p.fields[pos], true
}

// Shadowed returns the descriptors hidden by later allocations of name.
func (p *Packer) Shadowed(name string) []types.Descriptor {
	var out []types.Descriptor
	for _, pos := range p.index.Shadowed(name) {
		out = append(out, p.fields[pos])
	}
	return out
}

// Names returns the distinct field names in first-allocation order.
func (p *Packer) Names() []string {
	return p.index.Names()
}

// Fields iterates over every descriptor in allocation order.
func (p *Packer) Fields() iter.Seq2[int, types.Descriptor] {
	return func(yield func(int, types.Descriptor) bool) {
		for i, d := range p.fields {
			if !yield(i, d) {
				return
			}
		}
	}
}

// Policy reports the duplicate-name policy in effect.
func (p *Packer) Policy() DuplicatePolicy {
	return p.policy
}

// Reset empties the packer but keeps its storage.
func (p *Packer) Reset() {
	p.buf = p.buf[:0]
	p.fields = p.fields[:0]
	p.index.Reset()
	p.bitLen = 0
}

func bitsOf[T constraints.Unsigned]() int {
	return bits.Len64(uint64(^T(0)))
}
