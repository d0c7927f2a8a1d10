package types

import (
	"fmt"
	"math/bits"
)

// Descriptor records where one named field lives inside a packed buffer.
//
// Start and End form the half-open byte range [Start, End). StartMask selects
// the field's bits in the first byte of that range and EndMask the bits in the
// last one; for single-byte fields the two are equal. Bytes strictly between
// Start and End-1 belong to the field in full.
type Descriptor struct {
	Name      string `json:"name"`
	Width     int    `json:"width"`
	StartMask uint8  `json:"startMask"`
	EndMask   uint8  `json:"endMask"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// Span is the number of bytes the field touches.
func (d Descriptor) Span() int {
	return d.End - d.Start
}

// Shift is the bit position inside the first byte where the field begins.
func (d Descriptor) Shift() int {
	return TrailingZeros8(d.StartMask)
}

// BitOffset is the absolute bit position of the field's lowest bit.
func (d Descriptor) BitOffset() int {
	return d.Start*BitsPerByte + d.Shift()
}

// MaskAt returns the ownership mask of byte i of the field's range.
func (d Descriptor) MaskAt(i int) uint8 {
	switch {
	case i < 0 || i >= d.Span():
		return 0
	case i == 0:
		return d.StartMask
	case i == d.Span()-1:
		return d.EndMask
	default:
		return 0xFF
	}
}

// OwnedBits counts the bits claimed across the whole range. It equals Width
// for every descriptor produced by a packer.
func (d Descriptor) OwnedBits() int {
	n := 0
	for i := 0; i < d.Span(); i++ {
		n += bits.OnesCount8(d.MaskAt(i))
	}
	return n
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s[w=%d bytes=%d..%d start=%08b end=%08b]",
		d.Name, d.Width, d.Start, d.End, d.StartMask, d.EndMask)
}
