package types

import "math/bits"

// BitsPerByte is the number of bits a single buffer cell holds.
const BitsPerByte = 8

// masks[w] has the w low-order bits set.
var masks = [BitsPerByte + 1]uint8{
	0b0000_0000,
	0b0000_0001,
	0b0000_0011,
	0b0000_0111,
	0b0000_1111,
	0b0001_1111,
	0b0011_1111,
	0b0111_1111,
	0b1111_1111,
}

// MaskFor returns the low-order mask with width set bits.
// Widths outside 1..8 yield the zero mask.
func MaskFor(width int) uint8 {
	if width < 1 || width > BitsPerByte {
		return 0
	}
	return masks[width]
}

// TrailingOnes8 counts the consecutive set bits starting at bit 0.
func TrailingOnes8(b uint8) int {
	return bits.TrailingZeros8(^b)
}

// TrailingZeros8 counts the consecutive clear bits starting at bit 0.
func TrailingZeros8(b uint8) int {
	return bits.TrailingZeros8(b)
}

// BytesFor returns how many whole bytes are needed to hold n bits.
func BytesFor(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + BitsPerByte - 1) / BitsPerByte
}
