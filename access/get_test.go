package access

import (
	"fmt"
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestGet_RoundTripAllSmallWidths(t *testing.T) {
	for width := 1; width <= 8; width++ {
		for value := uint64(0); value < 1<<width; value++ {
			p := NewPacker()
			require.NoError(t, p.Allocate("f", width, value))

			v8, err := Get[uint8](p, "f")
			require.NoError(t, err)
			assert.Equal(t, uint8(value), v8)

			v16, err := Get[uint16](p, "f")
			require.NoError(t, err)
			assert.Equal(t, uint16(value), v16)

			v32, err := Get[uint32](p, "f")
			require.NoError(t, err)
			assert.Equal(t, uint32(value), v32)

			v64, err := Get[uint64](p, "f")
			require.NoError(t, err)
			assert.Equal(t, value, v64)

			v128, err := GetUint128(p, "f")
			require.NoError(t, err)
			assert.True(t, v128.Equals64(value))
		}
	}
}

func TestGet_RoundTripAfterEveryShift(t *testing.T) {
	// place a field of each width behind a prefix of every length 0..7
	for prefix := 0; prefix < 8; prefix++ {
		for width := 1; width <= 64; width++ {
			p := NewPacker()
			if prefix > 0 {
				require.NoError(t, p.Allocate("prefix", prefix, uint64(1)<<(prefix-1)))
			}
			value := uint64(0xA5A5_A5A5_A5A5_A5A5) >> (64 - width)
			require.NoError(t, p.Allocate("f", width, value))

			got, err := Get[uint64](p, "f")
			require.NoError(t, err, "prefix=%d width=%d", prefix, width)
			assert.Equalf(t, value, got, "prefix=%d width=%d", prefix, width)

			if prefix > 0 {
				pre, err := Get[uint8](p, "prefix")
				require.NoError(t, err)
				assert.Equal(t, uint8(1)<<(prefix-1), pre)
			}
		}
	}
}

func TestGet_UnknownField(t *testing.T) {
	p := NewPacker()
	_, err := Get[uint8](p, "nope")
	assert.ErrorIs(t, err, ErrUnknownField)

	require.NoError(t, p.Allocate("yes", 2, 1))
	_, err = Get[uint64](p, "nope")
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = GetUint128(p, "nope")
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = GetAny(p, "nope")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestGet_WidthMismatch(t *testing.T) {
	p := NewPacker()
	require.NoError(t, p.Allocate("nine", 9, 3))

	v, err := Get[uint8](p, "nine")
	assert.ErrorIs(t, err, ErrWidthMismatch)
	assert.Equal(t, uint8(0), v)

	w, err := Get[uint16](p, "nine")
	require.NoError(t, err)
	assert.Equal(t, uint16(3), w)
}

func TestGet_IdempotentRead(t *testing.T) {
	p := NewPacker()
	require.NoError(t, p.Allocate("a", 4, 7))
	require.NoError(t, p.Allocate("b", 5, 30))
	before := p.Bytes()

	first, err := Get[uint16](p, "b")
	require.NoError(t, err)
	second, err := Get[uint16](p, "b")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, p.Bytes())
}

func TestGetAny_PicksSmallestType(t *testing.T) {
	p := NewPacker()
	require.NoError(t, p.Allocate("u8", 8, 200))
	require.NoError(t, p.Allocate("u16", 9, 300))
	require.NoError(t, p.Allocate("u32", 17, 70000))
	require.NoError(t, p.Allocate("u64", 33, 1<<32))
	require.NoError(t, p.AllocateUint128("u128", 65, uint128.New(0, 1)))

	cases := []struct {
		name   string
		expect any
	}{
		{"u8", uint8(200)},
		{"u16", uint16(300)},
		{"u32", uint32(70000)},
		{"u64", uint64(1 << 32)},
		{"u128", uint128.New(0, 1)},
	}
	for _, tc := range cases {
		got, err := GetAny(p, tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.expect, got, tc.name)
	}
}

func TestGet_RandomLayoutsHaveNoOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		p := NewPacker()
		n := 1 + rng.Intn(24)
		values := make([]uint64, n)

		for i := 0; i < n; i++ {
			width := 1 + rng.Intn(64)
			value := rng.Uint64() >> (64 - width)
			values[i] = value
			require.NoError(t, p.Allocate(fmt.Sprintf("f%d", i), width, value))
		}

		// every bit of the buffer is owned by at most one field
		owned := make([]uint8, p.ByteLen())
		total := 0
		for _, d := range p.Fields() {
			for j := 0; j < d.Span(); j++ {
				m := d.MaskAt(j)
				require.Zerof(t, owned[d.Start+j]&m, "round %d: %s overlaps at byte %d", round, d.Name, d.Start+j)
				owned[d.Start+j] |= m
			}
			assert.Equal(t, d.Width, d.OwnedBits())
			total += d.Width
		}
		claimed := 0
		for _, b := range owned {
			claimed += bits.OnesCount8(b)
		}
		assert.Equal(t, total, claimed)
		assert.Equal(t, p.ByteLen()*8, claimed+p.FreeBits())

		for i, want := range values {
			got, err := Get[uint64](p, fmt.Sprintf("f%d", i))
			require.NoError(t, err)
			assert.Equalf(t, want, got, "round %d field %d", round, i)
		}
	}
}
