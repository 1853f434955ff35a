package compress_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/piecetree/internal/compress"
)

const (
	deltaTestSize     = 1000
	deltaTestSortStep = 3
)

func TestUInt32Slice_RoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]uint32, deltaTestSize)
	for idx := range data {
		data[idx] = 7
	}

	packed := compress.UInt32Slice(data)

	require.NotNil(t, packed)
	assert.Less(t, len(packed), deltaTestSize*4, "repetitive data should shrink")

	for idx := range data {
		data[idx] = 0
	}

	compress.DecompressUInt32Slice(packed, data)

	for idx := range data {
		assert.Equal(t, uint32(7), data[idx], "value at index %d", idx)
	}
}

func TestBytes_RoundTrip(t *testing.T) {
	t.Parallel()

	blob := bytes.Repeat([]byte("line of text\n"), 512)
	packed := compress.Bytes(blob)

	require.NotNil(t, packed)
	assert.Less(t, len(packed), len(blob))

	restored := make([]byte, len(blob))
	compress.DecompressBytes(packed, restored)

	assert.Equal(t, blob, restored)
}

func TestUInt32Slice_IncompressibleRoundTrip(t *testing.T) {
	t.Parallel()

	// Tiny high-entropy input: LZ4 cannot shrink it, the raw frame must
	// still round-trip.
	data := []uint32{0xdeadbeef, 0x01, 0xffffffff, 0x12345678}
	packed := compress.UInt32Slice(data)
	require.NotNil(t, packed)

	restored := make([]uint32, len(data))
	compress.DecompressUInt32Slice(packed, restored)

	assert.Equal(t, data, restored)
}

func TestBytes_IncompressibleRoundTrip(t *testing.T) {
	t.Parallel()

	blob := []byte{0x00, 0xff, 0x7a, 0x01, 0x9c}
	packed := compress.Bytes(blob)
	require.NotNil(t, packed)

	restored := make([]byte, len(blob))
	compress.DecompressBytes(packed, restored)

	assert.Equal(t, blob, restored)
}

func TestBytes_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, compress.Bytes(nil))
	assert.Nil(t, compress.Bytes([]byte{}))
}

func TestDeltaEncode_SortedAscending(t *testing.T) {
	t.Parallel()

	original := make([]uint32, deltaTestSize)
	for i := range original {
		original[i] = uint32(i * deltaTestSortStep)
	}

	data := make([]uint32, len(original))
	copy(data, original)

	compress.DeltaEncodeUInt32Slice(data)

	// After encoding, first element unchanged, rest should be the step.
	assert.Equal(t, original[0], data[0])

	for i := 1; i < len(data); i++ {
		assert.Equal(t, uint32(deltaTestSortStep), data[i], "delta at index %d", i)
	}

	compress.DeltaDecodeUInt32Slice(data)
	assert.Equal(t, original, data)
}

func TestDeltaEncode_Empty(t *testing.T) {
	t.Parallel()

	var data []uint32

	compress.DeltaEncodeUInt32Slice(data)
	compress.DeltaDecodeUInt32Slice(data)

	assert.Empty(t, data)
}

func TestDeltaEncode_LineStartsShape(t *testing.T) {
	t.Parallel()

	// line_starts sequences are strictly ascending and start at zero.
	original := []uint32{0, 6, 12, 40, 41, 90}
	data := make([]uint32, len(original))
	copy(data, original)

	compress.DeltaEncodeUInt32Slice(data)
	compress.DeltaDecodeUInt32Slice(data)

	assert.Equal(t, original, data)
}
