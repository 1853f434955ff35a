// Package compress provides LZ4 block helpers for the hibernation paths:
// uint32 field buffers (delta-encoded where sorted) and raw byte blobs.
// Every blob is framed with a one-byte mode so incompressible inputs fall
// back to a raw copy instead of losing data.
package compress

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

const (
	modeRaw = 0x00
	modeLZ4 = 0x01
)

// UInt32Slice compresses a slice of uint32-s with LZ4. Returns nil for an
// empty slice.
func UInt32Slice(data []uint32) []byte {
	if len(data) == 0 {
		return nil
	}

	raw := make([]byte, len(data)*uint32ByteSize)
	for idx, value := range data {
		binary.LittleEndian.PutUint32(raw[idx*uint32ByteSize:], value)
	}

	return frame(raw)
}

// DecompressUInt32Slice decompresses a slice of uint32-s previously
// compressed with UInt32Slice. `result` must be preallocated to the original
// element count.
func DecompressUInt32Slice(data []byte, result []uint32) {
	if len(result) == 0 {
		return
	}

	raw := make([]byte, len(result)*uint32ByteSize)
	unframe(data, raw)

	for idx := range result {
		result[idx] = binary.LittleEndian.Uint32(raw[idx*uint32ByteSize:])
	}
}

// Bytes compresses a raw byte blob with LZ4. Returns nil for empty input.
func Bytes(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}

	return frame(data)
}

// DecompressBytes decompresses a blob previously compressed with Bytes.
// `result` must be preallocated to the original length.
func DecompressBytes(data []byte, result []byte) {
	if len(result) == 0 {
		return
	}

	unframe(data, result)
}

// DeltaEncodeUInt32Slice replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged. This transforms
// sorted sequences into small, repetitive values that compress better with LZ4.
func DeltaEncodeUInt32Slice(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecodeUInt32Slice performs a prefix-sum to restore original values from
// deltas produced by DeltaEncodeUInt32Slice. The operation is performed in place.
func DeltaDecodeUInt32Slice(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}

// frame prefixes the payload with a mode byte: LZ4 when the block actually
// shrank, a verbatim copy otherwise.
func frame(raw []byte) []byte {
	compressed := make([]byte, 1+lz4.CompressBlockBound(len(raw)))

	written, err := lz4.CompressBlock(raw, compressed[1:], nil)
	if err == nil && written > 0 && written < len(raw) {
		compressed[0] = modeLZ4

		return compressed[:1+written]
	}

	framed := make([]byte, 1+len(raw))
	framed[0] = modeRaw
	copy(framed[1:], raw)

	return framed
}

func unframe(data, result []byte) {
	if len(data) == 0 {
		return
	}

	switch data[0] {
	case modeLZ4:
		_, err := lz4.UncompressBlock(data[1:], result)
		if err != nil {
			return
		}
	case modeRaw:
		copy(result, data[1:])
	}
}
