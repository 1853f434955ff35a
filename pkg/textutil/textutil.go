// Package textutil provides byte-level text utilities: line-boundary
// scanning under the engine's fixed policy, binary detection, and byte-slice
// reader adapters.
package textutil

import (
	"bytes"
	"io"
)

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// AppendLineStarts appends to dst the start offset of every line that begins
// inside data, shifted by base. A line begins right after each '\n'; '\r' on
// its own never opens a line, so "\r\n" contributes exactly one boundary.
// The offset of data's own first line is not appended; callers seed dst with
// it (0 for a fresh buffer).
func AppendLineStarts(dst []uint32, data []byte, base uint32) []uint32 {
	for idx := 0; idx < len(data); {
		pos := bytes.IndexByte(data[idx:], '\n')
		if pos < 0 {
			break
		}

		idx += pos + 1
		dst = append(dst, base+uint32(idx))
	}

	return dst
}

// CountLineBreaks returns the number of line boundaries in data: '\n' bytes,
// with "\r\n" counting once and a lone '\r' not counting at all.
func CountLineBreaks(data []byte) uint32 {
	return uint32(bytes.Count(data, []byte{'\n'}))
}

// CountLines returns the number of newline-delimited lines in data.
// A non-empty buffer without a trailing newline counts the last partial line.
// Returns 0 for empty data.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// TrimLineBreak removes a terminating line boundary from data: a trailing
// '\n' and, if present, the '\r' immediately before it. A lone trailing '\r'
// is content and stays.
func TrimLineBreak(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]

		if len(data) > 0 && data[len(data)-1] == '\r' {
			data = data[:len(data)-1]
		}
	}

	return data
}

// BytesReader wraps a byte slice as an [io.ReadCloser].
// The returned closer is a no-op.
func BytesReader(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}
