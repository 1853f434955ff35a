package textbuf

import (
	"fmt"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/piecetree/pkg/textutil"
)

// GetLineContent returns the zero-based line without its terminating
// boundary: the '\n' and an immediately preceding '\r' are excluded. Fails
// with ErrLineOutOfRange when the line does not exist. O(log n + line
// length).
func (buffer *TextBuffer) GetLineContent(line int) (string, error) {
	buffer.use()

	start, end, err := buffer.lineSpan(line)
	if err != nil {
		return "", err
	}

	return string(textutil.TrimLineBreak(buffer.sliceBytes(start, end))), nil
}

// GetLineLength returns the byte length of GetLineContent(line) without
// materializing the content.
func (buffer *TextBuffer) GetLineLength(line int) (int, error) {
	buffer.use()

	start, end, err := buffer.lineSpan(line)
	if err != nil {
		return 0, err
	}

	length := end - start

	if line < buffer.LineCount()-1 {
		// The span of a terminated line includes its '\n'; "\r\n" is one
		// boundary.
		length--

		if end >= start+2 && buffer.byteAt(end-2) == '\r' {
			length--
		}
	}

	return int(length), nil
}

// lineSpan returns the [start, end) byte span of the line including its
// terminating boundary, if any.
func (buffer *TextBuffer) lineSpan(line int) (uint32, uint32, error) {
	if line < 0 || line >= buffer.LineCount() {
		return 0, 0, fmt.Errorf("line %d in document of %d lines: %w",
			line, buffer.LineCount(), ErrLineOutOfRange)
	}

	_, start, err := buffer.tree.SearchByLine(uint32(line))
	if err != nil {
		return 0, 0, err
	}

	if line == buffer.LineCount()-1 {
		return start, buffer.tree.TotalLength(), nil
	}

	_, end, err := buffer.tree.SearchByLine(uint32(line) + 1)
	if err != nil {
		return 0, 0, err
	}

	return start, end, nil
}

// PositionToOffset converts a (line, column) position to a byte offset.
// Columns are counted in code points over the line excluding only its
// terminating '\n' (the '\r' of a "\r\n" boundary is addressable); the
// column one past that addresses the end-of-line cursor slot. Fails with
// ErrPositionOutOfRange beyond it.
func (buffer *TextBuffer) PositionToOffset(position Position) (int, error) {
	buffer.use()

	if position.Line < 0 || position.Column < 0 || position.Line >= buffer.LineCount() {
		return 0, fmt.Errorf("position %+v in document of %d lines: %w",
			position, buffer.LineCount(), ErrPositionOutOfRange)
	}

	start, end, err := buffer.lineSpan(position.Line)
	if err != nil {
		return 0, err
	}

	content := buffer.sliceBytes(start, end)

	// Columns walk everything up to the terminating '\n' only; the '\r' of a
	// "\r\n" boundary stays addressable so offset/position conversions stay
	// inverse of each other.
	if position.Line < buffer.LineCount()-1 {
		content = content[:len(content)-1]
	}

	byteColumn := 0
	column := 0

	for byteColumn < len(content) && column < position.Column {
		_, size := utf8.DecodeRune(content[byteColumn:])
		byteColumn += size
		column++
	}

	if column < position.Column {
		return 0, fmt.Errorf("column %d beyond line %d of %d code points: %w",
			position.Column, position.Line, column, ErrPositionOutOfRange)
	}

	return int(start) + byteColumn, nil
}

// OffsetToPosition converts a byte offset to a (line, column) position with
// the column counted in code points. Fails with ErrOffsetOutOfRange when the
// offset lies outside [0, Length()].
func (buffer *TextBuffer) OffsetToPosition(offset int) (Position, error) {
	buffer.use()

	if offset < 0 || offset > buffer.Length() {
		return Position{}, fmt.Errorf("offset %d in document of length %d: %w",
			offset, buffer.Length(), ErrOffsetOutOfRange)
	}

	line := buffer.tree.LineFeedsBefore(uint32(offset))

	_, start, err := buffer.tree.SearchByLine(line)
	if err != nil {
		return Position{}, err
	}

	prefix := buffer.sliceBytes(start, uint32(offset))

	return Position{Line: int(line), Column: utf8.RuneCount(prefix)}, nil
}
