package lspserver

import (
	"fmt"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
)

// utf16Units returns the UTF-16 code-unit width of a rune: astral-plane
// characters occupy a surrogate pair.
func utf16Units(r rune) int {
	if r > 0xFFFF {
		return 2
	}

	return 1
}

// utf16ToCodePoints converts a UTF-16 column on a line to a code-point
// column. Columns past the line end clamp to the end-of-line cursor slot,
// matching the protocol's lenient position semantics.
func utf16ToCodePoints(line string, utf16Col int) int {
	units := 0
	codePoints := 0

	for _, r := range line {
		if units >= utf16Col {
			break
		}

		units += utf16Units(r)
		codePoints++
	}

	return codePoints
}

// codePointsToUTF16 converts a code-point column on a line to UTF-16 units.
func codePointsToUTF16(line string, cpCol int) int {
	units := 0
	codePoints := 0

	for _, r := range line {
		if codePoints >= cpCol {
			break
		}

		units += utf16Units(r)
		codePoints++
	}

	return units
}

// protocolPosition is a protocol-side (line, UTF-16 character) position,
// decoupled from glsp types so conversion stays testable.
type protocolPosition struct {
	Line      int
	Character int
}

// offsetForPosition resolves a protocol position to an engine byte offset.
// The protocol column counts UTF-16 units; the engine counts code points.
func offsetForPosition(buffer *textbuf.TextBuffer, pos protocolPosition) (int, error) {
	line, err := buffer.GetLineContent(pos.Line)
	if err != nil {
		return 0, fmt.Errorf("resolve line %d: %w", pos.Line, err)
	}

	offset, err := buffer.PositionToOffset(textbuf.Position{
		Line:   pos.Line,
		Column: utf16ToCodePoints(line, pos.Character),
	})
	if err != nil {
		return 0, fmt.Errorf("resolve position %d:%d: %w", pos.Line, pos.Character, err)
	}

	return offset, nil
}
