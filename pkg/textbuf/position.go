package textbuf

// Position addresses a point in the document by zero-based line and column.
// Columns are counted in Unicode code points, not bytes, so multi-byte
// characters occupy one column.
type Position struct {
	Line   int
	Column int
}

// Compare orders positions by line, then column. Returns -1, 0 or 1.
func (position Position) Compare(other Position) int {
	switch {
	case position.Line != other.Line:
		if position.Line < other.Line {
			return -1
		}

		return 1
	case position.Column != other.Column:
		if position.Column < other.Column {
			return -1
		}

		return 1
	default:
		return 0
	}
}

// Before reports whether position precedes other in document order.
func (position Position) Before(other Position) bool {
	return position.Compare(other) < 0
}

// After reports whether position follows other in document order.
func (position Position) After(other Position) bool {
	return position.Compare(other) > 0
}

// Range is a half-open span of the document between two positions.
type Range struct {
	Start Position
	End   Position
}
