package textbuf

import (
	"errors"

	"github.com/Sumatoshi-tech/piecetree/pkg/piecetree"
)

// The offset and line sentinels are the tree's own, re-exported so that
// errors.Is matches across layers. Invalid input is always reported, never
// clamped; clamping would silently corrupt the offset arithmetic callers
// rely on.
var (
	ErrOffsetOutOfRange = piecetree.ErrOffsetOutOfRange
	ErrLineOutOfRange   = piecetree.ErrLineOutOfRange

	// ErrPositionOutOfRange is returned when a (line, column) pair lies
	// beyond the document.
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrInvalidRange is returned when a range's end precedes its start.
	ErrInvalidRange = errors.New("invalid range")
)
