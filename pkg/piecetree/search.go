package piecetree

import (
	"errors"
	"fmt"
)

// ErrOffsetOutOfRange is returned when a byte offset lies beyond the document.
var ErrOffsetOutOfRange = errors.New("offset out of range")

// ErrLineOutOfRange is returned when a line number lies beyond the document.
var ErrLineOutOfRange = errors.New("line out of range")

// SearchByOffset locates the piece containing the document offset and the
// local offset inside it. An offset at a piece boundary resolves to the
// following piece with local 0, except offset == TotalLength() which
// resolves to the last piece with local == its length. The search fails fast
// on the first out-of-bounds descent.
func (tree *Tree) SearchByOffset(offset uint32) (Iterator, uint32, error) {
	if offset > tree.totalLength {
		return tree.Limit(), 0, fmt.Errorf(
			"offset %d exceeds document length %d: %w", offset, tree.totalLength, ErrOffsetOutOfRange)
	}

	if tree.root == 0 {
		return tree.Limit(), 0, nil
	}

	alloc := tree.storage()
	nodeIdx := tree.root
	remaining := offset

	for {
		nd := &alloc[nodeIdx]

		if remaining < nd.leftLength {
			nodeIdx = nd.left

			continue
		}

		remaining -= nd.leftLength

		if remaining < nd.piece.Length {
			return Iterator{tree, nodeIdx}, remaining, nil
		}

		if nd.right == 0 {
			// Offset == TotalLength(): the end-of-document position
			// belongs to the last piece.
			doAssert(remaining == nd.piece.Length)

			return Iterator{tree, nodeIdx}, remaining, nil
		}

		remaining -= nd.piece.Length
		nodeIdx = nd.right
	}
}

// SearchByLine locates where the zero-based line begins: the iterator points
// at the piece holding the line's first byte (Limit() for the empty line
// after a trailing boundary at end of document) and the returned offset is
// the document offset of the line start.
func (tree *Tree) SearchByLine(line uint32) (Iterator, uint32, error) {
	if line > tree.totalLineFeeds {
		return tree.Limit(), 0, fmt.Errorf(
			"line %d exceeds line count %d: %w", line, tree.totalLineFeeds+1, ErrLineOutOfRange)
	}

	if line == 0 {
		return tree.Min(), 0, nil
	}

	// Find the piece holding the line-th boundary; the line starts right
	// after that boundary's '\n' byte.
	alloc := tree.storage()
	nodeIdx := tree.root
	boundary := line
	offset := uint32(0)

	for {
		doAssert(nodeIdx != 0)

		nd := &alloc[nodeIdx]

		if boundary <= nd.leftLineFeeds {
			nodeIdx = nd.left

			continue
		}

		boundary -= nd.leftLineFeeds
		offset += nd.leftLength

		if boundary <= nd.piece.LineFeeds {
			abs := tree.store.LineStartWithin(nd.piece.Buffer, nd.piece.Start, boundary)
			local := abs - nd.piece.Start
			start := offset + local

			if local == nd.piece.Length {
				// The boundary ends this piece; the line begins in the
				// successor, or nowhere when it is the empty last line.
				return Iterator{tree, doNext(nodeIdx, alloc)}, start, nil
			}

			return Iterator{tree, nodeIdx}, start, nil
		}

		boundary -= nd.piece.LineFeeds
		offset += nd.piece.Length
		nodeIdx = nd.right
	}
}

// LineFeedsBefore returns the number of line boundaries whose '\n' byte lies
// in [0, offset). REQUIRES offset <= TotalLength().
func (tree *Tree) LineFeedsBefore(offset uint32) uint32 {
	doAssert(offset <= tree.totalLength)

	alloc := tree.storage()
	nodeIdx := tree.root
	remaining := offset
	lineFeeds := uint32(0)

	for nodeIdx != 0 {
		nd := &alloc[nodeIdx]

		if remaining < nd.leftLength {
			nodeIdx = nd.left

			continue
		}

		lineFeeds += nd.leftLineFeeds
		remaining -= nd.leftLength

		if remaining <= nd.piece.Length {
			return lineFeeds + tree.store.LineRangeCount(
				nd.piece.Buffer, nd.piece.Start, nd.piece.Start+remaining)
		}

		lineFeeds += nd.piece.LineFeeds
		remaining -= nd.piece.Length
		nodeIdx = nd.right
	}

	return lineFeeds
}
