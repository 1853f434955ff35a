// Package piecetree implements the core of the text engine: immutable piece
// descriptors over backing buffers, indexed by a red-black tree augmented
// with left-subtree byte and line-break aggregates. In-order traversal of
// the tree concatenates to the document; the aggregates make offset and line
// lookups logarithmic.
//
// Nodes live in an index-addressed arena (see Allocator): children and the
// parent back-reference are uint32 indices, index 0 is the shared nil
// sentinel, and rotations are index-local field swaps.
package piecetree

import (
	"github.com/Sumatoshi-tech/piecetree/pkg/bufstore"
)

// Piece describes a contiguous span [Start, Start+Length) inside one backing
// buffer, identified by id rather than by reference so buffer reallocation
// never invalidates it. Pieces are immutable values; splitting produces new
// pieces.
type Piece struct {
	Buffer    bufstore.BufferID
	Start     uint32
	Length    uint32
	LineFeeds uint32
}

// End returns the exclusive end offset of the piece within its buffer.
func (piece Piece) End() uint32 {
	return piece.Start + piece.Length
}

// Split divides the piece at local, 0 < local < Length. The left half covers
// [0, local) with leftLineFeeds boundaries; the right half covers the
// remainder. The caller computes leftLineFeeds, normally via
// [bufstore.Store.LineRangeCount].
func (piece Piece) Split(local, leftLineFeeds uint32) (left, right Piece) {
	doAssert(local > 0 && local < piece.Length)
	doAssert(leftLineFeeds <= piece.LineFeeds)

	left = Piece{
		Buffer:    piece.Buffer,
		Start:     piece.Start,
		Length:    local,
		LineFeeds: leftLineFeeds,
	}
	right = Piece{
		Buffer:    piece.Buffer,
		Start:     piece.Start + local,
		Length:    piece.Length - local,
		LineFeeds: piece.LineFeeds - leftLineFeeds,
	}

	return left, right
}

// MakePiece builds a piece over [start, start+length) of the identified
// buffer, counting its line boundaries through the store.
func MakePiece(store *bufstore.Store, id bufstore.BufferID, start, length uint32) Piece {
	return Piece{
		Buffer:    id,
		Start:     start,
		Length:    length,
		LineFeeds: store.LineRangeCount(id, start, start+length),
	}
}
