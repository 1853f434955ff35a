// Package bufstore owns the backing buffers of a piece-tree document: the
// immutable original buffer created at construction and the single
// append-only added buffer that accumulates edit text. Each buffer carries a
// sorted line-start index so that line-break counts over any byte range
// resolve with a binary search instead of a scan.
//
// Line-boundary policy: a boundary is a '\n' byte, with "\r\n" forming a
// single boundary; a lone '\r' is ordinary content. A line starts at offset 0
// and after every '\n'.
package bufstore

import (
	"sort"

	"github.com/Sumatoshi-tech/piecetree/pkg/safeconv"
	"github.com/Sumatoshi-tech/piecetree/pkg/textutil"
)

// BufferID identifies a buffer within a Store. Pieces hold ids, never
// direct slices, so the store's internal reallocation cannot invalidate them.
type BufferID uint32

const (
	// Original is the immutable buffer holding the document's initial content.
	Original BufferID = 0

	// Added is the append-only buffer holding all text introduced by edits.
	Added BufferID = 1
)

const bufferCount = 2

type buffer struct {
	content    []byte
	lineStarts []uint32
}

// Store owns a document's backing buffers. It performs no locking; the
// caller serializes mutations (see the engine's concurrency contract).
type Store struct {
	buffers [bufferCount]buffer
	hib     *hibernatedStore
}

// NewStore creates a store whose original buffer holds a copy of text.
// The added buffer starts empty.
func NewStore(text []byte) *Store {
	store := &Store{}

	content := make([]byte, len(text))
	copy(content, text)

	store.buffers[Original] = buffer{
		content:    content,
		lineStarts: textutil.AppendLineStarts([]uint32{0}, content, 0),
	}
	store.buffers[Added] = buffer{
		content:    []byte{},
		lineStarts: []uint32{0},
	}

	return store
}

func (store *Store) use() {
	if store.hib != nil {
		panic("hibernated buffer stores cannot be used")
	}
}

// Append adds text to the end of the added buffer and extends its line-start
// index with boundaries found in the appended suffix. Returns the start
// offset and length of the new span.
func (store *Store) Append(text []byte) (start, length uint32) {
	store.use()

	added := &store.buffers[Added]
	start = safeconv.MustIntToUint32(len(added.content))
	length = safeconv.MustIntToUint32(len(text))

	added.content = append(added.content, text...)
	added.lineStarts = textutil.AppendLineStarts(added.lineStarts, text, start)

	return start, length
}

// Len returns the byte length of the identified buffer.
func (store *Store) Len(id BufferID) uint32 {
	store.use()

	return safeconv.MustIntToUint32(len(store.buffers[id].content))
}

// AddedLen returns the byte length of the added buffer. Insert coalescing
// compares a piece's end against this value before appending.
func (store *Store) AddedLen() uint32 {
	return store.Len(Added)
}

// Bytes returns the [start, end) span of the identified buffer. The slice
// aliases the store's memory and must not be mutated or retained across
// hibernation.
func (store *Store) Bytes(id BufferID, start, end uint32) []byte {
	store.use()

	return store.buffers[id].content[start:end]
}

// LineRangeCount returns the number of line boundaries whose '\n' byte lies
// in [start, end) of the identified buffer.
func (store *Store) LineRangeCount(id BufferID, start, end uint32) uint32 {
	store.use()

	starts := store.buffers[id].lineStarts

	// A '\n' at position p-1 registers a line start at p, so boundaries in
	// [start, end) are exactly the line starts in (start, end].
	lo := sort.Search(len(starts), func(i int) bool { return starts[i] > start })
	hi := sort.Search(len(starts), func(i int) bool { return starts[i] > end })

	return uint32(hi - lo)
}

// LineStartWithin returns the absolute offset of the k-th line start after
// pieceStart in the identified buffer, k >= 1. The caller guarantees the
// piece contains at least k boundaries.
func (store *Store) LineStartWithin(id BufferID, pieceStart uint32, k uint32) uint32 {
	store.use()

	starts := store.buffers[id].lineStarts
	lo := sort.Search(len(starts), func(i int) bool { return starts[i] > pieceStart })
	idx := lo + int(k) - 1

	if idx >= len(starts) {
		panic("bufstore: line start index out of range")
	}

	return starts[idx]
}

// Clone returns a deep copy of the store.
func (store *Store) Clone() *Store {
	store.use()

	clone := &Store{}

	for idx := range store.buffers {
		src := &store.buffers[idx]

		content := make([]byte, len(src.content))
		copy(content, src.content)

		starts := make([]uint32, len(src.lineStarts))
		copy(starts, src.lineStarts)

		clone.buffers[idx] = buffer{content: content, lineStarts: starts}
	}

	return clone
}

// LiveSize returns the resident byte footprint of buffer contents and
// line-start indices.
func (store *Store) LiveSize() int {
	store.use()

	size := 0
	for idx := range store.buffers {
		size += len(store.buffers[idx].content)
		size += len(store.buffers[idx].lineStarts) * 4
	}

	return size
}
