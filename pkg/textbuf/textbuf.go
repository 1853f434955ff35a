// Package textbuf is the text-engine façade over the piece tree: a
// TextBuffer holds the backing buffer store and the augmented tree, and
// exposes insert/delete plus offset, line and position queries. Mutations
// must be serialized by the caller; read-only queries may run concurrently
// with each other but never with a mutation.
package textbuf

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/piecetree/pkg/bufstore"
	"github.com/Sumatoshi-tech/piecetree/pkg/piecetree"
	"github.com/Sumatoshi-tech/piecetree/pkg/safeconv"
)

// TextBuffer is an in-memory document: an immutable original buffer, one
// append-only added buffer, and a piece tree stitching them together.
type TextBuffer struct {
	store      *bufstore.Store
	tree       *piecetree.Tree
	hibernated bool
}

// New creates a document from its initial text. Empty text yields an empty
// tree; no zero-length pieces exist, ever.
func New(text string) *TextBuffer {
	store := bufstore.NewStore([]byte(text))

	var pieces []piecetree.Piece
	if len(text) > 0 {
		pieces = []piecetree.Piece{
			piecetree.MakePiece(store, bufstore.Original, 0, safeconv.MustIntToUint32(len(text))),
		}
	}

	return &TextBuffer{
		store: store,
		tree:  piecetree.Build(piecetree.NewAllocator(), store, pieces),
	}
}

func (buffer *TextBuffer) use() {
	if buffer.hibernated {
		panic("hibernated text buffers cannot be used")
	}
}

// Length returns the document's byte length. O(1).
func (buffer *TextBuffer) Length() int {
	buffer.use()

	return safeconv.MustUint32ToInt(buffer.tree.TotalLength())
}

// LineCount returns the number of lines. The fragment after the last
// boundary is itself a line, possibly empty, so an empty document has one
// line. O(1).
func (buffer *TextBuffer) LineCount() int {
	buffer.use()

	return safeconv.MustUint32ToInt(buffer.tree.TotalLineFeeds()) + 1
}

// IsEmpty reports whether the document holds no bytes.
func (buffer *TextBuffer) IsEmpty() bool {
	buffer.use()

	return buffer.tree.TotalLength() == 0
}

// PieceCount returns the number of pieces in the tree. Debugging aid.
func (buffer *TextBuffer) PieceCount() int {
	buffer.use()

	return buffer.tree.Len()
}

// Insert places text at the byte offset. Fails with ErrOffsetOutOfRange when
// the offset lies outside [0, Length()]. Empty text is a no-op. O(log n)
// plus the cost of appending text to the added buffer.
func (buffer *TextBuffer) Insert(offset int, text string) error {
	buffer.use()

	if offset < 0 || offset > buffer.Length() {
		return fmt.Errorf("insert at %d in document of length %d: %w",
			offset, buffer.Length(), ErrOffsetOutOfRange)
	}

	if len(text) == 0 {
		return nil
	}

	addedTail := buffer.store.AddedLen()
	start, length := buffer.store.Append([]byte(text))
	piece := piecetree.MakePiece(buffer.store, bufstore.Added, start, length)

	if buffer.tree.Len() == 0 {
		return buffer.tree.InsertPieceAt(0, piece)
	}

	iter, local, err := buffer.tree.SearchByOffset(uint32(offset))
	if err != nil {
		return err
	}

	// Typing at the tail of the previously typed piece extends it in place
	// instead of fragmenting the tree with one piece per keystroke.
	if prev, ok := buffer.coalesceTarget(iter, local, addedTail); ok {
		grown := prev.Piece()
		grown.Length += piece.Length
		grown.LineFeeds += piece.LineFeeds
		buffer.tree.UpdatePiece(prev, grown)

		return nil
	}

	target := iter.Piece()

	switch {
	case local == 0:
		buffer.tree.InsertBefore(iter, piece)
	case local == target.Length:
		buffer.tree.InsertAfter(iter, piece)
	default:
		buffer.splitAndInsert(iter, local, uint32(offset), piece)
	}

	return nil
}

// coalesceTarget finds the piece ending exactly at the insert position when
// that piece is the current tail of the added buffer. The search resolves a
// boundary offset to the following piece, so the candidate is normally the
// predecessor; at end of document it is the located piece itself.
func (buffer *TextBuffer) coalesceTarget(
	iter piecetree.Iterator, local, addedTail uint32,
) (piecetree.Iterator, bool) {
	if local == 0 && !iter.Min() {
		prev := iter.Prev()
		if piece := prev.Piece(); piece.Buffer == bufstore.Added && piece.End() == addedTail {
			return prev, true
		}

		return iter, false
	}

	if piece := iter.Piece(); local == piece.Length &&
		piece.Buffer == bufstore.Added && piece.End() == addedTail {
		return iter, true
	}

	return iter, false
}

// splitAndInsert replaces the piece containing the insert position with the
// ordered sequence {left remainder, new piece, right remainder}: one
// deletion followed by sequential insertions at the same position.
func (buffer *TextBuffer) splitAndInsert(
	iter piecetree.Iterator, local, offset uint32, piece piecetree.Piece,
) {
	target := iter.Piece()
	leftFeeds := buffer.store.LineRangeCount(target.Buffer, target.Start, target.Start+local)
	left, right := target.Split(local, leftFeeds)
	pieceStart := offset - local

	buffer.tree.Delete(iter)

	mustInsert(buffer.tree.InsertPieceAt(pieceStart, left))
	mustInsert(buffer.tree.InsertPieceAt(pieceStart+left.Length, piece))
	mustInsert(buffer.tree.InsertPieceAt(pieceStart+left.Length+piece.Length, right))
}

func mustInsert(err error) {
	if err != nil {
		panic(fmt.Sprintf("textbuf: re-insertion at a vacated position failed: %v", err))
	}
}

// Delete removes length bytes starting at offset. Fails with
// ErrOffsetOutOfRange when the span leaves [0, Length()]. Zero length is a
// no-op. Boundary pieces are truncated in place; fully covered pieces are
// removed; a deletion strictly inside one piece keeps the head in place and
// re-inserts the tail after it.
func (buffer *TextBuffer) Delete(offset, length int) error {
	buffer.use()

	if offset < 0 || length < 0 || offset+length > buffer.Length() {
		return fmt.Errorf("delete [%d, %d) in document of length %d: %w",
			offset, offset+length, buffer.Length(), ErrOffsetOutOfRange)
	}

	if length == 0 {
		return nil
	}

	position := uint32(offset)
	remaining := uint32(length)

	for remaining > 0 {
		iter, local, err := buffer.tree.SearchByOffset(position)
		if err != nil {
			return err
		}

		piece := iter.Piece()

		switch {
		case local == 0 && remaining >= piece.Length:
			buffer.tree.Delete(iter)

			remaining -= piece.Length
		case local == 0:
			// Drop the piece's head.
			buffer.tree.UpdatePiece(iter, piecetree.MakePiece(
				buffer.store, piece.Buffer, piece.Start+remaining, piece.Length-remaining))

			remaining = 0
		case local+remaining >= piece.Length:
			// Drop the piece's tail.
			trimmed := piece.Length - local
			buffer.tree.UpdatePiece(iter, piecetree.MakePiece(
				buffer.store, piece.Buffer, piece.Start, local))

			remaining -= trimmed
		default:
			// Strictly inside one piece: keep the head, re-insert the tail.
			headFeeds := buffer.store.LineRangeCount(piece.Buffer, piece.Start, piece.Start+local)
			head, rest := piece.Split(local, headFeeds)

			cutFeeds := buffer.store.LineRangeCount(rest.Buffer, rest.Start, rest.Start+remaining)
			_, tail := rest.Split(remaining, cutFeeds)

			buffer.tree.UpdatePiece(iter, head)
			buffer.tree.InsertAfter(iter, tail)

			remaining = 0
		}
	}

	return nil
}

// GetAllText returns the whole document. O(document size).
func (buffer *TextBuffer) GetAllText() string {
	buffer.use()

	builder := &strings.Builder{}
	builder.Grow(buffer.Length())

	buffer.tree.ForEach(func(piece piecetree.Piece) bool {
		builder.Write(buffer.store.Bytes(piece.Buffer, piece.Start, piece.End()))

		return true
	})

	return builder.String()
}

// Slice returns the document bytes in [start, end) as a string. Fails with
// ErrInvalidRange when end < start, ErrOffsetOutOfRange when either bound
// leaves the document. O(log n + k).
func (buffer *TextBuffer) Slice(start, end int) (string, error) {
	buffer.use()

	if end < start {
		return "", fmt.Errorf("slice end %d before start %d: %w", end, start, ErrInvalidRange)
	}

	if start < 0 || end > buffer.Length() {
		return "", fmt.Errorf("slice [%d, %d) in document of length %d: %w",
			start, end, buffer.Length(), ErrOffsetOutOfRange)
	}

	return string(buffer.sliceBytes(uint32(start), uint32(end))), nil
}

// GetTextInRange returns the text between two positions. Fails with
// ErrInvalidRange when the end position precedes the start; position
// resolution errors propagate unchanged.
func (buffer *TextBuffer) GetTextInRange(textRange Range) (string, error) {
	buffer.use()

	if textRange.End.Before(textRange.Start) {
		return "", fmt.Errorf("range end %+v before start %+v: %w",
			textRange.End, textRange.Start, ErrInvalidRange)
	}

	start, err := buffer.PositionToOffset(textRange.Start)
	if err != nil {
		return "", err
	}

	end, err := buffer.PositionToOffset(textRange.End)
	if err != nil {
		return "", err
	}

	if start > end || end > buffer.Length() {
		return "", fmt.Errorf("range [%d, %d) in document of length %d: %w",
			start, end, buffer.Length(), ErrOffsetOutOfRange)
	}

	return string(buffer.sliceBytes(uint32(start), uint32(end))), nil
}

// sliceBytes gathers [start, end) by walking pieces from the start offset.
// Bounds are the caller's responsibility.
func (buffer *TextBuffer) sliceBytes(start, end uint32) []byte {
	if start == end {
		return nil
	}

	iter, local, err := buffer.tree.SearchByOffset(start)
	if err != nil {
		panic(fmt.Sprintf("textbuf: slice start %d out of bounds: %v", start, err))
	}

	out := make([]byte, 0, end-start)
	remaining := end - start

	for remaining > 0 {
		piece := iter.Piece()

		take := piece.Length - local
		if take > remaining {
			take = remaining
		}

		out = append(out, buffer.store.Bytes(piece.Buffer, piece.Start+local, piece.Start+local+take)...)
		remaining -= take
		local = 0
		iter = iter.Next()
	}

	return out
}

// byteAt returns the byte at the offset. REQUIRES offset < Length().
func (buffer *TextBuffer) byteAt(offset uint32) byte {
	iter, local, err := buffer.tree.SearchByOffset(offset)
	if err != nil {
		panic(fmt.Sprintf("textbuf: byte at %d out of bounds: %v", offset, err))
	}

	piece := iter.Piece()

	return buffer.store.Bytes(piece.Buffer, piece.Start+local, piece.Start+local+1)[0]
}

// Snapshot returns a deep copy sharing nothing with the source; edits to
// either side never affect the other.
func (buffer *TextBuffer) Snapshot() *TextBuffer {
	buffer.use()

	store := buffer.store.Clone()

	return &TextBuffer{
		store: store,
		tree:  buffer.tree.CloneDeep(piecetree.NewAllocator(), store),
	}
}

// Validate audits the tree invariants, piece spans against buffer bounds,
// and the running totals. Intended for tests and debugging.
func (buffer *TextBuffer) Validate() error {
	buffer.use()

	if err := buffer.tree.Validate(); err != nil {
		return fmt.Errorf("text buffer audit: %w", err)
	}

	return nil
}

// Hibernate parks the document in LZ4-compressed form: buffer contents,
// line-start indices and the node arena. Any operation before Boot panics.
func (buffer *TextBuffer) Hibernate() {
	buffer.use()

	buffer.store.Hibernate()
	buffer.tree.Allocator().Hibernate()
	buffer.hibernated = true
}

// Boot restores a hibernated document.
func (buffer *TextBuffer) Boot() {
	if !buffer.hibernated {
		return
	}

	buffer.tree.Allocator().Boot()
	buffer.store.Boot()
	buffer.hibernated = false
}

// LiveSize returns the resident byte footprint of the buffers and the node
// arena.
func (buffer *TextBuffer) LiveSize() int {
	buffer.use()

	return buffer.store.LiveSize() + buffer.tree.Allocator().LiveSize()
}

// HibernatedSize returns the compressed footprint, or 0 when live.
func (buffer *TextBuffer) HibernatedSize() int {
	if !buffer.hibernated {
		return 0
	}

	return buffer.store.HibernatedSize() + buffer.tree.Allocator().HibernatedSize()
}

// TreeHeight returns the number of levels in the piece tree. Debugging aid.
func (buffer *TextBuffer) TreeHeight() int {
	buffer.use()

	return buffer.tree.Height()
}
