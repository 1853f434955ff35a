package textbuf

import (
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/piecetree/pkg/bufstore"
	"github.com/Sumatoshi-tech/piecetree/pkg/piecetree"
	"github.com/Sumatoshi-tech/piecetree/pkg/safeconv"
)

// builderChunkSize is the read granularity of Builder.ReadFrom.
const builderChunkSize = 64 * 1024

// Builder assembles a document from text chunks in arrival order. The first
// non-empty chunk becomes the original buffer; later chunks go to the added
// buffer; the tree is then constructed by a balanced bottom-up build so the
// initial shape is logarithmic rather than a chain.
type Builder struct {
	store  *bufstore.Store
	pieces []piecetree.Piece
	built  bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AcceptChunk appends one chunk of text. Empty chunks are ignored.
func (builder *Builder) AcceptChunk(text string) {
	if builder.built {
		panic("builder already consumed by Build")
	}

	if len(text) == 0 {
		return
	}

	if builder.store == nil {
		builder.store = bufstore.NewStore([]byte(text))
		builder.pieces = append(builder.pieces, piecetree.MakePiece(
			builder.store, bufstore.Original, 0, safeconv.MustIntToUint32(len(text))))

		return
	}

	start, length := builder.store.Append([]byte(text))
	builder.pieces = append(builder.pieces, piecetree.MakePiece(
		builder.store, bufstore.Added, start, length))
}

// ReadFrom streams the reader's content through AcceptChunk in 64 KiB
// chunks and returns the number of bytes consumed.
func (builder *Builder) ReadFrom(reader io.Reader) (int64, error) {
	chunk := make([]byte, builderChunkSize)
	total := int64(0)

	for {
		read, err := reader.Read(chunk)
		if read > 0 {
			builder.AcceptChunk(string(chunk[:read]))
			total += int64(read)
		}

		if err == io.EOF {
			return total, nil
		}

		if err != nil {
			return total, fmt.Errorf("read chunk: %w", err)
		}
	}
}

// Build constructs the document. The builder cannot be reused afterwards.
func (builder *Builder) Build() *TextBuffer {
	if builder.built {
		panic("builder already consumed by Build")
	}

	builder.built = true

	if builder.store == nil {
		builder.store = bufstore.NewStore(nil)
	}

	return &TextBuffer{
		store: builder.store,
		tree:  piecetree.Build(piecetree.NewAllocator(), builder.store, builder.pieces),
	}
}
