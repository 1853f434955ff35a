package textbuf_test

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
)

func TestNew_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"single line", "hello"},
		{"trailing newline", "Hello\nWorld\n"},
		{"crlf", "a\r\nb\r\n"},
		{"lone carriage return", "a\rb"},
		{"multibyte", "héllo wörld\n日本語\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			buffer := textbuf.New(tc.text)

			assert.Equal(t, tc.text, buffer.GetAllText())
			assert.Equal(t, len(tc.text), buffer.Length())
			require.NoError(t, buffer.Validate())
		})
	}
}

func TestNew_Empty(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("")

	assert.True(t, buffer.IsEmpty())
	assert.Equal(t, 0, buffer.Length())
	assert.Equal(t, 1, buffer.LineCount())
	assert.Equal(t, 0, buffer.PieceCount())

	content, err := buffer.GetLineContent(0)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestScenarioA_LineAccess(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")

	assert.Equal(t, 3, buffer.LineCount())

	for line, expected := range []string{"Hello", "World", ""} {
		content, err := buffer.GetLineContent(line)
		require.NoError(t, err)
		assert.Equal(t, expected, content, "line %d", line)
	}
}

func TestScenarioB_Insert(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")

	require.NoError(t, buffer.Insert(5, " there"))

	assert.Equal(t, "Hello there\nWorld\n", buffer.GetAllText())
	assert.Equal(t, 18, buffer.Length())
	require.NoError(t, buffer.Validate())
}

func TestScenarioC_Delete(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")

	require.NoError(t, buffer.Delete(0, 6))

	assert.Equal(t, "World\n", buffer.GetAllText())
	require.NoError(t, buffer.Validate())
}

func TestScenarioD_Builder(t *testing.T) {
	t.Parallel()

	builder := textbuf.NewBuilder()
	builder.AcceptChunk("Hello")
	builder.AcceptChunk("\n")
	builder.AcceptChunk("World")

	buffer := builder.Build()

	assert.Equal(t, "Hello\nWorld", buffer.GetAllText())
	assert.Equal(t, 2, buffer.LineCount())
	require.NoError(t, buffer.Validate())
}

func TestBoundary_Errors(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")

	_, err := buffer.GetLineContent(buffer.LineCount())
	require.ErrorIs(t, err, textbuf.ErrLineOutOfRange)

	err = buffer.Insert(buffer.Length()+1, "x")
	require.ErrorIs(t, err, textbuf.ErrOffsetOutOfRange)

	err = buffer.Insert(-1, "x")
	require.ErrorIs(t, err, textbuf.ErrOffsetOutOfRange)

	err = buffer.Delete(0, buffer.Length()+1)
	require.ErrorIs(t, err, textbuf.ErrOffsetOutOfRange)

	err = buffer.Delete(-1, 1)
	require.ErrorIs(t, err, textbuf.ErrOffsetOutOfRange)

	_, err = buffer.GetLineContent(-1)
	require.ErrorIs(t, err, textbuf.ErrLineOutOfRange)
}

func TestInsert_LengthInvariant(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("abc")

	before := buffer.Length()
	require.NoError(t, buffer.Insert(1, "xyz"))
	assert.Equal(t, before+3, buffer.Length())

	require.NoError(t, buffer.Delete(2, 2))
	assert.Equal(t, before+1, buffer.Length())
}

func TestInsert_EmptyTextNoOp(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("abc")

	require.NoError(t, buffer.Insert(1, ""))

	assert.Equal(t, "abc", buffer.GetAllText())
	assert.Equal(t, 1, buffer.PieceCount())
}

func TestInsert_IntoEmptyDocument(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("")

	require.NoError(t, buffer.Insert(0, "hello"))

	assert.Equal(t, "hello", buffer.GetAllText())
	require.NoError(t, buffer.Validate())
}

func TestInsert_TypingCoalesces(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("ab")

	// Sequential typing at a moving cursor appends to the added-buffer tail
	// piece instead of allocating a node per keystroke.
	offset := 1
	for _, keystroke := range []string{"x", "y", "z"} {
		require.NoError(t, buffer.Insert(offset, keystroke))

		offset++
	}

	assert.Equal(t, "axyzb", buffer.GetAllText())
	assert.Equal(t, 3, buffer.PieceCount())
	require.NoError(t, buffer.Validate())
}

func TestInsert_AtEndCoalesces(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("")

	require.NoError(t, buffer.Insert(0, "ab"))
	require.NoError(t, buffer.Insert(2, "cd"))
	require.NoError(t, buffer.Insert(4, "ef"))

	assert.Equal(t, "abcdef", buffer.GetAllText())
	assert.Equal(t, 1, buffer.PieceCount())
}

func TestDelete_SpanningPieces(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")
	require.NoError(t, buffer.Insert(5, " there"))

	// Remove " there\nWo" across the inserted piece and both remainders.
	require.NoError(t, buffer.Delete(5, 9))

	assert.Equal(t, "Hellorld\n", buffer.GetAllText())
	require.NoError(t, buffer.Validate())
}

func TestDelete_EntireDocument(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")

	require.NoError(t, buffer.Delete(0, buffer.Length()))

	assert.True(t, buffer.IsEmpty())
	assert.Equal(t, 1, buffer.LineCount())
	assert.Equal(t, "", buffer.GetAllText())
	require.NoError(t, buffer.Validate())
}

func TestDelete_ZeroLengthNoOp(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("abc")

	require.NoError(t, buffer.Delete(1, 0))

	assert.Equal(t, "abc", buffer.GetAllText())
}

func TestGetLineContent_AfterEdits(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("one\ntwo\nthree")

	require.NoError(t, buffer.Insert(4, "2.5\n"))
	require.NoError(t, buffer.Delete(0, 4))

	// Document is now "2.5\ntwo\nthree".
	assert.Equal(t, 3, buffer.LineCount())

	for line, expected := range []string{"2.5", "two", "three"} {
		content, err := buffer.GetLineContent(line)
		require.NoError(t, err)
		assert.Equal(t, expected, content, "line %d", line)
	}
}

func TestGetLineContent_CRLF(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("alpha\r\nbeta\r\ngamma")

	for line, expected := range []string{"alpha", "beta", "gamma"} {
		content, err := buffer.GetLineContent(line)
		require.NoError(t, err)
		assert.Equal(t, expected, content, "line %d", line)
	}
}

func TestCRLF_StraddlingPieceBoundary(t *testing.T) {
	t.Parallel()

	// Insert splits the piece between '\r' and '\n': no phantom line may
	// appear, the '\n' keeps the boundary.
	buffer := textbuf.New("ab\r\ncd")
	require.NoError(t, buffer.Insert(3, "!"))

	assert.Equal(t, "ab\r!\ncd", buffer.GetAllText())
	assert.Equal(t, 2, buffer.LineCount())

	content, err := buffer.GetLineContent(0)
	require.NoError(t, err)
	assert.Equal(t, "ab\r!", content)

	builder := textbuf.NewBuilder()
	builder.AcceptChunk("ab\r")
	builder.AcceptChunk("\ncd")

	chunked := builder.Build()

	assert.Equal(t, 2, chunked.LineCount())

	content, err = chunked.GetLineContent(0)
	require.NoError(t, err)
	assert.Equal(t, "ab", content)
}

func TestGetLineLength(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\r\nWörld\nlast")

	tests := []struct {
		line int
		want int
	}{
		{0, 5},
		{1, 6}, // "Wörld" is 6 bytes.
		{2, 4},
	}

	for _, tc := range tests {
		length, err := buffer.GetLineLength(tc.line)
		require.NoError(t, err)
		assert.Equal(t, tc.want, length, "line %d", tc.line)
	}
}

func TestPositionOffset_RoundTrip(t *testing.T) {
	t.Parallel()

	text := "Hello\nWörld\n日本\n"
	buffer := textbuf.New(text)

	for offset := 0; offset <= len(text); offset++ {
		// Offsets inside a multi-byte character are not addressable by a
		// code-point column; skip them like a host addressing code points.
		if offset < len(text) && !utf8.RuneStart(text[offset]) {
			continue
		}

		position, err := buffer.OffsetToPosition(offset)
		require.NoError(t, err, "offset %d", offset)

		back, err := buffer.PositionToOffset(position)
		require.NoError(t, err, "offset %d", offset)
		require.Equal(t, offset, back, "offset %d", offset)
	}
}

func TestPositionOffset_RoundTripCRLF(t *testing.T) {
	t.Parallel()

	text := "ab\r\ncd\r\n\r\nend"
	buffer := textbuf.New(text)

	for offset := 0; offset <= len(text); offset++ {
		position, err := buffer.OffsetToPosition(offset)
		require.NoError(t, err, "offset %d", offset)

		back, err := buffer.PositionToOffset(position)
		require.NoError(t, err, "offset %d position %+v", offset, position)
		require.Equal(t, offset, back, "offset %d", offset)
	}

	// The '\r' of a boundary is an addressable column.
	position, err := buffer.OffsetToPosition(3)
	require.NoError(t, err)
	assert.Equal(t, textbuf.Position{Line: 0, Column: 3}, position)

	offset, err := buffer.PositionToOffset(position)
	require.NoError(t, err)
	assert.Equal(t, 3, offset)
}

func TestPositionToOffset_CodePointColumns(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("日本語\nx")

	offset, err := buffer.PositionToOffset(textbuf.Position{Line: 0, Column: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, offset)

	// End-of-line cursor slot: column == code-point count.
	offset, err = buffer.PositionToOffset(textbuf.Position{Line: 0, Column: 3})
	require.NoError(t, err)
	assert.Equal(t, 9, offset)

	_, err = buffer.PositionToOffset(textbuf.Position{Line: 0, Column: 4})
	require.ErrorIs(t, err, textbuf.ErrPositionOutOfRange)

	_, err = buffer.PositionToOffset(textbuf.Position{Line: 2, Column: 0})
	require.ErrorIs(t, err, textbuf.ErrPositionOutOfRange)
}

func TestOffsetToPosition_MultibyteColumns(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("日本語\nx")

	position, err := buffer.OffsetToPosition(9)
	require.NoError(t, err)
	assert.Equal(t, textbuf.Position{Line: 0, Column: 3}, position)

	position, err = buffer.OffsetToPosition(10)
	require.NoError(t, err)
	assert.Equal(t, textbuf.Position{Line: 1, Column: 0}, position)

	_, err = buffer.OffsetToPosition(buffer.Length() + 1)
	require.ErrorIs(t, err, textbuf.ErrOffsetOutOfRange)
}

func TestGetTextInRange(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")

	text, err := buffer.GetTextInRange(textbuf.Range{
		Start: textbuf.Position{Line: 0, Column: 3},
		End:   textbuf.Position{Line: 1, Column: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "lo\nWo", text)

	_, err = buffer.GetTextInRange(textbuf.Range{
		Start: textbuf.Position{Line: 1, Column: 0},
		End:   textbuf.Position{Line: 0, Column: 0},
	})
	require.ErrorIs(t, err, textbuf.ErrInvalidRange)

	_, err = buffer.GetTextInRange(textbuf.Range{
		Start: textbuf.Position{Line: 0, Column: 0},
		End:   textbuf.Position{Line: 5, Column: 0},
	})
	require.ErrorIs(t, err, textbuf.ErrPositionOutOfRange)
}

func TestSlice(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")
	require.NoError(t, buffer.Insert(5, " there"))

	text, err := buffer.Slice(3, 14)
	require.NoError(t, err)
	assert.Equal(t, "lo there\nWo", text)

	_, err = buffer.Slice(5, 3)
	require.ErrorIs(t, err, textbuf.ErrInvalidRange)

	_, err = buffer.Slice(0, buffer.Length()+1)
	require.ErrorIs(t, err, textbuf.ErrOffsetOutOfRange)
}

func TestBuilder_StreamingEqualsChunked(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("some document content\nwith lines\n", 4096)

	builder := textbuf.NewBuilder()
	read, err := builder.ReadFrom(strings.NewReader(text))
	require.NoError(t, err)
	require.Equal(t, int64(len(text)), read)

	streamed := builder.Build()

	assert.Equal(t, text, streamed.GetAllText())
	assert.Equal(t, textbuf.New(text).LineCount(), streamed.LineCount())
	require.NoError(t, streamed.Validate())
}

func TestBuilder_EmptyChunksIgnored(t *testing.T) {
	t.Parallel()

	builder := textbuf.NewBuilder()
	builder.AcceptChunk("")
	builder.AcceptChunk("a")
	builder.AcceptChunk("")

	buffer := builder.Build()

	assert.Equal(t, "a", buffer.GetAllText())
	assert.Equal(t, 1, buffer.PieceCount())
}

func TestBuilder_ReusePanics(t *testing.T) {
	t.Parallel()

	builder := textbuf.NewBuilder()
	builder.AcceptChunk("a")
	builder.Build()

	assert.Panics(t, func() { builder.AcceptChunk("b") })
	assert.Panics(t, func() { builder.Build() })
}

func TestSnapshot_Independence(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("Hello\nWorld\n")
	snapshot := buffer.Snapshot()

	require.NoError(t, buffer.Insert(0, "!!"))
	require.NoError(t, snapshot.Delete(0, 6))

	assert.Equal(t, "!!Hello\nWorld\n", buffer.GetAllText())
	assert.Equal(t, "World\n", snapshot.GetAllText())
	require.NoError(t, buffer.Validate())
	require.NoError(t, snapshot.Validate())
}

func TestHibernateBoot_RoundTrip(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New(strings.Repeat("a line of text\n", 500))
	require.NoError(t, buffer.Insert(15, "inserted\n"))

	expected := buffer.GetAllText()
	lines := buffer.LineCount()

	buffer.Hibernate()

	assert.Positive(t, buffer.HibernatedSize())
	assert.Panics(t, func() { buffer.Length() })
	assert.Panics(t, func() { buffer.GetAllText() })

	buffer.Boot()

	assert.Equal(t, expected, buffer.GetAllText())
	assert.Equal(t, lines, buffer.LineCount())
	require.NoError(t, buffer.Validate())
	require.NoError(t, buffer.Insert(0, "post-boot "))
}

func TestRandomizedEditsAgainstModel(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	buffer := textbuf.New("seed\ndocument\n")
	model := []byte("seed\ndocument\n")

	const operations = 400

	alphabet := "abcdefg\nh\r\nij"

	for step := range operations {
		if len(model) == 0 || rng.Intn(5) > 1 {
			offset := rng.Intn(len(model) + 1)
			length := 1 + rng.Intn(6)

			chunk := make([]byte, length)
			for idx := range chunk {
				chunk[idx] = alphabet[rng.Intn(len(alphabet))]
			}

			require.NoError(t, buffer.Insert(offset, string(chunk)), "step %d", step)

			model = append(model[:offset], append(append([]byte{}, chunk...), model[offset:]...)...)
		} else {
			offset := rng.Intn(len(model))
			length := rng.Intn(len(model) - offset + 1)

			require.NoError(t, buffer.Delete(offset, length), "step %d", step)

			model = append(model[:offset], model[offset+length:]...)
		}

		require.NoError(t, buffer.Validate(), "step %d", step)
		require.Equal(t, string(model), buffer.GetAllText(), "step %d", step)
		require.Equal(t, strings.Count(string(model), "\n")+1, buffer.LineCount(), "step %d", step)
	}

	// Line extraction agrees with a straight split of the model.
	expectedLines := strings.Split(string(model), "\n")
	require.Equal(t, len(expectedLines), buffer.LineCount())

	for line, expected := range expectedLines {
		want := expected
		if line < len(expectedLines)-1 {
			// A '\r' directly before the split '\n' belongs to the boundary.
			want = strings.TrimSuffix(expected, "\r")
		}

		content, err := buffer.GetLineContent(line)
		require.NoError(t, err, "line %d", line)
		require.Equal(t, want, content, "line %d", line)
	}
}
