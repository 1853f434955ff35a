//nolint:testpackage // exercises unexported position conversion helpers.
package lspserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
)

func TestUTF16ToCodePoints_ASCII(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, utf16ToCodePoints("hello", 0))
	assert.Equal(t, 3, utf16ToCodePoints("hello", 3))
	assert.Equal(t, 5, utf16ToCodePoints("hello", 5))
	// Past end of line clamps to the cursor slot.
	assert.Equal(t, 5, utf16ToCodePoints("hello", 99))
}

func TestUTF16ToCodePoints_AstralPlane(t *testing.T) {
	t.Parallel()

	// "𐐷" (U+10437) is one code point but two UTF-16 units.
	line := "a𐐷b"

	assert.Equal(t, 1, utf16ToCodePoints(line, 1))
	// Both units of the surrogate pair land on the same code point boundary.
	assert.Equal(t, 2, utf16ToCodePoints(line, 3))
	assert.Equal(t, 3, utf16ToCodePoints(line, 4))
}

func TestCodePointsToUTF16_RoundTrip(t *testing.T) {
	t.Parallel()

	line := "x😀y😀z"

	for cp := 0; cp <= 5; cp++ {
		units := codePointsToUTF16(line, cp)
		assert.Equal(t, cp, utf16ToCodePoints(line, units), "code point %d", cp)
	}

	assert.Equal(t, 7, codePointsToUTF16(line, 5))
}

func TestOffsetForPosition(t *testing.T) {
	t.Parallel()

	buffer := textbuf.New("ab\n𐐷cd\n")

	// Line 1 starts at byte 3; "𐐷" is 4 bytes, 2 UTF-16 units.
	offset, err := offsetForPosition(buffer, protocolPosition{Line: 1, Character: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, offset)

	offset, err = offsetForPosition(buffer, protocolPosition{Line: 0, Character: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, offset)

	_, err = offsetForPosition(buffer, protocolPosition{Line: 9, Character: 0})
	require.ErrorIs(t, err, textbuf.ErrLineOutOfRange)
}
