package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesCommand_PrintsRange(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "poem.txt", "one\ntwo\nthree\nfour\n")

	cmd := NewLinesCommand(&App{})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--from", "1", "--to", "2", path})

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "two\nthree\n", out.String())
}

func TestLinesCommand_ToEndOfFile(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "poem.txt", "one\ntwo\nthree")

	cmd := NewLinesCommand(&App{})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--from", "2", path})

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "three\n", out.String())
}

func TestLinesCommand_Numbers(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "poem.txt", "alpha\nbeta\n")

	cmd := NewLinesCommand(&App{})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--numbers", "--to", "0", path})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "1 alpha")
}
