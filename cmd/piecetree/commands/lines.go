package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
)

// LinesCommand holds the flags of the lines command.
type LinesCommand struct {
	from    int
	to      int
	numbers bool
}

// NewLinesCommand creates the lines command: print a line range of a file
// through the engine's line access path.
func NewLinesCommand(app *App) *cobra.Command {
	lc := &LinesCommand{}

	cmd := &cobra.Command{
		Use:   "lines <file>",
		Short: "Print a range of lines from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lc.run(app, cmd, args[0])
		},
	}

	cmd.Flags().IntVar(&lc.from, "from", 0, "first line to print (zero-based)")
	cmd.Flags().IntVar(&lc.to, "to", -1, "last line to print, inclusive (-1 = end of file)")
	cmd.Flags().BoolVar(&lc.numbers, "numbers", false, "prefix each line with its number")

	return cmd
}

func (lc *LinesCommand) run(app *App, cmd *cobra.Command, path string) error {
	file, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only descriptor

	builder := textbuf.NewBuilder()

	if _, err := builder.ReadFrom(file); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	buffer := builder.Build()

	last := lc.to
	if last < 0 || last >= buffer.LineCount() {
		last = buffer.LineCount() - 1
	}

	app.Logger().Debug("printing line range", "from", lc.from, "to", last)

	out := cmd.OutOrStdout()
	numberColor := color.New(color.FgCyan)

	for line := lc.from; line <= last; line++ {
		content, err := buffer.GetLineContent(line)
		if err != nil {
			return fmt.Errorf("line %d of %s: %w", line, path, err)
		}

		if lc.numbers {
			numberColor.Fprintf(out, "%6d ", line+1)
		}

		fmt.Fprintln(out, content)
	}

	return nil
}
