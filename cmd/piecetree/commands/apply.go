package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/piecetree/internal/editscript"
	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
	"github.com/Sumatoshi-tech/piecetree/pkg/textdiff"
)

const outputFileMode = 0o644

// errVerifyMismatch reports a divergence between the scripted result and an
// independent diff replay of the same transformation.
var errVerifyMismatch = errors.New("verification mismatch")

// ApplyCommand holds the flags of the apply command.
type ApplyCommand struct {
	scriptPath string
	outPath    string
	check      bool
	verify     bool
}

// NewApplyCommand creates the apply command: run a validated edit script
// against a file through the engine.
func NewApplyCommand(app *App) *cobra.Command {
	ac := &ApplyCommand{}

	cmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Apply a YAML/JSON edit script to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ac.run(app, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&ac.scriptPath, "script", "", "edit script path (.yaml or .json)")
	cmd.Flags().StringVarP(&ac.outPath, "output", "o", "", "output path (default: stdout)")
	cmd.Flags().BoolVar(&ac.check, "check", false, "validate the script only, apply nothing")
	cmd.Flags().BoolVar(&ac.verify, "verify", false, "re-derive the result via a diff replay and compare")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func (ac *ApplyCommand) run(app *App, cmd *cobra.Command, path string) error {
	script, err := editscript.Load(ac.scriptPath)
	if err != nil {
		return err
	}

	if ac.check {
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
			"script valid: %d edits (%s)\n", len(script.Edits), ac.scriptPath)

		return nil
	}

	original, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	buffer := textbuf.New(string(original))

	summary, err := editscript.Apply(buffer, script)
	if err != nil {
		return fmt.Errorf("apply %s: %w", ac.scriptPath, err)
	}

	result := buffer.GetAllText()

	app.Logger().Info("script applied",
		"edit.count", summary.Applied,
		"edit.inserted", summary.BytesInserted,
		"edit.deleted", summary.BytesDeleted)

	if ac.verify {
		if err := ac.verifyResult(cmd, string(original), result); err != nil {
			return err
		}
	}

	return ac.writeResult(cmd, result)
}

// verifyResult recomputes old→new through an independent diff replay; a
// mismatch means the engine and the diff disagree about the same edits.
func (ac *ApplyCommand) verifyResult(cmd *cobra.Command, original, result string) error {
	replayed := textbuf.New(original)

	if err := textdiff.Apply(replayed, textdiff.Edits(original, result)); err != nil {
		return fmt.Errorf("verify replay: %w", err)
	}

	if replayed.GetAllText() != result {
		color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), "verify: FAIL (replay diverged)")

		return fmt.Errorf("verify %s: %w", ac.scriptPath, errVerifyMismatch)
	}

	if err := replayed.Validate(); err != nil {
		return fmt.Errorf("verify audit: %w", err)
	}

	color.New(color.FgGreen).Fprintln(cmd.ErrOrStderr(), "verify: PASS")

	return nil
}

func (ac *ApplyCommand) writeResult(cmd *cobra.Command, result string) error {
	if ac.outPath == "" {
		fmt.Fprint(cmd.OutOrStdout(), result)

		return nil
	}

	if err := os.WriteFile(ac.outPath, []byte(result), outputFileMode); err != nil {
		return fmt.Errorf("write %s: %w", ac.outPath, err)
	}

	return nil
}
