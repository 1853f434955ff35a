package editscript

import (
	"fmt"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
)

// Summary reports what an applied script did to the document.
type Summary struct {
	Applied       int
	BytesInserted int
	BytesDeleted  int
}

// Apply runs the script's edits against the buffer in order and returns a
// summary. Edits address the evolving document: each edit sees the result of
// the previous ones. On error the buffer keeps the edits applied so far.
func Apply(buffer *textbuf.TextBuffer, script *Script) (Summary, error) {
	var summary Summary

	for idx, edit := range script.Edits {
		if err := applyEdit(buffer, edit, &summary); err != nil {
			return summary, fmt.Errorf("edit %d (%s): %w", idx, edit.Op, err)
		}

		summary.Applied++
	}

	return summary, nil
}

func applyEdit(buffer *textbuf.TextBuffer, edit Edit, summary *Summary) error {
	offset, err := resolveOffset(buffer, edit)
	if err != nil {
		return err
	}

	switch edit.Op {
	case "insert":
		if err := buffer.Insert(offset, edit.Text); err != nil {
			return fmt.Errorf("insert: %w", err)
		}

		summary.BytesInserted += len(edit.Text)

	case "delete":
		length, err := requireLength(edit)
		if err != nil {
			return err
		}

		if err := buffer.Delete(offset, length); err != nil {
			return fmt.Errorf("delete: %w", err)
		}

		summary.BytesDeleted += length

	case "replace":
		length, err := requireLength(edit)
		if err != nil {
			return err
		}

		if err := buffer.Delete(offset, length); err != nil {
			return fmt.Errorf("replace: %w", err)
		}

		if err := buffer.Insert(offset, edit.Text); err != nil {
			return fmt.Errorf("replace: %w", err)
		}

		summary.BytesDeleted += length
		summary.BytesInserted += len(edit.Text)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, edit.Op)
	}

	return nil
}

// resolveOffset turns an edit's addressing into a byte offset: explicit
// offset wins, otherwise line+column are converted through the engine.
func resolveOffset(buffer *textbuf.TextBuffer, edit Edit) (int, error) {
	if edit.Offset != nil {
		return *edit.Offset, nil
	}

	if edit.Line == nil || edit.Column == nil {
		return 0, fmt.Errorf("%w: offset or line+column", ErrMissingField)
	}

	offset, err := buffer.PositionToOffset(textbuf.Position{Line: *edit.Line, Column: *edit.Column})
	if err != nil {
		return 0, fmt.Errorf("resolve position: %w", err)
	}

	return offset, nil
}

func requireLength(edit Edit) (int, error) {
	if edit.Length == nil {
		return 0, fmt.Errorf("%w: length", ErrMissingField)
	}

	return *edit.Length, nil
}
