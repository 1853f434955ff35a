// Package textdiff derives minimal edit lists between two document states
// and replays them through the text engine. The LSP surface uses it to turn
// full-text synchronization into incremental engine edits; the apply command
// uses it to verify script results.
package textdiff

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
)

// Edit is a single engine operation. Offsets address the evolving document:
// applying the edits of one list in order transforms the old text into the
// new one. Delete counts bytes removed at Offset; Insert is the text placed
// there afterwards.
type Edit struct {
	Offset int
	Delete int
	Insert string
}

// Edits computes the edit list transforming oldText into newText. Adjacent
// delete/insert pairs collapse into one replace-style edit.
func Edits(oldText, newText string) []Edit {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupMerge(dmp.DiffCleanupSemanticLossless(diffs))

	var edits []Edit

	offset := 0
	pending := -1 // Index of an Edit awaiting a paired insert.

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			offset += len(diff.Text)
			pending = -1
		case diffmatchpatch.DiffDelete:
			edits = append(edits, Edit{Offset: offset, Delete: len(diff.Text)})
			pending = len(edits) - 1
		case diffmatchpatch.DiffInsert:
			if pending >= 0 {
				edits[pending].Insert = diff.Text
				pending = -1
			} else {
				edits = append(edits, Edit{Offset: offset, Insert: diff.Text})
			}

			offset += len(diff.Text)
		}
	}

	return edits
}

// Apply replays the edits onto the buffer in order.
func Apply(buffer *textbuf.TextBuffer, edits []Edit) error {
	for idx, edit := range edits {
		if edit.Delete > 0 {
			if err := buffer.Delete(edit.Offset, edit.Delete); err != nil {
				return fmt.Errorf("edit %d: %w", idx, err)
			}
		}

		if len(edit.Insert) > 0 {
			if err := buffer.Insert(edit.Offset, edit.Insert); err != nil {
				return fmt.Errorf("edit %d: %w", idx, err)
			}
		}
	}

	return nil
}
