package piecetree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTree is returned by Validate when any structural invariant is
// violated. The wrapping message names the offending node and property.
var ErrInvalidTree = errors.New("invalid piece tree")

// Validate audits every structural invariant: red-black coloring, uniform
// black height, parent links, per-node aggregates against direct subtree
// recomputation, piece spans against buffer bounds, and the running totals
// against the root subtree. Intended for tests and debugging; it walks the
// whole tree.
func (tree *Tree) Validate() error {
	if tree.root == 0 {
		if tree.count != 0 || tree.totalLength != 0 || tree.totalLineFeeds != 0 {
			return fmt.Errorf("empty tree carries non-zero totals: %w", ErrInvalidTree)
		}

		return nil
	}

	alloc := tree.storage()

	if !alloc[tree.root].color {
		return fmt.Errorf("root %d is red: %w", tree.root, ErrInvalidTree)
	}

	if alloc[tree.root].parent != 0 {
		return fmt.Errorf("root %d has parent %d: %w", tree.root, alloc[tree.root].parent, ErrInvalidTree)
	}

	audit := &treeAudit{tree: tree, alloc: alloc}

	totalLength, totalLineFeeds, _, err := audit.walk(tree.root)
	if err != nil {
		return err
	}

	if totalLength != tree.totalLength || totalLineFeeds != tree.totalLineFeeds {
		return fmt.Errorf("totals (%d, %d) disagree with subtree sums (%d, %d): %w",
			tree.totalLength, tree.totalLineFeeds, totalLength, totalLineFeeds, ErrInvalidTree)
	}

	if audit.nodes != int(tree.count) {
		return fmt.Errorf("count %d disagrees with %d reachable nodes: %w",
			tree.count, audit.nodes, ErrInvalidTree)
	}

	return nil
}

type treeAudit struct {
	tree  *Tree
	alloc []node
	nodes int
}

// walk returns the subtree's byte total, line-feed total and black height.
func (audit *treeAudit) walk(nodeIdx uint32) (uint32, uint32, int, error) {
	if nodeIdx == 0 {
		return 0, 0, 1, nil
	}

	audit.nodes++
	nd := &audit.alloc[nodeIdx]

	if nd.piece.Length == 0 {
		return 0, 0, 0, fmt.Errorf("node %d holds a zero-length piece: %w", nodeIdx, ErrInvalidTree)
	}

	store := audit.tree.store
	if nd.piece.End() > store.Len(nd.piece.Buffer) {
		return 0, 0, 0, fmt.Errorf("node %d piece [%d, %d) exceeds buffer %d length %d: %w",
			nodeIdx, nd.piece.Start, nd.piece.End(), nd.piece.Buffer,
			store.Len(nd.piece.Buffer), ErrInvalidTree)
	}

	if feeds := store.LineRangeCount(nd.piece.Buffer, nd.piece.Start, nd.piece.End()); feeds != nd.piece.LineFeeds {
		return 0, 0, 0, fmt.Errorf("node %d records %d line feeds, buffer holds %d: %w",
			nodeIdx, nd.piece.LineFeeds, feeds, ErrInvalidTree)
	}

	if !nd.color {
		if !getColor(nd.left, audit.alloc) || !getColor(nd.right, audit.alloc) {
			return 0, 0, 0, fmt.Errorf("red node %d has a red child: %w", nodeIdx, ErrInvalidTree)
		}
	}

	for _, childIdx := range []uint32{nd.left, nd.right} {
		if childIdx != 0 && audit.alloc[childIdx].parent != nodeIdx {
			return 0, 0, 0, fmt.Errorf("child %d of node %d points back to %d: %w",
				childIdx, nodeIdx, audit.alloc[childIdx].parent, ErrInvalidTree)
		}
	}

	leftLength, leftLineFeeds, leftBlack, err := audit.walk(nd.left)
	if err != nil {
		return 0, 0, 0, err
	}

	rightLength, rightLineFeeds, rightBlack, err := audit.walk(nd.right)
	if err != nil {
		return 0, 0, 0, err
	}

	if leftBlack != rightBlack {
		return 0, 0, 0, fmt.Errorf("node %d black heights differ: left %d, right %d: %w",
			nodeIdx, leftBlack, rightBlack, ErrInvalidTree)
	}

	if nd.leftLength != leftLength || nd.leftLineFeeds != leftLineFeeds {
		return 0, 0, 0, fmt.Errorf("node %d aggregates (%d, %d) disagree with left subtree (%d, %d): %w",
			nodeIdx, nd.leftLength, nd.leftLineFeeds, leftLength, leftLineFeeds, ErrInvalidTree)
	}

	blackHeight := leftBlack
	if nd.color {
		blackHeight++
	}

	return leftLength + nd.piece.Length + rightLength,
		leftLineFeeds + nd.piece.LineFeeds + rightLineFeeds,
		blackHeight, nil
}

// Height returns the number of levels in the tree. O(n); debugging aid.
func (tree *Tree) Height() int {
	return tree.heightOf(tree.root)
}

func (tree *Tree) heightOf(nodeIdx uint32) int {
	if nodeIdx == 0 {
		return 0
	}

	alloc := tree.storage()

	leftHeight := tree.heightOf(alloc[nodeIdx].left)
	rightHeight := tree.heightOf(alloc[nodeIdx].right)

	return 1 + max(leftHeight, rightHeight)
}

// Dump renders the tree structure with one indented line per node, root
// first. Debugging aid; the output format is not stable.
func (tree *Tree) Dump() string {
	builder := &strings.Builder{}
	tree.dumpNode(builder, tree.root, 0)

	fmt.Fprintf(builder, "total: length=%d lineFeeds=%d count=%d\n",
		tree.totalLength, tree.totalLineFeeds, tree.count)

	return builder.String()
}

func (tree *Tree) dumpNode(builder *strings.Builder, nodeIdx uint32, depth int) {
	if nodeIdx == 0 {
		return
	}

	alloc := tree.storage()
	nd := &alloc[nodeIdx]

	color := "red"
	if nd.color {
		color = "black"
	}

	fmt.Fprintf(builder, "%s#%d %s buf=%d [%d, %d) lf=%d leftLen=%d leftLF=%d\n",
		strings.Repeat("  ", depth), nodeIdx, color,
		nd.piece.Buffer, nd.piece.Start, nd.piece.End(), nd.piece.LineFeeds,
		nd.leftLength, nd.leftLineFeeds)

	tree.dumpNode(builder, nd.left, depth+1)
	tree.dumpNode(builder, nd.right, depth+1)
}
