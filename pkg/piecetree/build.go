package piecetree

import (
	"math/bits"

	"github.com/Sumatoshi-tech/piecetree/pkg/bufstore"
	"github.com/Sumatoshi-tech/piecetree/pkg/safeconv"
)

// Build constructs a tree from pieces already in document order using a
// balanced bottom-up build: mid-split recursion yields a tree of logarithmic
// height instead of the degenerate chain sequential insertion would produce.
// Nodes on the deepest level are colored red, all others black, which gives
// a uniform black height by construction.
func Build(allocator *Allocator, store *bufstore.Store, pieces []Piece) *Tree {
	tree := NewTree(allocator, store)

	if len(pieces) == 0 {
		return tree
	}

	for _, piece := range pieces {
		doAssert(piece.Length > 0)
	}

	maxDepth := bits.Len(uint(len(pieces)))

	var totalLength, totalLineFeeds uint32
	tree.root, totalLength, totalLineFeeds = tree.buildRange(pieces, 0, 1, maxDepth)

	tree.count = int32(safeconv.MustIntToUint32(len(pieces)))
	tree.totalLength = totalLength
	tree.totalLineFeeds = totalLineFeeds
	tree.recomputeMinNode()
	tree.recomputeMaxNode()

	return tree
}

// buildRange builds a subtree over pieces and returns its root index plus
// the subtree's byte and line-feed totals.
func (tree *Tree) buildRange(pieces []Piece, parentIdx uint32, depth, maxDepth int) (uint32, uint32, uint32) {
	if len(pieces) == 0 {
		return 0, 0, 0
	}

	mid := len(pieces) / 2
	nodeIdx := tree.allocator.malloc()

	leftIdx, leftLength, leftLineFeeds := tree.buildRange(pieces[:mid], nodeIdx, depth+1, maxDepth)
	rightIdx, rightLength, rightLineFeeds := tree.buildRange(pieces[mid+1:], nodeIdx, depth+1, maxDepth)

	alloc := tree.storage()
	nd := &alloc[nodeIdx]
	nd.piece = pieces[mid]
	nd.parent = parentIdx
	nd.left = leftIdx
	nd.right = rightIdx
	nd.leftLength = leftLength
	nd.leftLineFeeds = leftLineFeeds
	nd.color = black

	if depth == maxDepth && depth > 1 {
		nd.color = red
	}

	subtreeLength := leftLength + pieces[mid].Length + rightLength
	subtreeLineFeeds := leftLineFeeds + pieces[mid].LineFeeds + rightLineFeeds

	return nodeIdx, subtreeLength, subtreeLineFeeds
}
