package piecetree

import "fmt"

// InsertPieceAt inserts piece at the given document offset. The offset must
// fall on a piece boundary; interior splits are the caller's job (the façade
// splits the enclosing piece first). Fails with ErrOffsetOutOfRange when the
// offset lies beyond the document.
func (tree *Tree) InsertPieceAt(offset uint32, piece Piece) error {
	doAssert(piece.Length > 0)

	if offset > tree.totalLength {
		return fmt.Errorf(
			"insert at %d exceeds document length %d: %w", offset, tree.totalLength, ErrOffsetOutOfRange)
	}

	if tree.root == 0 {
		tree.insertRoot(piece)

		return nil
	}

	iter, local, err := tree.SearchByOffset(offset)
	if err != nil {
		return err
	}

	if local == 0 {
		tree.InsertBefore(iter, piece)

		return nil
	}

	doAssert(local == iter.Piece().Length)
	tree.InsertAfter(iter, piece)

	return nil
}

// InsertBefore inserts piece as the in-order predecessor of the iterator's
// node.
func (tree *Tree) InsertBefore(iter Iterator, piece Piece) {
	doAssert(!iter.Limit() && !iter.NegativeLimit())

	alloc := tree.storage()

	var nodeIdx uint32
	if alloc[iter.node].left == 0 {
		nodeIdx = tree.attach(iter.node, true, piece)
	} else {
		nodeIdx = tree.attach(maxPredecessor(iter.node, alloc), false, piece)
	}

	tree.fixInsert(nodeIdx)
	tree.recomputeMinNode()
	tree.recomputeMaxNode()
}

// InsertAfter inserts piece as the in-order successor of the iterator's
// node.
func (tree *Tree) InsertAfter(iter Iterator, piece Piece) {
	doAssert(!iter.Limit() && !iter.NegativeLimit())

	alloc := tree.storage()

	var nodeIdx uint32

	if alloc[iter.node].right == 0 {
		nodeIdx = tree.attach(iter.node, false, piece)
	} else {
		successor := alloc[iter.node].right
		for alloc[successor].left != 0 {
			successor = alloc[successor].left
		}

		nodeIdx = tree.attach(successor, true, piece)
	}

	tree.fixInsert(nodeIdx)
	tree.recomputeMinNode()
	tree.recomputeMaxNode()
}

// UpdatePiece replaces the piece under the iterator in place and bubbles the
// length/line-feed deltas up through the ancestor aggregates and the totals.
// Used for boundary truncation and append coalescing.
func (tree *Tree) UpdatePiece(iter Iterator, piece Piece) {
	doAssert(!iter.Limit() && !iter.NegativeLimit())
	doAssert(piece.Length > 0)

	alloc := tree.storage()
	old := alloc[iter.node].piece
	alloc[iter.node].piece = piece

	deltaLength := int64(piece.Length) - int64(old.Length)
	deltaLineFeeds := int64(piece.LineFeeds) - int64(old.LineFeeds)

	tree.addAncestorDeltas(iter.node, deltaLength, deltaLineFeeds)
	tree.totalLength = applyDelta(tree.totalLength, deltaLength)
	tree.totalLineFeeds = applyDelta(tree.totalLineFeeds, deltaLineFeeds)
}

func (tree *Tree) insertRoot(piece Piece) {
	nodeIdx := tree.allocator.malloc()
	nd := &tree.storage()[nodeIdx]
	nd.piece = piece
	nd.color = black

	tree.root = nodeIdx
	tree.minNode = nodeIdx
	tree.maxNode = nodeIdx
	tree.count = 1
	tree.totalLength = piece.Length
	tree.totalLineFeeds = piece.LineFeeds
}

// attach allocates a red leaf under parentIdx on the requested side, then
// bubbles the new piece into every ancestor aggregate that now covers it.
func (tree *Tree) attach(parentIdx uint32, asLeft bool, piece Piece) uint32 {
	nodeIdx := tree.allocator.malloc()

	alloc := tree.storage()
	nd := &alloc[nodeIdx]
	nd.piece = piece
	nd.parent = parentIdx
	nd.color = red

	if asLeft {
		alloc[parentIdx].left = nodeIdx
	} else {
		alloc[parentIdx].right = nodeIdx
	}

	tree.addAncestorDeltas(nodeIdx, int64(piece.Length), int64(piece.LineFeeds))
	tree.count++
	tree.totalLength += piece.Length
	tree.totalLineFeeds += piece.LineFeeds

	return nodeIdx
}

// fixInsert restores the red-black invariants after attaching a red leaf.
// Rotations keep the aggregates consistent on their own.
//
//nolint:gocognit // RB-tree insertion with rebalancing is inherently complex.
func (tree *Tree) fixInsert(nodeIdx uint32) {
	alloc := tree.storage()

	for {
		// Case 1: N is at the root.
		if alloc[nodeIdx].parent == 0 {
			alloc[nodeIdx].color = black

			break
		}

		// Case 2: The parent is black, so the tree already
		// satisfies the RB properties.
		if alloc[alloc[nodeIdx].parent].color {
			break
		}

		// Case 3: parent and uncle are both red.
		// Then paint both black and make grandparent red.
		grandparent := alloc[alloc[nodeIdx].parent].parent

		var uncle uint32
		if isLeftChild(alloc[nodeIdx].parent, alloc) {
			uncle = alloc[grandparent].right
		} else {
			uncle = alloc[grandparent].left
		}

		if uncle != 0 && !alloc[uncle].color {
			alloc[alloc[nodeIdx].parent].color = black
			alloc[uncle].color = black
			alloc[grandparent].color = red
			nodeIdx = grandparent

			continue
		}

		// Case 4: parent is red, uncle is black (1).
		if isRightChild(nodeIdx, alloc) && isLeftChild(alloc[nodeIdx].parent, alloc) {
			tree.rotateLeft(alloc[nodeIdx].parent)
			nodeIdx = alloc[nodeIdx].left

			continue
		}

		if isLeftChild(nodeIdx, alloc) && isRightChild(alloc[nodeIdx].parent, alloc) {
			tree.rotateRight(alloc[nodeIdx].parent)
			nodeIdx = alloc[nodeIdx].right

			continue
		}

		// Case 5: parent is red, uncle is black (2).
		alloc[alloc[nodeIdx].parent].color = black
		alloc[grandparent].color = red

		if isLeftChild(nodeIdx, alloc) {
			tree.rotateRight(grandparent)
		} else {
			tree.rotateLeft(grandparent)
		}

		break
	}
}
