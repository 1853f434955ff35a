package piecetree

// Delete removes the piece under the iterator, restoring the red-black
// invariants and the aggregates along the mutated path. The iterator becomes
// invalid; when the node had two children the successor's piece is moved
// into its slot, so iterators held on the successor are invalidated too.
func (tree *Tree) Delete(iter Iterator) {
	doAssert(!iter.Limit() && !iter.NegativeLimit())
	tree.doDelete(iter.node)
}

func (tree *Tree) doDelete(nodeIdx uint32) {
	alloc := tree.storage()
	removed := alloc[nodeIdx].piece

	if alloc[nodeIdx].left != 0 && alloc[nodeIdx].right != 0 {
		// Successor substitution: move the successor's piece value into
		// this slot, then physically remove the successor, which has no
		// left child. Ancestors holding this slot in a left subtree now
		// count the successor's piece instead of the removed one.
		successor := doNext(nodeIdx, alloc)
		successorPiece := alloc[successor].piece
		alloc[nodeIdx].piece = successorPiece

		tree.addAncestorDeltas(nodeIdx,
			int64(successorPiece.Length)-int64(removed.Length),
			int64(successorPiece.LineFeeds)-int64(removed.LineFeeds))

		nodeIdx = successor
	}

	doAssert(alloc[nodeIdx].left == 0 || alloc[nodeIdx].right == 0)

	child := alloc[nodeIdx].right
	if child == 0 {
		child = alloc[nodeIdx].left
	}

	// Black-height fixup runs while the node is still attached so the
	// rotations see consistent aggregates.
	if alloc[nodeIdx].color {
		alloc[nodeIdx].color = getColor(child, alloc)
		tree.deleteCase1(nodeIdx)
	}

	// Detach: the spliced-in child keeps its subtree in place, so each
	// ancestor counting this node on the left loses exactly its piece.
	doomed := alloc[nodeIdx].piece
	tree.addAncestorDeltas(nodeIdx, -int64(doomed.Length), -int64(doomed.LineFeeds))
	tree.replaceNode(nodeIdx, child)

	if alloc[nodeIdx].parent == 0 && child != 0 {
		alloc[child].color = black
	}

	tree.allocator.free(nodeIdx)
	tree.count--
	tree.totalLength = applyDelta(tree.totalLength, -int64(removed.Length))
	tree.totalLineFeeds = applyDelta(tree.totalLineFeeds, -int64(removed.LineFeeds))

	if tree.count == 0 {
		tree.minNode = 0
		tree.maxNode = 0
	} else {
		tree.recomputeMinNode()
		tree.recomputeMaxNode()
	}
}

func (tree *Tree) deleteCase1(nodeIdx uint32) {
	alloc := tree.storage()

	for alloc[nodeIdx].parent != 0 {
		if !getColor(sibling(nodeIdx, alloc), alloc) {
			alloc[alloc[nodeIdx].parent].color = red
			alloc[sibling(nodeIdx, alloc)].color = black

			if nodeIdx == alloc[alloc[nodeIdx].parent].left {
				tree.rotateLeft(alloc[nodeIdx].parent)
			} else {
				tree.rotateRight(alloc[nodeIdx].parent)
			}
		}

		if getColor(alloc[nodeIdx].parent, alloc) &&
			getColor(sibling(nodeIdx, alloc), alloc) &&
			getColor(alloc[sibling(nodeIdx, alloc)].left, alloc) &&
			getColor(alloc[sibling(nodeIdx, alloc)].right, alloc) { //nolint:whitespace // conflicts with wsl_v5 leading-whitespace.
			alloc[sibling(nodeIdx, alloc)].color = red
			nodeIdx = alloc[nodeIdx].parent

			continue
		}

		// Case 4.
		if !getColor(alloc[nodeIdx].parent, alloc) &&
			getColor(sibling(nodeIdx, alloc), alloc) &&
			getColor(alloc[sibling(nodeIdx, alloc)].left, alloc) &&
			getColor(alloc[sibling(nodeIdx, alloc)].right, alloc) { //nolint:whitespace // conflicts with wsl_v5 leading-whitespace.
			alloc[sibling(nodeIdx, alloc)].color = red
			alloc[alloc[nodeIdx].parent].color = black
		} else {
			tree.deleteCase5(nodeIdx)
		}

		break
	}
}

func (tree *Tree) deleteCase5(nodeIdx uint32) {
	alloc := tree.storage()

	if nodeIdx == alloc[alloc[nodeIdx].parent].left &&
		getColor(sibling(nodeIdx, alloc), alloc) &&
		!getColor(alloc[sibling(nodeIdx, alloc)].left, alloc) &&
		getColor(alloc[sibling(nodeIdx, alloc)].right, alloc) { //nolint:whitespace // conflicts with wsl_v5 leading-whitespace.
		alloc[sibling(nodeIdx, alloc)].color = red
		alloc[alloc[sibling(nodeIdx, alloc)].left].color = black
		tree.rotateRight(sibling(nodeIdx, alloc))
	} else if nodeIdx == alloc[alloc[nodeIdx].parent].right &&
		getColor(sibling(nodeIdx, alloc), alloc) &&
		!getColor(alloc[sibling(nodeIdx, alloc)].right, alloc) &&
		getColor(alloc[sibling(nodeIdx, alloc)].left, alloc) { //nolint:whitespace // conflicts with wsl_v5 leading-whitespace.
		alloc[sibling(nodeIdx, alloc)].color = red
		alloc[alloc[sibling(nodeIdx, alloc)].right].color = black
		tree.rotateLeft(sibling(nodeIdx, alloc))
	}

	// Case 6.
	alloc[sibling(nodeIdx, alloc)].color = getColor(alloc[nodeIdx].parent, alloc)
	alloc[alloc[nodeIdx].parent].color = black

	if nodeIdx == alloc[alloc[nodeIdx].parent].left {
		doAssert(!getColor(alloc[sibling(nodeIdx, alloc)].right, alloc))
		alloc[alloc[sibling(nodeIdx, alloc)].right].color = black
		tree.rotateLeft(alloc[nodeIdx].parent)
	} else {
		doAssert(!getColor(alloc[sibling(nodeIdx, alloc)].left, alloc))
		alloc[alloc[sibling(nodeIdx, alloc)].left].color = black
		tree.rotateRight(alloc[nodeIdx].parent)
	}
}
