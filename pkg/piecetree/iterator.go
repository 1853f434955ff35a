package piecetree

// Iterator allows scanning pieces in document order.
//
// Iterator invalidation rule is the same as C++ std::map<>'s: deleting the
// piece an iterator points to invalidates it; other operations keep it
// valid, except that Delete on a two-child node relocates the successor's
// piece (see Delete).
type Iterator struct {
	tree *Tree
	node uint32
}

// Min creates an iterator that points to the first piece of the document.
// If the tree is empty, returns Limit().
func (tree *Tree) Min() Iterator {
	return Iterator{tree, tree.minNode}
}

// Max creates an iterator that points at the last piece of the document.
//
// If the tree is empty, returns NegativeLimit().
func (tree *Tree) Max() Iterator {
	if tree.maxNode == 0 {
		return Iterator{tree, negativeLimitNode}
	}

	return Iterator{tree, tree.maxNode}
}

// Limit creates an iterator that points beyond the last piece.
func (tree *Tree) Limit() Iterator {
	return Iterator{tree, 0}
}

// NegativeLimit creates an iterator that points before the first piece.
func (tree *Tree) NegativeLimit() Iterator {
	return Iterator{tree, negativeLimitNode}
}

// Equal checks for the underlying nodes equality.
func (iter Iterator) Equal(other Iterator) bool {
	return iter.node == other.node
}

// Limit checks if the iterator points beyond the last piece.
func (iter Iterator) Limit() bool {
	return iter.node == 0
}

// Min checks if the iterator points to the first piece.
func (iter Iterator) Min() bool {
	return iter.node == iter.tree.minNode
}

// Max checks if the iterator points to the last piece.
func (iter Iterator) Max() bool {
	return iter.node == iter.tree.maxNode
}

// NegativeLimit checks if the iterator points before the first piece.
func (iter Iterator) NegativeLimit() bool {
	return iter.node == negativeLimitNode
}

// Piece returns the piece under the iterator. The zero Piece is returned
// when iter.Limit() || iter.NegativeLimit().
func (iter Iterator) Piece() Piece {
	if iter.Limit() || iter.NegativeLimit() {
		return Piece{}
	}

	return iter.tree.storage()[iter.node].piece
}

// Next creates a new iterator that points to the successor of the current
// piece.
//
// REQUIRES: !iter.Limit().
func (iter Iterator) Next() Iterator {
	doAssert(!iter.Limit())

	if iter.NegativeLimit() {
		return Iterator{iter.tree, iter.tree.minNode}
	}

	return Iterator{iter.tree, doNext(iter.node, iter.tree.storage())}
}

// Prev creates a new iterator that points to the predecessor of the current
// piece.
//
// REQUIRES: !iter.NegativeLimit().
func (iter Iterator) Prev() Iterator {
	doAssert(!iter.NegativeLimit())

	if !iter.Limit() {
		return Iterator{iter.tree, doPrev(iter.node, iter.tree.storage())}
	}

	if iter.tree.maxNode == 0 {
		return Iterator{iter.tree, negativeLimitNode}
	}

	return Iterator{iter.tree, iter.tree.maxNode}
}

// ForEach walks the pieces in document order until fn returns false.
func (tree *Tree) ForEach(fn func(piece Piece) bool) {
	for iter := tree.Min(); !iter.Limit(); iter = iter.Next() {
		if !fn(iter.Piece()) {
			return
		}
	}
}
