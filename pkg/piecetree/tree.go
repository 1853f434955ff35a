package piecetree

import (
	"github.com/Sumatoshi-tech/piecetree/pkg/bufstore"
)

// Tree is the augmented red-black tree over pieces. In-order traversal
// yields pieces in document order; every node's leftLength/leftLineFeeds
// aggregate its whole left subtree, making offset and line descents
// logarithmic. The totals are running counters updated with every mutation.
//
// The tree performs no locking; the caller serializes mutations.
type Tree struct {
	allocator *Allocator
	store     *bufstore.Store

	// Root of the tree.
	root uint32

	// The minimum and maximum nodes under the tree.
	minNode, maxNode uint32

	// Number of nodes under root, including the root.
	count int32

	totalLength    uint32
	totalLineFeeds uint32
}

// NewTree creates an empty tree bound to an arena and a buffer store. The
// store must outlive the tree; pieces hold buffer ids resolved through it.
func NewTree(allocator *Allocator, store *bufstore.Store) *Tree {
	return &Tree{allocator: allocator, store: store}
}

func (tree *Tree) storage() []node {
	return tree.allocator.storage
}

// Allocator returns the bound arena.
func (tree *Tree) Allocator() *Allocator {
	return tree.allocator
}

// Store returns the bound buffer store.
func (tree *Tree) Store() *bufstore.Store {
	return tree.store
}

// Len returns the number of pieces in the tree.
func (tree *Tree) Len() int {
	return int(tree.count)
}

// TotalLength returns the byte length of the document.
func (tree *Tree) TotalLength() uint32 {
	return tree.totalLength
}

// TotalLineFeeds returns the number of line boundaries in the document.
// The line count is TotalLineFeeds()+1.
func (tree *Tree) TotalLineFeeds() uint32 {
	return tree.totalLineFeeds
}

// CloneDeep copies the tree into a fresh arena, rebinding it to store. The
// node ordering, coloring and aggregates carry over unchanged.
func (tree *Tree) CloneDeep(allocator *Allocator, store *bufstore.Store) *Tree {
	clone := &Tree{
		allocator:      allocator,
		store:          store,
		count:          tree.count,
		totalLength:    tree.totalLength,
		totalLineFeeds: tree.totalLineFeeds,
	}

	nodeMap := map[uint32]uint32{}
	originStorage := tree.storage()

	for iter := tree.Min(); !iter.Limit(); iter = iter.Next() {
		newNode := allocator.malloc()
		cloneNode := &allocator.storage[newNode]
		originNode := originStorage[iter.node]
		cloneNode.piece = originNode.piece
		cloneNode.color = originNode.color
		cloneNode.leftLength = originNode.leftLength
		cloneNode.leftLineFeeds = originNode.leftLineFeeds
		nodeMap[iter.node] = newNode
	}

	cloneStorage := allocator.storage

	for iter := tree.Min(); !iter.Limit(); iter = iter.Next() {
		cloneNode := &cloneStorage[nodeMap[iter.node]]
		originNode := originStorage[iter.node]
		cloneNode.left = nodeMap[originNode.left]
		cloneNode.right = nodeMap[originNode.right]
		cloneNode.parent = nodeMap[originNode.parent]
	}

	clone.root = nodeMap[tree.root]
	clone.minNode = nodeMap[tree.minNode]
	clone.maxNode = nodeMap[tree.maxNode]

	return clone
}

// Erase removes all the nodes from the tree.
func (tree *Tree) Erase() {
	nodes := make([]uint32, 0, tree.count)

	for iter := tree.Min(); !iter.Limit(); iter = iter.Next() {
		nodes = append(nodes, iter.node)
	}

	for _, nd := range nodes {
		tree.allocator.free(nd)
	}

	tree.root = 0
	tree.minNode = 0
	tree.maxNode = 0
	tree.count = 0
	tree.totalLength = 0
	tree.totalLineFeeds = 0
}

// Internal node attribute accessors.
func getColor(nodeIdx uint32, allocator []node) bool {
	if nodeIdx == 0 {
		return black
	}

	return allocator[nodeIdx].color
}

func isLeftChild(nodeIdx uint32, allocator []node) bool {
	return nodeIdx == allocator[allocator[nodeIdx].parent].left
}

func isRightChild(nodeIdx uint32, allocator []node) bool {
	return nodeIdx == allocator[allocator[nodeIdx].parent].right
}

func sibling(nodeIdx uint32, allocator []node) uint32 {
	doAssert(allocator[nodeIdx].parent != 0)

	if isLeftChild(nodeIdx, allocator) {
		return allocator[allocator[nodeIdx].parent].right
	}

	return allocator[allocator[nodeIdx].parent].left
}

// Return the minimum node that's larger than N in document order.
// Return 0 if no such node is found.
func doNext(nodeIdx uint32, allocator []node) uint32 {
	if allocator[nodeIdx].right != 0 {
		cursor := allocator[nodeIdx].right

		for allocator[cursor].left != 0 {
			cursor = allocator[cursor].left
		}

		return cursor
	}

	for nodeIdx != 0 {
		parentIdx := allocator[nodeIdx].parent
		if parentIdx == 0 {
			return 0
		}

		if isLeftChild(nodeIdx, allocator) {
			return parentIdx
		}

		nodeIdx = parentIdx
	}

	return 0
}

// Return the maximum node that's smaller than N in document order.
// Return negativeLimitNode if no such node is found.
func doPrev(nodeIdx uint32, allocator []node) uint32 {
	if allocator[nodeIdx].left != 0 {
		return maxPredecessor(nodeIdx, allocator)
	}

	for nodeIdx != 0 {
		parentIdx := allocator[nodeIdx].parent
		if parentIdx == 0 {
			break
		}

		if isRightChild(nodeIdx, allocator) {
			return parentIdx
		}

		nodeIdx = parentIdx
	}

	return negativeLimitNode
}

// Return the predecessor of "n".
func maxPredecessor(nodeIdx uint32, allocator []node) uint32 {
	doAssert(allocator[nodeIdx].left != 0)

	cursor := allocator[nodeIdx].left

	for allocator[cursor].right != 0 {
		cursor = allocator[cursor].right
	}

	return cursor
}

func (tree *Tree) recomputeMinNode() {
	alloc := tree.storage()
	tree.minNode = tree.root

	if tree.minNode != 0 {
		for alloc[tree.minNode].left != 0 {
			tree.minNode = alloc[tree.minNode].left
		}
	}
}

func (tree *Tree) recomputeMaxNode() {
	alloc := tree.storage()
	tree.maxNode = tree.root

	if tree.maxNode != 0 {
		for alloc[tree.maxNode].right != 0 {
			tree.maxNode = alloc[tree.maxNode].right
		}
	}
}

// addAncestorDeltas adds (deltaLength, deltaLineFeeds) to the left-subtree
// aggregates of every ancestor that holds nodeIdx inside its left subtree.
// Called whenever a node's piece contribution changes while the structure
// around it stays put.
func (tree *Tree) addAncestorDeltas(nodeIdx uint32, deltaLength, deltaLineFeeds int64) {
	if deltaLength == 0 && deltaLineFeeds == 0 {
		return
	}

	alloc := tree.storage()

	for alloc[nodeIdx].parent != 0 {
		parentIdx := alloc[nodeIdx].parent

		if alloc[parentIdx].left == nodeIdx {
			alloc[parentIdx].leftLength = applyDelta(alloc[parentIdx].leftLength, deltaLength)
			alloc[parentIdx].leftLineFeeds = applyDelta(alloc[parentIdx].leftLineFeeds, deltaLineFeeds)
		}

		nodeIdx = parentIdx
	}
}

func applyDelta(value uint32, delta int64) uint32 {
	result := int64(value) + delta
	doAssert(result >= 0 && result <= int64(negativeLimitNode))

	return uint32(result)
}

func (tree *Tree) replaceNode(oldn, newn uint32) {
	alloc := tree.storage()

	if alloc[oldn].parent == 0 {
		tree.root = newn
	} else {
		if oldn == alloc[alloc[oldn].parent].left {
			alloc[alloc[oldn].parent].left = newn
		} else {
			alloc[alloc[oldn].parent].right = newn
		}
	}

	if newn != 0 {
		alloc[newn].parent = alloc[oldn].parent
	}
}

// rotateDirection performs a tree rotation in the specified direction.
// IsLeft=true performs left rotation, isLeft=false performs right rotation.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation:
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
// Aggregate maintenance is O(1): the only node whose left subtree changes is
// the one ending up on top. After a left rotation Y gains X's subtree on its
// left, so Y's aggregates grow by X's old left subtree plus X's own piece;
// a right rotation shrinks them by the same amount.
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree) rotateDirection(pivot uint32, isLeft bool) {
	alloc := tree.storage()

	// Get the child in the opposite direction of rotation.
	var child uint32
	if isLeft {
		child = alloc[pivot].right
	} else {
		child = alloc[pivot].left
	}

	if isLeft {
		alloc[child].leftLength += alloc[pivot].leftLength + alloc[pivot].piece.Length
		alloc[child].leftLineFeeds += alloc[pivot].leftLineFeeds + alloc[pivot].piece.LineFeeds
	} else {
		alloc[pivot].leftLength -= alloc[child].leftLength + alloc[child].piece.Length
		alloc[pivot].leftLineFeeds -= alloc[child].leftLineFeeds + alloc[child].piece.LineFeeds
	}

	// Move the inner subtree.
	var innerSubtree uint32
	if isLeft {
		innerSubtree = alloc[child].left
		alloc[pivot].right = innerSubtree
	} else {
		innerSubtree = alloc[child].right
		alloc[pivot].left = innerSubtree
	}

	if innerSubtree != 0 {
		alloc[innerSubtree].parent = pivot
	}

	// Update parent links.
	alloc[child].parent = alloc[pivot].parent

	if alloc[pivot].parent == 0 {
		tree.root = child
	} else {
		if isLeftChild(pivot, alloc) {
			alloc[alloc[pivot].parent].left = child
		} else {
			alloc[alloc[pivot].parent].right = child
		}
	}

	// Complete the rotation.
	if isLeft {
		alloc[child].left = pivot
	} else {
		alloc[child].right = pivot
	}

	alloc[pivot].parent = child
}

func (tree *Tree) rotateLeft(nodeIdx uint32) {
	tree.rotateDirection(nodeIdx, true)
}

func (tree *Tree) rotateRight(nodeIdx uint32) {
	tree.rotateDirection(nodeIdx, false)
}
