package piecetree

import (
	"maps"
	"math"
	"sync"

	"github.com/Sumatoshi-tech/piecetree/internal/compress"
	"github.com/Sumatoshi-tech/piecetree/pkg/bufstore"
	"github.com/Sumatoshi-tech/piecetree/pkg/safeconv"
)

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor for storage.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

const (
	red               = false
	black             = true
	negativeLimitNode = math.MaxUint32
)

// node is the arena-resident tree node. leftLength and leftLineFeeds
// aggregate the ENTIRE left subtree, not the node's own piece.
type node struct {
	piece               Piece
	parent, left, right uint32
	leftLength          uint32
	leftLineFeeds       uint32
	color               bool // Black or red.
}

// hibernatedFieldCount is the number of deinterleaved uint32 buffers a node
// decomposes into (piece fields, links, aggregates, color) plus one for the
// allocator's gaps.
const hibernatedFieldCount = 11

// Allocator is the index-addressed arena for tree nodes. Index 0 is the
// reserved nil sentinel; freed indices are recycled through the gaps set.
type Allocator struct {
	storage              []node
	gaps                 map[uint32]bool
	hibernatedData       [hibernatedFieldCount][]byte
	HibernationThreshold int
	hibernatedStorageLen int
	hibernatedGapsLen    int
}

// NewAllocator creates a new arena for tree nodes.
func NewAllocator() *Allocator {
	return &Allocator{
		storage: []node{},
		gaps:    map[uint32]bool{},
	}
}

// Size returns the currently allocated size.
func (allocator *Allocator) Size() int {
	return len(allocator.storage)
}

// Used returns the number of nodes contained in the allocator. The reserved
// index-0 sentinel is not a node and does not count.
func (allocator *Allocator) Used() int {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	if len(allocator.storage) == 0 {
		return 0
	}

	return len(allocator.storage) - len(allocator.gaps) - 1
}

// LiveSize returns the resident byte footprint of node storage.
func (allocator *Allocator) LiveSize() int {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	const nodeByteSize = 10 * 4

	return len(allocator.storage) * nodeByteSize
}

// Clone copies an existing arena.
func (allocator *Allocator) Clone() *Allocator {
	if allocator.storage == nil {
		panic("cannot clone a hibernated allocator")
	}

	newAllocator := &Allocator{
		HibernationThreshold: allocator.HibernationThreshold,
		storage:              make([]node, len(allocator.storage), cap(allocator.storage)),
		gaps:                 map[uint32]bool{},
	}
	copy(newAllocator.storage, allocator.storage)
	maps.Copy(newAllocator.gaps, allocator.gaps)

	return newAllocator
}

// Hibernate compresses the allocated memory. Nodes are deinterleaved into
// per-field uint32 buffers first; columns of similar values compress far
// better than interleaved structs.
func (allocator *Allocator) Hibernate() {
	if allocator.hibernatedStorageLen > 0 {
		panic("cannot hibernate an already hibernated Allocator")
	}

	if len(allocator.storage) < allocator.HibernationThreshold {
		return
	}

	allocator.hibernatedStorageLen = len(allocator.storage)
	if allocator.hibernatedStorageLen == 0 {
		allocator.storage = nil

		return
	}

	buffers := [hibernatedFieldCount - 1][]uint32{}

	for idx := range buffers {
		buffers[idx] = make([]uint32, len(allocator.storage))
	}

	for idx, nd := range allocator.storage {
		buffers[0][idx] = uint32(nd.piece.Buffer)
		buffers[1][idx] = nd.piece.Start
		buffers[2][idx] = nd.piece.Length
		buffers[3][idx] = nd.piece.LineFeeds
		buffers[4][idx] = nd.parent
		buffers[5][idx] = nd.left
		buffers[6][idx] = nd.right
		buffers[7][idx] = nd.leftLength
		buffers[8][idx] = nd.leftLineFeeds

		if nd.color {
			buffers[9][idx] = 1
		}
	}

	allocator.storage = nil

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx, buffer := range buffers {
		go func(bufIdx int, buf []uint32) {
			allocator.hibernatedData[bufIdx] = compress.UInt32Slice(buf)
			buffers[bufIdx] = nil

			wg.Done()
		}(idx, buffer)
	}

	// Compress gaps.
	go func() {
		if len(allocator.gaps) > 0 {
			allocator.hibernatedGapsLen = len(allocator.gaps)

			gapsBuffer := make([]uint32, len(allocator.gaps))
			idx := 0

			for key := range allocator.gaps {
				gapsBuffer[idx] = key
				idx++
			}

			allocator.hibernatedData[len(buffers)] = compress.UInt32Slice(gapsBuffer)
		}

		allocator.gaps = nil

		wg.Done()
	}()

	wg.Wait()
}

// Boot performs the opposite of Hibernate() - decompresses and restores the allocated memory.
func (allocator *Allocator) Boot() {
	if allocator.storage == nil && allocator.hibernatedStorageLen == 0 {
		allocator.storage = []node{}
		allocator.gaps = map[uint32]bool{}

		return
	}

	if allocator.hibernatedStorageLen == 0 {
		// Not hibernated.
		return
	}

	allocator.gaps = map[uint32]bool{}
	buffers := [hibernatedFieldCount - 1][]uint32{}

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx := range buffers {
		go func(bufIdx int) {
			buffers[bufIdx] = make([]uint32, allocator.hibernatedStorageLen)
			compress.DecompressUInt32Slice(allocator.hibernatedData[bufIdx], buffers[bufIdx])
			allocator.hibernatedData[bufIdx] = nil

			wg.Done()
		}(idx)
	}

	go func() {
		if allocator.hibernatedGapsLen > 0 {
			gapData := allocator.hibernatedData[len(buffers)]
			buffer := make([]uint32, allocator.hibernatedGapsLen)
			compress.DecompressUInt32Slice(gapData, buffer)

			for _, key := range buffer {
				allocator.gaps[key] = true
			}

			allocator.hibernatedData[len(buffers)] = nil
			allocator.hibernatedGapsLen = 0
		}

		wg.Done()
	}()

	wg.Wait()

	capSize := (allocator.hibernatedStorageLen * growCapacityNumerator) / growCapacityDenominator
	allocator.storage = make([]node, allocator.hibernatedStorageLen, capSize)

	for idx := range allocator.storage {
		nd := &allocator.storage[idx]
		nd.piece.Buffer = bufstore.BufferID(buffers[0][idx])
		nd.piece.Start = buffers[1][idx]
		nd.piece.Length = buffers[2][idx]
		nd.piece.LineFeeds = buffers[3][idx]
		nd.parent = buffers[4][idx]
		nd.left = buffers[5][idx]
		nd.right = buffers[6][idx]
		nd.leftLength = buffers[7][idx]
		nd.leftLineFeeds = buffers[8][idx]
		nd.color = buffers[9][idx] > 0
	}

	allocator.hibernatedStorageLen = 0
}

// HibernatedSize returns the compressed byte footprint, or 0 when the arena
// is live.
func (allocator *Allocator) HibernatedSize() int {
	if allocator.hibernatedStorageLen == 0 {
		return 0
	}

	size := 0
	for _, data := range allocator.hibernatedData {
		size += len(data)
	}

	return size
}

func (allocator *Allocator) malloc() uint32 {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	if len(allocator.gaps) > 0 {
		var key uint32

		for key = range allocator.gaps {
			break
		}

		delete(allocator.gaps, key)

		return key
	}

	nodeLen := len(allocator.storage)
	if nodeLen == 0 {
		// Zero is reserved.
		allocator.storage = append(allocator.storage, node{})
		nodeLen = 1
	}

	if nodeLen == negativeLimitNode-1 {
		// [math.MaxUint32] is reserved.
		panic("the piece-tree arena has reached the maximum size for uint32 indices")
	}

	doAssert(nodeLen < negativeLimitNode)

	allocator.storage = append(allocator.storage, node{})

	return safeconv.MustIntToUint32(nodeLen)
}

func (allocator *Allocator) free(nodeIdx uint32) {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	if nodeIdx == 0 {
		panic("node #0 is special and cannot be deallocated")
	}

	_, exists := allocator.gaps[nodeIdx]
	doAssert(!exists)

	allocator.storage[nodeIdx] = node{}
	allocator.gaps[nodeIdx] = true
}

func doAssert(condition bool) {
	if !condition {
		panic("piecetree internal assertion failed")
	}
}
