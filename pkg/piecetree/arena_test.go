package piecetree //nolint:testpackage // tests reach into arena storage and gaps.

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/piecetree/pkg/bufstore"
)

func TestAllocator_MallocReservesSentinel(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()

	first := allocator.malloc()

	assert.Equal(t, uint32(1), first)
	assert.Equal(t, 2, allocator.Size())
}

func TestAllocator_FreeRecyclesGaps(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()
	first := allocator.malloc()
	second := allocator.malloc()

	allocator.free(first)

	assert.Equal(t, 1, allocator.Used())
	assert.Equal(t, first, allocator.malloc())
	assert.Equal(t, 2, allocator.Used())

	allocator.free(second)
	assert.Equal(t, second, allocator.malloc())
}

func TestAllocator_FreeSentinelPanics(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()
	allocator.malloc()

	assert.PanicsWithValue(t, "node #0 is special and cannot be deallocated", func() {
		allocator.free(0)
	})
}

func TestAllocator_DoubleFreePanics(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()
	idx := allocator.malloc()
	allocator.free(idx)

	assert.Panics(t, func() { allocator.free(idx) })
}

func TestAllocator_Clone(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()
	idx := allocator.malloc()
	allocator.storage[idx].piece = Piece{Buffer: bufstore.Added, Start: 3, Length: 7, LineFeeds: 1}

	clone := allocator.Clone()
	allocator.storage[idx].piece.Length = 99

	assert.Equal(t, uint32(7), clone.storage[idx].piece.Length)
	assert.Equal(t, allocator.Size(), clone.Size())
}

func TestAllocator_HibernateBootRoundTrip(t *testing.T) {
	t.Parallel()

	store, pieces := testDocument(t, "ab\n", "cd\n", "ef\n", "gh\n", "ij\n", "kl\n", "mn\n")
	tree := Build(NewAllocator(), store, pieces)

	// Punch a gap so the gaps set round-trips too.
	tree.Delete(tree.Min())
	expected := reconstruct(tree)

	allocator := tree.Allocator()
	allocator.Hibernate()

	assert.Positive(t, allocator.HibernatedSize())
	assert.PanicsWithValue(t, "hibernated allocators cannot be used", func() {
		allocator.Used()
	})

	allocator.Boot()

	assert.Equal(t, 0, allocator.HibernatedSize())
	require.NoError(t, tree.Validate())
	assert.Equal(t, expected, reconstruct(tree))
}

func TestAllocator_HibernateBelowThresholdNoOp(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()
	allocator.HibernationThreshold = 1000
	allocator.malloc()

	allocator.Hibernate()

	assert.Equal(t, 0, allocator.HibernatedSize())
	assert.Equal(t, 1, allocator.Used())
}

func TestAllocator_DoubleHibernatePanics(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()
	allocator.malloc()
	allocator.Hibernate()

	assert.Panics(t, func() { allocator.Hibernate() })
}

func TestAllocator_BootEmpty(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator()
	allocator.Hibernate()
	allocator.Boot()

	assert.Equal(t, 0, allocator.Used())
	assert.Equal(t, uint32(1), allocator.malloc())
}
