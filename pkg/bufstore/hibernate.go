package bufstore

import (
	"sync"

	"github.com/Sumatoshi-tech/piecetree/internal/compress"
)

// hibernatedBuffer holds one buffer's compressed state.
type hibernatedBuffer struct {
	content    []byte
	contentLen int
	starts     []byte
	startsLen  int
}

type hibernatedStore struct {
	buffers [bufferCount]hibernatedBuffer
}

// Hibernate compresses both buffers' contents and line-start indices and
// releases the live storage. Line starts are delta-encoded first; sorted
// offsets become small repetitive deltas that LZ4 handles well. Any use of
// the store before Boot panics.
func (store *Store) Hibernate() {
	store.use()

	hib := &hibernatedStore{}
	wg := &sync.WaitGroup{}
	wg.Add(bufferCount)

	for idx := range store.buffers {
		go func(bufIdx int) {
			src := &store.buffers[bufIdx]
			dst := &hib.buffers[bufIdx]

			dst.contentLen = len(src.content)
			dst.content = compress.Bytes(src.content)

			starts := make([]uint32, len(src.lineStarts))
			copy(starts, src.lineStarts)
			compress.DeltaEncodeUInt32Slice(starts)

			dst.startsLen = len(starts)
			dst.starts = compress.UInt32Slice(starts)

			wg.Done()
		}(idx)
	}

	wg.Wait()

	store.buffers = [bufferCount]buffer{}
	store.hib = hib
}

// Boot restores a hibernated store. Booting a live store is a no-op.
func (store *Store) Boot() {
	if store.hib == nil {
		return
	}

	hib := store.hib
	wg := &sync.WaitGroup{}
	wg.Add(bufferCount)

	for idx := range store.buffers {
		go func(bufIdx int) {
			src := &hib.buffers[bufIdx]
			dst := &store.buffers[bufIdx]

			dst.content = make([]byte, src.contentLen)
			compress.DecompressBytes(src.content, dst.content)

			starts := make([]uint32, src.startsLen)
			compress.DecompressUInt32Slice(src.starts, starts)
			compress.DeltaDecodeUInt32Slice(starts)
			dst.lineStarts = starts

			wg.Done()
		}(idx)
	}

	wg.Wait()

	store.hib = nil
}

// HibernatedSize returns the compressed byte footprint, or 0 when the store
// is live.
func (store *Store) HibernatedSize() int {
	if store.hib == nil {
		return 0
	}

	size := 0

	for idx := range store.hib.buffers {
		hb := &store.hib.buffers[idx]
		size += len(hb.content) + len(hb.starts)
	}

	return size
}
