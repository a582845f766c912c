package buffer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jobala/clockbuf/storage/disk"
	"github.com/jobala/clockbuf/util"
)

// NewBufferpoolManager creates a pool of size frames. A nil directory gets the
// default one, a nil logger discards.
func NewBufferpoolManager(size int, directory Directory, logger *slog.Logger) (*BufferpoolManager, error) {
	if size <= 0 {
		return nil, util.ErrInvalidPoolSize
	}
	if directory == nil {
		directory = NewDirectory(size)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	frames := make([]*frame, size)
	for i := range size {
		f := &frame{id: i}
		f.reset()
		frames[i] = f
	}

	return &BufferpoolManager{
		frames:    frames,
		store:     newPageStore(size, disk.PAGE_SIZE),
		directory: directory,
		hand:      size - 1,
		log:       logger.With("component", "bufferpool"),
	}, nil
}

// FetchPage pins pageNo of file and returns its in-memory contents. The slice
// stays valid until the matching UnpinPage; it must not be used afterwards.
func (b *BufferpoolManager) FetchPage(file File, pageNo int64) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, util.ErrPoolClosed
	}

	if id, err := b.directory.Lookup(file.ID(), pageNo); err == nil {
		f := b.frames[id]
		if !f.valid || f.pageNo != pageNo || !f.owns(file) {
			return nil, util.NewBufError("fetch", file.ID(), pageNo, util.ErrBadFrame, nil)
		}

		f.ref = true
		f.pin()
		b.stats.hits++
		b.log.Debug("hit", "page", pageNo, "frame", id, "pins", f.pins.Load())

		return b.store.slot(id), nil
	}

	id, err := b.allocFrame()
	if err != nil {
		return nil, util.NewBufError("fetch", file.ID(), pageNo, err, nil)
	}

	slot := b.store.slot(id)
	if err := file.ReadPage(pageNo, slot); err != nil {
		b.store.zero(id)
		return nil, util.NewBufError("fetch", file.ID(), pageNo, util.ErrIO, err)
	}
	if err := b.directory.Insert(file.ID(), pageNo, id); err != nil {
		b.store.zero(id)
		return nil, util.NewBufError("fetch", file.ID(), pageNo, util.ErrDirectory, err)
	}

	b.frames[id].set(file, pageNo)
	b.stats.misses++
	b.log.Debug("miss", "page", pageNo, "frame", id)

	return slot, nil
}

// UnpinPage releases one pin on pageNo. A true dirty marks the page modified;
// false never clears an earlier mark.
func (b *BufferpoolManager) UnpinPage(file File, pageNo int64, dirty bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, err := b.directory.Lookup(file.ID(), pageNo)
	if err != nil {
		return util.NewBufError("unpin", file.ID(), pageNo, util.ErrNotFound, nil)
	}

	f := b.frames[id]
	if !f.pinned() {
		return util.NewBufError("unpin", file.ID(), pageNo, util.ErrNotPinned, nil)
	}

	if dirty {
		f.dirty = true
	}
	f.unpin()

	return nil
}

// AllocPage reserves a new page in file and pins it in a zeroed frame.
// If the directory rejects the page the file allocation is not undone.
func (b *BufferpoolManager) AllocPage(file File) (int64, []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return disk.INVALID_PAGE_ID, nil, util.ErrPoolClosed
	}

	pageNo, err := file.AllocatePage()
	if err != nil {
		return disk.INVALID_PAGE_ID, nil, util.NewBufError("alloc", file.ID(), disk.INVALID_PAGE_ID, util.ErrAllocation, err)
	}

	id, err := b.allocFrame()
	if err != nil {
		return pageNo, nil, util.NewBufError("alloc", file.ID(), pageNo, err, nil)
	}

	if err := b.directory.Insert(file.ID(), pageNo, id); err != nil {
		return pageNo, nil, util.NewBufError("alloc", file.ID(), pageNo, util.ErrDirectory, err)
	}

	b.store.zero(id)
	b.frames[id].set(file, pageNo)
	b.log.Debug("alloc", "page", pageNo, "frame", id)

	return pageNo, b.store.slot(id), nil
}

// DisposePage drops pageNo from the pool without writing it back and asks file
// to reclaim it. Disposing a pinned page is refused.
func (b *BufferpoolManager) DisposePage(file File, pageNo int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return util.ErrPoolClosed
	}

	if id, err := b.directory.Lookup(file.ID(), pageNo); err == nil {
		f := b.frames[id]
		if f.pinned() {
			return util.NewBufError("dispose", file.ID(), pageNo, util.ErrPagePinned, nil)
		}

		if err := b.directory.Remove(file.ID(), pageNo); err != nil {
			return util.NewBufError("dispose", file.ID(), pageNo, util.ErrDirectory, err)
		}
		f.reset()
		b.store.zero(id)
	}

	if err := file.DisposePage(pageNo); err != nil {
		return util.NewBufError("dispose", file.ID(), pageNo, util.ErrIO, err)
	}

	return nil
}

// FlushFile writes back and evicts every page of file, in frame order. It
// stops at the first pinned page; frames already flushed stay flushed.
func (b *BufferpoolManager) FlushFile(file File) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return util.ErrPoolClosed
	}

	for id, f := range b.frames {
		if !f.owns(file) {
			continue
		}
		if !f.valid {
			return util.NewBufError("flush", file.ID(), f.pageNo, util.ErrBadFrame, nil)
		}
		if f.pinned() {
			return util.NewBufError("flush", file.ID(), f.pageNo, util.ErrPagePinned, nil)
		}

		if err := b.writeBack(f); err != nil {
			return util.NewBufError("flush", file.ID(), f.pageNo, util.ErrWriteBack, err)
		}
		if err := b.directory.Remove(file.ID(), f.pageNo); err != nil {
			return util.NewBufError("flush", file.ID(), f.pageNo, util.ErrDirectory, err)
		}

		b.log.Debug("flushed", "page", f.pageNo, "frame", id)
		f.reset()
	}

	return nil
}

// FlushPage writes pageNo back if it is dirty. The page stays resident and
// keeps its pins.
func (b *BufferpoolManager) FlushPage(file File, pageNo int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return util.ErrPoolClosed
	}

	id, err := b.directory.Lookup(file.ID(), pageNo)
	if err != nil {
		return util.NewBufError("flush", file.ID(), pageNo, util.ErrNotFound, nil)
	}

	if err := b.writeBack(b.frames[id]); err != nil {
		return util.NewBufError("flush", file.ID(), pageNo, util.ErrWriteBack, err)
	}
	return nil
}

// Close writes back every dirty page. Afterwards every operation except
// UnpinPage fails with ErrPoolClosed, so outstanding guards can still be
// dropped. Pages that fail to write stay dirty; all failures are returned.
func (b *BufferpoolManager) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, f := range b.frames {
		if !f.valid {
			continue
		}
		if err := b.writeBack(f); err != nil {
			errs = append(errs, util.NewBufError("close", f.file.ID(), f.pageNo, util.ErrWriteBack, err))
		}
	}
	b.closed = true

	return errors.Join(errs...)
}

// Capacity is the number of frames in the pool.
func (b *BufferpoolManager) Capacity() int {
	return len(b.frames)
}

// allocFrame runs the clock over the frame table and returns a frame that is
// ready to be claimed. A dirty victim is written back first; if that fails the
// victim keeps its page, its directory entry and its dirty bit.
func (b *BufferpoolManager) allocFrame() (int, error) {
	id, hand, err := nextVictim(b.frames, b.hand)
	b.hand = hand
	if err != nil {
		b.log.Debug("pool exhausted", "capacity", len(b.frames))
		return INVALID_FRAME_ID, err
	}

	f := b.frames[id]
	if !f.valid {
		return id, nil
	}

	if err := b.writeBack(f); err != nil {
		b.log.Warn("write back failed", "page", f.pageNo, "frame", id, "err", err)
		return INVALID_FRAME_ID, fmt.Errorf("%w: %w", util.ErrWriteBack, err)
	}
	if err := b.directory.Remove(f.file.ID(), f.pageNo); err != nil {
		return INVALID_FRAME_ID, fmt.Errorf("%w: %w", util.ErrDirectory, err)
	}

	b.log.Debug("evict", "page", f.pageNo, "frame", id)
	b.stats.evictions++
	f.reset()

	return id, nil
}

func (b *BufferpoolManager) writeBack(f *frame) error {
	if !f.dirty {
		return nil
	}

	if err := f.file.WritePage(f.pageNo, b.store.slot(f.id)); err != nil {
		return err
	}
	f.dirty = false
	b.stats.writeBacks++

	return nil
}

type BufferpoolManager struct {
	mu        sync.Mutex
	frames    []*frame
	store     *pageStore
	directory Directory
	hand      int
	log       *slog.Logger
	stats     counters
	closed    bool
}
