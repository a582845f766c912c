package buffer

import (
	"sync/atomic"

	"github.com/jobala/clockbuf/storage/disk"
)

const INVALID_FRAME_ID = -1

func (f *frame) pin() {
	f.pins.Add(1)
}

func (f *frame) unpin() int32 {
	return f.pins.Add(-1)
}

func (f *frame) pinned() bool {
	return f.pins.Load() > 0
}

// set claims the frame for pageNo of file with a single pin.
func (f *frame) set(file File, pageNo int64) {
	f.file = file
	f.pageNo = pageNo
	f.pins.Store(1)
	f.dirty = false
	f.ref = true
	f.valid = true
}

func (f *frame) reset() {
	f.file = nil
	f.pageNo = disk.INVALID_PAGE_ID
	f.pins.Store(0)
	f.dirty = false
	f.ref = false
	f.valid = false
}

func (f *frame) owns(file File) bool {
	return f.file != nil && f.file.ID() == file.ID()
}

// frame is one entry of the frame descriptor table. When valid is false the
// frame holds no page, has no pins, is clean and has no directory entry.
type frame struct {
	id     int
	file   File
	pageNo int64
	pins   atomic.Int32
	dirty  bool
	ref    bool
	valid  bool
}
