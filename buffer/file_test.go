package buffer

import (
	"errors"
	"fmt"

	"github.com/jobala/clockbuf/storage/disk"
	"github.com/jobala/clockbuf/util"
)

var _ File = (*disk.DiskFile)(nil)

var errInjected = errors.New("injected failure")

type writeRecord struct {
	pageNo int64
	data   string
}

// memFile is an in-memory File that records writes and reads and can be told
// to fail.
type memFile struct {
	id        uint64
	pages     map[int64][]byte
	next      int64
	writes    []writeRecord
	reads     []int64
	disposed  []int64
	events    *[]string
	failRead  bool
	failWrite bool
	failAlloc bool
}

func newMemFile(id uint64, numPages int) *memFile {
	f := &memFile{id: id, pages: map[int64][]byte{}}
	for i := range numPages {
		data := make([]byte, disk.PAGE_SIZE)
		copy(data, fmt.Sprintf("file %d page %d", id, i))
		f.pages[int64(i)] = data
	}
	f.next = int64(numPages)
	return f
}

func (f *memFile) ID() uint64 {
	return f.id
}

func (f *memFile) ReadPage(pageNo int64, dst []byte) error {
	if f.failRead {
		return errInjected
	}
	data, ok := f.pages[pageNo]
	if !ok {
		return util.ErrPageOutOfRange
	}
	f.reads = append(f.reads, pageNo)
	f.record("read %d:%d", f.id, pageNo)
	copy(dst, data)
	return nil
}

func (f *memFile) WritePage(pageNo int64, data []byte) error {
	if f.failWrite {
		return errInjected
	}
	if _, ok := f.pages[pageNo]; !ok {
		return util.ErrPageOutOfRange
	}
	f.pages[pageNo] = append([]byte(nil), data...)
	f.writes = append(f.writes, writeRecord{pageNo, text(data)})
	f.record("write %d:%d", f.id, pageNo)
	return nil
}

func (f *memFile) AllocatePage() (int64, error) {
	if f.failAlloc {
		return disk.INVALID_PAGE_ID, errInjected
	}
	pageNo := f.next
	f.next++
	f.pages[pageNo] = make([]byte, disk.PAGE_SIZE)
	return pageNo, nil
}

func (f *memFile) DisposePage(pageNo int64) error {
	if _, ok := f.pages[pageNo]; !ok {
		return util.ErrPageOutOfRange
	}
	delete(f.pages, pageNo)
	f.disposed = append(f.disposed, pageNo)
	return nil
}

// record appends to the event log shared between files, if one is attached.
func (f *memFile) record(format string, args ...any) {
	if f.events != nil {
		*f.events = append(*f.events, fmt.Sprintf(format, args...))
	}
}

func (f *memFile) content(pageNo int64) string {
	return text(f.pages[pageNo])
}

// put replaces the page contents with s.
func put(page []byte, s string) {
	clear(page)
	copy(page, s)
}

// text returns data up to the first zero byte.
func text(data []byte) string {
	for i, c := range data {
		if c == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
