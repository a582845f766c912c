package disk

import (
	"fmt"
	"os"

	"github.com/jobala/clockbuf/util"
)

const (
	PAGE_SIZE             = 4096
	DEFAULT_PAGE_CAPACITY = 16
	INVALID_PAGE_ID       = -1
)

// fileHeader lives in slot 0 of every data file. Page n is stored in slot n+1.
// Disposed pages form a chain: each free page's slot holds a freeLink to the
// next one, so the header stays a fixed size however many pages are free.
type fileHeader struct {
	NumPages  int64 `msgpack:"num_pages"`
	FreeHead  int64 `msgpack:"free_head"`
	FreeCount int64 `msgpack:"free_count"`
}

type freeLink struct {
	Next int64 `msgpack:"next"`
}

func newManager(file *os.File) (*diskManager, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("error reading file info: %w", err)
	}

	dm := &diskManager{
		dbFile:       file,
		header:       fileHeader{FreeHead: INVALID_PAGE_ID},
		free:         make(map[int64]struct{}),
		pageCapacity: info.Size() / PAGE_SIZE,
	}

	if info.Size() < PAGE_SIZE {
		dm.pageCapacity = DEFAULT_PAGE_CAPACITY
		if err := file.Truncate(dm.pageCapacity * PAGE_SIZE); err != nil {
			return nil, fmt.Errorf("error sizing db file: %w", err)
		}
		if err := dm.persistHeader(); err != nil {
			return nil, err
		}
		return dm, nil
	}

	buf := make([]byte, PAGE_SIZE)
	if _, err := file.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("error reading file header: %w", err)
	}
	header, err := util.ToStruct[fileHeader](buf)
	if err != nil {
		return nil, fmt.Errorf("error decoding file header: %w", err)
	}
	dm.header = header

	if err := dm.loadFreeChain(); err != nil {
		return nil, err
	}

	return dm, nil
}

// loadFreeChain walks the free chain from the header so isAllocated can answer
// without touching the disk.
func (dm *diskManager) loadFreeChain() error {
	pageNo := dm.header.FreeHead
	for range dm.header.FreeCount {
		if pageNo < 0 || pageNo >= dm.header.NumPages {
			return fmt.Errorf("corrupt free chain: page %d out of range", pageNo)
		}
		if _, ok := dm.free[pageNo]; ok {
			return fmt.Errorf("corrupt free chain: page %d listed twice", pageNo)
		}
		dm.free[pageNo] = struct{}{}

		link, err := dm.readLink(pageNo)
		if err != nil {
			return err
		}
		pageNo = link.Next
	}
	if pageNo != INVALID_PAGE_ID {
		return fmt.Errorf("corrupt free chain: %d pages recorded, chain continues at %d", dm.header.FreeCount, pageNo)
	}

	return nil
}

func (dm *diskManager) writePage(pageNo int64, data []byte) error {
	if len(data) != PAGE_SIZE {
		return fmt.Errorf("%w: got %d bytes", util.ErrInvalidPageSize, len(data))
	}
	if !dm.isAllocated(pageNo) {
		return fmt.Errorf("%w: page %d", util.ErrPageOutOfRange, pageNo)
	}

	offset := slotOffset(pageNo)
	if _, err := dm.dbFile.WriteAt(data, offset); err != nil {
		return fmt.Errorf("error writing at offset %d: %w", offset, err)
	}

	return nil
}

func (dm *diskManager) readPage(pageNo int64, dst []byte) error {
	if len(dst) != PAGE_SIZE {
		return fmt.Errorf("%w: got %d bytes", util.ErrInvalidPageSize, len(dst))
	}
	if !dm.isAllocated(pageNo) {
		return fmt.Errorf("%w: page %d", util.ErrPageOutOfRange, pageNo)
	}

	offset := slotOffset(pageNo)
	if _, err := dm.dbFile.ReadAt(dst, offset); err != nil {
		return fmt.Errorf("error reading from offset %d: %w", offset, err)
	}

	return nil
}

func (dm *diskManager) deletePage(pageNo int64) error {
	if !dm.isAllocated(pageNo) {
		return fmt.Errorf("%w: page %d", util.ErrPageOutOfRange, pageNo)
	}

	if err := dm.writeLink(pageNo, freeLink{Next: dm.header.FreeHead}); err != nil {
		return err
	}

	prev := dm.header
	dm.header.FreeHead = pageNo
	dm.header.FreeCount++
	if err := dm.persistHeader(); err != nil {
		dm.header = prev
		return err
	}
	dm.free[pageNo] = struct{}{}

	return nil
}

// allocatePage hands out a disposed page number if one exists, otherwise the
// next unused one. The page is zeroed on disk before it is returned.
func (dm *diskManager) allocatePage() (int64, error) {
	prev := dm.header
	var pageNo int64

	if dm.header.FreeCount > 0 {
		link, err := dm.readLink(dm.header.FreeHead)
		if err != nil {
			return INVALID_PAGE_ID, err
		}
		pageNo = dm.header.FreeHead
		dm.header.FreeHead = link.Next
		dm.header.FreeCount--
	} else {
		pageNo = dm.header.NumPages
		if err := dm.ensureCapacity(pageNo + 2); err != nil {
			return INVALID_PAGE_ID, err
		}
		dm.header.NumPages++
	}

	if _, err := dm.dbFile.WriteAt(make([]byte, PAGE_SIZE), slotOffset(pageNo)); err != nil {
		dm.header = prev
		return INVALID_PAGE_ID, fmt.Errorf("error zeroing page %d: %w", pageNo, err)
	}
	if err := dm.persistHeader(); err != nil {
		dm.header = prev
		return INVALID_PAGE_ID, err
	}
	delete(dm.free, pageNo)

	return pageNo, nil
}

func (dm *diskManager) ensureCapacity(slots int64) error {
	if slots <= dm.pageCapacity {
		return nil
	}

	capacity := max(dm.pageCapacity, 1)
	for capacity < slots {
		capacity *= 2
	}
	if err := dm.dbFile.Truncate(capacity * PAGE_SIZE); err != nil {
		return fmt.Errorf("error resizing db file: %w", err)
	}
	dm.pageCapacity = capacity

	return nil
}

func (dm *diskManager) isAllocated(pageNo int64) bool {
	if pageNo < 0 || pageNo >= dm.header.NumPages {
		return false
	}
	_, free := dm.free[pageNo]
	return !free
}

func (dm *diskManager) readLink(pageNo int64) (freeLink, error) {
	buf := make([]byte, PAGE_SIZE)
	if _, err := dm.dbFile.ReadAt(buf, slotOffset(pageNo)); err != nil {
		return freeLink{}, fmt.Errorf("error reading free link of page %d: %w", pageNo, err)
	}
	link, err := util.ToStruct[freeLink](buf)
	if err != nil {
		return freeLink{}, fmt.Errorf("error decoding free link of page %d: %w", pageNo, err)
	}
	return link, nil
}

func (dm *diskManager) writeLink(pageNo int64, link freeLink) error {
	data, err := util.ToByteSlice(link, PAGE_SIZE)
	if err != nil {
		return fmt.Errorf("error encoding free link of page %d: %w", pageNo, err)
	}
	if _, err := dm.dbFile.WriteAt(data, slotOffset(pageNo)); err != nil {
		return fmt.Errorf("error writing free link of page %d: %w", pageNo, err)
	}
	return nil
}

func (dm *diskManager) persistHeader() error {
	data, err := util.ToByteSlice(dm.header, PAGE_SIZE)
	if err != nil {
		return fmt.Errorf("error encoding file header: %w", err)
	}
	if _, err := dm.dbFile.WriteAt(data, 0); err != nil {
		return fmt.Errorf("error writing file header: %w", err)
	}
	return nil
}

func slotOffset(pageNo int64) int64 {
	return (pageNo + 1) * PAGE_SIZE
}

type diskManager struct {
	dbFile       *os.File
	header       fileHeader
	free         map[int64]struct{}
	pageCapacity int64
}
