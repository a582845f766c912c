package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/jobala/clockbuf/util"
)

// DiskFile is a paged data file. It satisfies buffer.File.
type DiskFile struct {
	mu        sync.RWMutex
	id        uint64
	path      string
	file      *os.File
	scheduler *DiskScheduler
	closed    bool
}

// Open opens or creates the data file at path.
func Open(path string) (*DiskFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", path, err)
	}
	abs = filepath.Clean(abs)

	file, err := os.OpenFile(abs, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening db file: %w", err)
	}

	dm, err := newManager(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &DiskFile{
		id:        FileID(abs),
		path:      abs,
		file:      file,
		scheduler: NewScheduler(dm),
	}, nil
}

// FileID is the identity of the data file at the cleaned absolute path.
func FileID(path string) uint64 {
	return xxhash.Sum64String(path)
}

func (f *DiskFile) ID() uint64 {
	return f.id
}

func (f *DiskFile) Path() string {
	return f.path
}

func (f *DiskFile) ReadPage(pageNo int64, dst []byte) error {
	_, err := f.do(NewRequest(readReq, pageNo, dst))
	return err
}

func (f *DiskFile) WritePage(pageNo int64, data []byte) error {
	_, err := f.do(NewRequest(writeReq, pageNo, data))
	return err
}

func (f *DiskFile) AllocatePage() (int64, error) {
	resp, err := f.do(NewRequest(allocReq, INVALID_PAGE_ID, nil))
	if err != nil {
		return INVALID_PAGE_ID, err
	}
	return resp.PageNo, nil
}

func (f *DiskFile) DisposePage(pageNo int64) error {
	_, err := f.do(NewRequest(disposeReq, pageNo, nil))
	return err
}

// Close drains outstanding requests, syncs and closes the file.
func (f *DiskFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	f.scheduler.Shutdown()

	if err := f.file.Sync(); err != nil {
		_ = f.file.Close()
		return fmt.Errorf("error syncing db file: %w", err)
	}
	return f.file.Close()
}

func (f *DiskFile) do(req DiskReq) (DiskResp, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return DiskResp{}, util.ErrFileClosed
	}

	resp := <-f.scheduler.Schedule(req)
	return resp, resp.Err
}
