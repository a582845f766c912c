package util

import (
	"errors"
	"fmt"
)

var (
	ErrPoolExhausted   = errors.New("buffer pool exhausted: all frames pinned")
	ErrWriteBack       = errors.New("write back failed")
	ErrIO              = errors.New("file i/o failed")
	ErrDirectory       = errors.New("page directory error")
	ErrNotFound        = errors.New("page not found in buffer pool")
	ErrNotPinned       = errors.New("page is not pinned")
	ErrPagePinned      = errors.New("page is pinned")
	ErrBadFrame        = errors.New("frame table and directory disagree")
	ErrAllocation      = errors.New("page allocation failed")
	ErrInvalidPoolSize = errors.New("invalid pool size")
	ErrPoolClosed      = errors.New("buffer pool is closed")
	ErrFileClosed      = errors.New("file is closed")
	ErrPageOutOfRange  = errors.New("page number out of range")
	ErrInvalidPageSize = errors.New("invalid page size")
)

// BufError records the operation and page an error came from. Kind is one of
// the sentinels above; Err, when set, is the underlying cause.
type BufError struct {
	Op     string
	FileID uint64
	PageNo int64
	Kind   error
	Err    error
}

func NewBufError(op string, fileID uint64, pageNo int64, kind, err error) *BufError {
	return &BufError{
		Op:     op,
		FileID: fileID,
		PageNo: pageNo,
		Kind:   kind,
		Err:    err,
	}
}

func (e *BufError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s file=%x page=%d: %v: %v", e.Op, e.FileID, e.PageNo, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s file=%x page=%d: %v", e.Op, e.FileID, e.PageNo, e.Kind)
}

func (e *BufError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}
