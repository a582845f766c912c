package buffer

import (
	"fmt"

	"github.com/jobala/clockbuf/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// Directory maps a (file, page number) pair to the frame holding it.
type Directory interface {
	Lookup(fileID uint64, pageNo int64) (int, error)
	Insert(fileID uint64, pageNo int64, frameID int) error
	Remove(fileID uint64, pageNo int64) error
	Len() int
}

type pageKey struct {
	fileID uint64
	pageNo int64
}

// NewDirectory returns a directory sized for a pool of poolSize frames with
// twenty percent slack.
func NewDirectory(poolSize int) *pageDirectory {
	return &pageDirectory{
		entries:  xsync.NewMapOf[pageKey, int](),
		capacity: poolSize*6/5 + 1,
	}
}

func (d *pageDirectory) Lookup(fileID uint64, pageNo int64) (int, error) {
	frameID, ok := d.entries.Load(pageKey{fileID, pageNo})
	if !ok {
		return INVALID_FRAME_ID, util.ErrNotFound
	}
	return frameID, nil
}

func (d *pageDirectory) Insert(fileID uint64, pageNo int64, frameID int) error {
	if d.entries.Size() >= d.capacity {
		return fmt.Errorf("%w: directory full (%d entries)", util.ErrDirectory, d.capacity)
	}

	if existing, loaded := d.entries.LoadOrStore(pageKey{fileID, pageNo}, frameID); loaded {
		return fmt.Errorf("%w: page %d already mapped to frame %d", util.ErrDirectory, pageNo, existing)
	}
	return nil
}

func (d *pageDirectory) Remove(fileID uint64, pageNo int64) error {
	if _, ok := d.entries.LoadAndDelete(pageKey{fileID, pageNo}); !ok {
		return util.ErrNotFound
	}
	return nil
}

func (d *pageDirectory) Len() int {
	return d.entries.Size()
}

type pageDirectory struct {
	entries  *xsync.MapOf[pageKey, int]
	capacity int
}
