package buffer

// File is an open paged file the pool caches pages for. ID must be stable for
// the lifetime of the file and distinct between files sharing a pool.
type File interface {
	ID() uint64
	ReadPage(pageNo int64, dst []byte) error
	WritePage(pageNo int64, data []byte) error
	AllocatePage() (int64, error)
	DisposePage(pageNo int64) error
}
