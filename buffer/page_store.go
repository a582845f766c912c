package buffer

func newPageStore(frames, pageSize int) *pageStore {
	return &pageStore{
		pageSize: pageSize,
		data:     make([]byte, frames*pageSize),
	}
}

// slot returns the memory of frame id. The slice is capped so appends cannot
// spill into the neighbouring frame.
func (s *pageStore) slot(id int) []byte {
	lo := id * s.pageSize
	hi := lo + s.pageSize
	return s.data[lo:hi:hi]
}

func (s *pageStore) zero(id int) {
	clear(s.slot(id))
}

type pageStore struct {
	pageSize int
	data     []byte
}
