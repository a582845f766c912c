package buffer

// ReadPage fetches pageNo and wraps it in a guard that unpins it clean on Drop.
func (b *BufferpoolManager) ReadPage(file File, pageNo int64) (*ReadPageGuard, error) {
	data, err := b.FetchPage(file, pageNo)
	if err != nil {
		return nil, err
	}

	return NewReadPageGuard(file, pageNo, data, b), nil
}

// WritePage fetches pageNo and wraps it in a guard that unpins it dirty on Drop.
func (b *BufferpoolManager) WritePage(file File, pageNo int64) (*WritePageGuard, error) {
	data, err := b.FetchPage(file, pageNo)
	if err != nil {
		return nil, err
	}

	return NewWritePageGuard(file, pageNo, data, b), nil
}

// NewPage allocates a page in file and returns a write guard over it.
func (b *BufferpoolManager) NewPage(file File) (*WritePageGuard, error) {
	pageNo, data, err := b.AllocPage(file)
	if err != nil {
		return nil, err
	}

	return NewWritePageGuard(file, pageNo, data, b), nil
}

func NewReadPageGuard(file File, pageNo int64, data []byte, bpm *BufferpoolManager) *ReadPageGuard {
	return &ReadPageGuard{
		PageGuard: PageGuard{
			file:   file,
			pageNo: pageNo,
			data:   data,
			bpm:    bpm,
		},
	}
}

func NewWritePageGuard(file File, pageNo int64, data []byte, bpm *BufferpoolManager) *WritePageGuard {
	return &WritePageGuard{
		PageGuard: PageGuard{
			file:   file,
			pageNo: pageNo,
			data:   data,
			bpm:    bpm,
		},
	}
}

func (pg *ReadPageGuard) Drop() {
	if pg == nil {
		return
	}
	pg.drop(false)
}

func (pg *WritePageGuard) Drop() {
	if pg == nil {
		return
	}
	pg.drop(true)
}

func (pg *ReadPageGuard) GetData() []byte {
	return pg.data
}

func (pg *WritePageGuard) GetDataMut() []byte {
	return pg.data
}

func (pg *PageGuard) PageNo() int64 {
	return pg.pageNo
}

// drop releases the guard's pin once; later calls do nothing.
func (pg *PageGuard) drop(dirty bool) {
	if pg.data == nil {
		return
	}

	if err := pg.bpm.UnpinPage(pg.file, pg.pageNo, dirty); err != nil {
		pg.bpm.log.Error("dropping page guard", "page", pg.pageNo, "err", err)
	}
	pg.data = nil
}

type PageGuard struct {
	file   File
	pageNo int64
	data   []byte
	bpm    *BufferpoolManager
}

type ReadPageGuard struct {
	PageGuard
}

type WritePageGuard struct {
	PageGuard
}
