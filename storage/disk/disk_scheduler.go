package disk

import (
	"sync"
)

type reqKind int

const (
	readReq reqKind = iota
	writeReq
	allocReq
	disposeReq
)

func NewScheduler(diskManager *diskManager) *DiskScheduler {
	ds := &DiskScheduler{
		reqCh:       make(chan DiskReq, 100),
		diskManager: diskManager,
	}

	ds.wg.Add(1)
	go ds.handleDiskReq()
	return ds
}

func NewRequest(kind reqKind, pageNo int64, data []byte) DiskReq {
	return DiskReq{
		Kind:   kind,
		PageNo: pageNo,
		Data:   data,
		RespCh: make(chan DiskResp, 1),
	}
}

// Schedule queues req and returns the channel its response will arrive on.
// Requests are served one at a time in arrival order.
func (ds *DiskScheduler) Schedule(req DiskReq) <-chan DiskResp {
	ds.reqCh <- req
	return req.RespCh
}

// Shutdown stops accepting requests and waits for queued ones to finish.
func (ds *DiskScheduler) Shutdown() {
	ds.closeOnce.Do(func() {
		close(ds.reqCh)
	})
	ds.wg.Wait()
}

func (ds *DiskScheduler) handleDiskReq() {
	defer ds.wg.Done()

	for req := range ds.reqCh {
		req.RespCh <- ds.serve(req)
	}
}

func (ds *DiskScheduler) serve(req DiskReq) DiskResp {
	switch req.Kind {
	case writeReq:
		return DiskResp{PageNo: req.PageNo, Err: ds.diskManager.writePage(req.PageNo, req.Data)}
	case readReq:
		return DiskResp{PageNo: req.PageNo, Data: req.Data, Err: ds.diskManager.readPage(req.PageNo, req.Data)}
	case allocReq:
		pageNo, err := ds.diskManager.allocatePage()
		return DiskResp{PageNo: pageNo, Err: err}
	default:
		return DiskResp{PageNo: req.PageNo, Err: ds.diskManager.deletePage(req.PageNo)}
	}
}

type DiskScheduler struct {
	reqCh       chan DiskReq
	diskManager *diskManager

	wg        sync.WaitGroup
	closeOnce sync.Once
}

type DiskReq struct {
	Kind   reqKind
	PageNo int64
	Data   []byte
	RespCh chan DiskResp
}

type DiskResp struct {
	PageNo int64
	Data   []byte
	Err    error
}
