package disk

import (
	"testing"
	"time"

	"github.com/jobala/clockbuf/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskScheduler(t *testing.T) {
	t.Run("schedule is non blocking", func(t *testing.T) {
		ds := NewScheduler(newTestManager(t))
		t.Cleanup(ds.Shutdown)

		start := time.Now()
		respCh := ds.Schedule(NewRequest(allocReq, INVALID_PAGE_ID, nil))
		elapsed := time.Since(start)

		assert.Less(t, elapsed, 100*time.Millisecond)
		<-respCh
	})

	t.Run("can schedule read and write requests", func(t *testing.T) {
		ds := NewScheduler(newTestManager(t))
		t.Cleanup(ds.Shutdown)

		alloc := <-ds.Schedule(NewRequest(allocReq, INVALID_PAGE_ID, nil))
		require.NoError(t, alloc.Err)

		data := make([]byte, PAGE_SIZE)
		copy(data, []byte("hello world"))

		writeCh := ds.Schedule(NewRequest(writeReq, alloc.PageNo, data))
		readCh := ds.Schedule(NewRequest(readReq, alloc.PageNo, make([]byte, PAGE_SIZE)))

		assert.NoError(t, (<-writeCh).Err)
		res := <-readCh
		assert.NoError(t, res.Err)
		assert.Equal(t, data, res.Data)
	})

	t.Run("errors are delivered on the response", func(t *testing.T) {
		ds := NewScheduler(newTestManager(t))
		t.Cleanup(ds.Shutdown)

		res := <-ds.Schedule(NewRequest(readReq, 9, make([]byte, PAGE_SIZE)))
		assert.ErrorIs(t, res.Err, util.ErrPageOutOfRange)

		res = <-ds.Schedule(NewRequest(disposeReq, 9, nil))
		assert.ErrorIs(t, res.Err, util.ErrPageOutOfRange)
	})

	t.Run("shutdown drains queued requests", func(t *testing.T) {
		ds := NewScheduler(newTestManager(t))

		var chans []<-chan DiskResp
		for range 10 {
			chans = append(chans, ds.Schedule(NewRequest(allocReq, INVALID_PAGE_ID, nil)))
		}
		ds.Shutdown()
		ds.Shutdown()

		for i, ch := range chans {
			res := <-ch
			assert.NoError(t, res.Err)
			assert.Equal(t, int64(i), res.PageNo)
		}
	})
}
