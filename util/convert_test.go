package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type header struct {
	Next  int64
	Free  []int64
	Slots map[int64]int64
}

func TestConvert(t *testing.T) {
	t.Run("encodes into a padded block", func(t *testing.T) {
		h := header{Next: 3, Free: []int64{1}, Slots: map[int64]int64{0: 1, 2: 3}}

		data, err := ToByteSlice(h, 4096)
		require.NoError(t, err)
		assert.Len(t, data, 4096)

		res, err := ToStruct[header](data)
		require.NoError(t, err)
		assert.Equal(t, h, res)
	})

	t.Run("rejects values larger than the block", func(t *testing.T) {
		h := header{Free: make([]int64, 64)}

		_, err := ToByteSlice(h, 16)
		assert.Error(t, err)
	})

	t.Run("reports decode errors", func(t *testing.T) {
		_, err := ToStruct[header]([]byte{0xc1})
		assert.Error(t, err)
	})
}

func TestBufError(t *testing.T) {
	t.Run("matches kind and cause", func(t *testing.T) {
		cause := errors.New("disk on fire")
		err := NewBufError("fetch", 0xab, 7, ErrWriteBack, cause)

		assert.ErrorIs(t, err, ErrWriteBack)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "page=7")
	})

	t.Run("kind only", func(t *testing.T) {
		err := NewBufError("unpin", 1, 2, ErrNotPinned, nil)

		assert.ErrorIs(t, err, ErrNotPinned)
		assert.Equal(t, "unpin file=1 page=2: page is not pinned", err.Error())
	})
}
