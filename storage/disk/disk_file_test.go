package disk

import (
	"path/filepath"
	"testing"

	"github.com/jobala/clockbuf/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskFile(t *testing.T) {
	t.Run("identity is stable across reopen", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "a.db")

		f, err := Open(name)
		require.NoError(t, err)
		id := f.ID()
		require.NoError(t, f.Close())

		f, err = Open(name)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })

		assert.Equal(t, id, f.ID())
		assert.Equal(t, FileID(f.Path()), f.ID())
	})

	t.Run("distinct files get distinct identities", func(t *testing.T) {
		dir := t.TempDir()

		a, err := Open(filepath.Join(dir, "a.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })

		b, err := Open(filepath.Join(dir, "b.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })

		assert.NotEqual(t, a.ID(), b.ID())
	})

	t.Run("pages persist across reopen", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "a.db")

		f, err := Open(name)
		require.NoError(t, err)

		pageNo, err := f.AllocatePage()
		require.NoError(t, err)

		data := make([]byte, PAGE_SIZE)
		copy(data, []byte("persisted"))
		require.NoError(t, f.WritePage(pageNo, data))
		require.NoError(t, f.Close())

		f, err = Open(name)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })

		buf := make([]byte, PAGE_SIZE)
		require.NoError(t, f.ReadPage(pageNo, buf))
		assert.Equal(t, data, buf)
	})

	t.Run("disposed pages cannot be read", func(t *testing.T) {
		f, err := Open(filepath.Join(t.TempDir(), "a.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })

		pageNo, err := f.AllocatePage()
		require.NoError(t, err)
		require.NoError(t, f.DisposePage(pageNo))

		err = f.ReadPage(pageNo, make([]byte, PAGE_SIZE))
		assert.ErrorIs(t, err, util.ErrPageOutOfRange)
	})

	t.Run("closed file rejects requests", func(t *testing.T) {
		f, err := Open(filepath.Join(t.TempDir(), "a.db"))
		require.NoError(t, err)
		require.NoError(t, f.Close())
		require.NoError(t, f.Close())

		_, err = f.AllocatePage()
		assert.ErrorIs(t, err, util.ErrFileClosed)
	})
}
