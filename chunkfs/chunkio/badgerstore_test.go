package chunkio

import (
	"testing"

	"github.com/sahib/nandfs/util/testutil"
	"github.com/stretchr/testify/require"
)

func withBadgerStore(t *testing.T, fn func(bs *BadgerStore)) {
	dir := testutil.TempDir(t)
	defer testutil.Remover(t, dir)

	bs, err := NewBadgerStore(dir)
	require.NoError(t, err)

	fn(bs)
	require.NoError(t, bs.Close())
}

func TestBadgerStoreRoundtrip(t *testing.T) {
	withBadgerStore(t, func(bs *BadgerStore) {
		data := testutil.CreateDummyBuf(2048)
		require.NoError(t, bs.WriteChunk(1, 0, data, false))
		require.NoError(t, bs.WriteChunk(1, 3, data[:10], false))
		require.NoError(t, bs.WriteChunk(42, 0, data[:1], false))

		got, err := bs.ReadChunk(1, 0)
		require.NoError(t, err)
		require.Equal(t, data, got)

		got, err = bs.ReadChunk(1, 3)
		require.NoError(t, err)
		require.Equal(t, data[:10], got)

		_, err = bs.ReadChunk(1, 1)
		require.Equal(t, ErrNoSuchChunk, err)

		ids, err := bs.Objects()
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 42}, ids)

		require.NoError(t, bs.DeleteObject(1))

		_, err = bs.ReadChunk(1, 0)
		require.Equal(t, ErrNoSuchChunk, err)
		_, err = bs.ReadChunk(1, 3)
		require.Equal(t, ErrNoSuchChunk, err)

		// Other objects survive a DeleteObject:
		_, err = bs.ReadChunk(42, 0)
		require.NoError(t, err)
	})
}

func TestBadgerStoreOverwrite(t *testing.T) {
	withBadgerStore(t, func(bs *BadgerStore) {
		require.NoError(t, bs.WriteChunk(1, 0, []byte("old"), false))
		require.NoError(t, bs.WriteChunk(1, 0, []byte("new"), false))

		got, err := bs.ReadChunk(1, 0)
		require.NoError(t, err)
		require.Equal(t, []byte("new"), got)
	})
}

func TestBadgerStoreReopen(t *testing.T) {
	dir := testutil.TempDir(t)
	defer testutil.Remover(t, dir)

	data := testutil.CreateDummyBuf(1024)

	bs, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, bs.WriteChunk(23, 5, data, false))
	require.NoError(t, bs.Close())

	// Closing twice should not hurt:
	require.NoError(t, bs.Close())

	bs, err = NewBadgerStore(dir)
	require.NoError(t, err)

	got, err := bs.ReadChunk(23, 5)
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.NoError(t, bs.Close())
}
