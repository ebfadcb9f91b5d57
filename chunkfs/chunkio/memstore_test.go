package chunkio

import (
	"testing"

	"github.com/sahib/nandfs/util/testutil"
	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundtrip(t *testing.T) {
	ms := NewMemStore(0, 0)

	data := testutil.CreateDummyBuf(512)
	require.NoError(t, ms.WriteChunk(1, 0, data, false))

	got, err := ms.ReadChunk(1, 0)
	require.NoError(t, err)
	require.Equal(t, data, got)

	// The store must keep its own copy:
	data[0] = 0xff
	got, err = ms.ReadChunk(1, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0), got[0])

	_, err = ms.ReadChunk(1, 1)
	require.Equal(t, ErrNoSuchChunk, err)

	require.NoError(t, ms.DeleteChunk(1, 0))
	_, err = ms.ReadChunk(1, 0)
	require.Equal(t, ErrNoSuchChunk, err)

	// Deleting twice is fine:
	require.NoError(t, ms.DeleteChunk(1, 0))
}

func TestMemStoreBudget(t *testing.T) {
	ms := NewMemStore(2, 1)

	buf := testutil.CreateDummyBuf(32)
	require.NoError(t, ms.WriteChunk(1, 0, buf, false))
	require.NoError(t, ms.WriteChunk(1, 1, buf, false))

	// Ordinary budget is used up now:
	require.Equal(t, ErrStoreFull, ms.WriteChunk(1, 2, buf, false))

	// Overwrites take no new space:
	require.NoError(t, ms.WriteChunk(1, 1, buf, false))

	// The reserve is still open for urgent writes:
	require.NoError(t, ms.WriteChunk(1, 2, buf, true))
	require.Equal(t, ErrStoreFull, ms.WriteChunk(1, 3, buf, true))

	// Deleting a chunk frees budget again:
	require.NoError(t, ms.DeleteChunk(1, 0))
	require.NoError(t, ms.WriteChunk(1, 3, buf, true))
}

func TestMemStoreDeleteObject(t *testing.T) {
	ms := NewMemStore(0, 0)

	buf := testutil.CreateDummyBuf(32)
	require.NoError(t, ms.WriteChunk(1, 0, buf, false))
	require.NoError(t, ms.WriteChunk(1, 7, buf, false))
	require.NoError(t, ms.WriteChunk(2, 0, buf, false))

	ids, err := ms.Objects()
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, ids)

	require.NoError(t, ms.DeleteObject(1))

	_, err = ms.ReadChunk(1, 0)
	require.Equal(t, ErrNoSuchChunk, err)
	_, err = ms.ReadChunk(1, 7)
	require.Equal(t, ErrNoSuchChunk, err)

	// Object 2 is not affected:
	_, err = ms.ReadChunk(2, 0)
	require.NoError(t, err)

	ids, err = ms.Objects()
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, ids)
}

func TestMemStoreClosed(t *testing.T) {
	ms := NewMemStore(0, 0)
	require.NoError(t, ms.Close())

	_, err := ms.ReadChunk(1, 0)
	require.Equal(t, ErrStoreClosed, err)
	require.Equal(t, ErrStoreClosed, ms.WriteChunk(1, 0, []byte{1}, false))
}
