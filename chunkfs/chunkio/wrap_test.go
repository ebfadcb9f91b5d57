package chunkio

import (
	"testing"

	"github.com/sahib/nandfs/util/testutil"
	"github.com/stretchr/testify/require"
)

var testKey = testutil.CreateDummyBuf(KeySize)

func buildWrappedStore(t *testing.T, algo AlgorithmType, encrypt bool) Store {
	var store Store = NewMemStore(0, 0)
	var err error

	store, err = NewCompressedStore(store, algo)
	require.NoError(t, err)

	if encrypt {
		store, err = NewEncryptedStore(store, testKey)
		require.NoError(t, err)
	}

	return store
}

func TestWrappedStoreRoundtrip(t *testing.T) {
	tcs := []struct {
		name    string
		algo    AlgorithmType
		encrypt bool
	}{
		{"plain", AlgoNone, false},
		{"snappy", AlgoSnappy, false},
		{"lz4", AlgoLZ4, false},
		{"encrypted", AlgoNone, true},
		{"encrypted-snappy", AlgoSnappy, true},
	}

	// Striped data compresses, random data does not. Both have to
	// survive the trip either way.
	payloads := map[string][]byte{
		"striped": testutil.CreateDummyBuf(4096),
		"random":  testutil.CreateRandomDummyBuf(4096, 23),
		"tiny":    []byte{0x42},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			store := buildWrappedStore(t, tc.algo, tc.encrypt)

			chunkID := uint32(0)
			for name, payload := range payloads {
				require.NoError(t,
					store.WriteChunk(1, chunkID, payload, false),
					name,
				)

				got, err := store.ReadChunk(1, chunkID)
				require.NoError(t, err, name)
				require.Equal(t, payload, got, name)
				chunkID++
			}

			_, err := store.ReadChunk(1, chunkID)
			require.Equal(t, ErrNoSuchChunk, err)
			require.NoError(t, store.Close())
		})
	}
}

func TestEncryptedStoreRejectsTampering(t *testing.T) {
	inner := NewMemStore(0, 0)
	store, err := NewEncryptedStore(inner, testKey)
	require.NoError(t, err)

	require.NoError(t, store.WriteChunk(1, 0, []byte("very secret"), false))

	// Flip one bit in the sealed payload behind the wrapper's back:
	sealed, err := inner.ReadChunk(1, 0)
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 1
	require.NoError(t, inner.WriteChunk(1, 0, sealed, false))

	_, err = store.ReadChunk(1, 0)
	require.Equal(t, ErrCorruptChunk, err)

	// A payload too short to even hold a nonce:
	require.NoError(t, inner.WriteChunk(1, 1, []byte{1, 2, 3}, false))
	_, err = store.ReadChunk(1, 1)
	require.Equal(t, ErrCorruptChunk, err)
}

func TestEncryptedStoreWrongKey(t *testing.T) {
	inner := NewMemStore(0, 0)

	store, err := NewEncryptedStore(inner, testKey)
	require.NoError(t, err)
	require.NoError(t, store.WriteChunk(1, 0, []byte("data"), false))

	otherKey := testutil.CreateRandomDummyBuf(KeySize, 7)
	other, err := NewEncryptedStore(inner, otherKey)
	require.NoError(t, err)

	_, err = other.ReadChunk(1, 0)
	require.Equal(t, ErrCorruptChunk, err)
}

func TestEncryptedStoreBadKeySize(t *testing.T) {
	_, err := NewEncryptedStore(NewMemStore(0, 0), []byte("too short"))
	require.Equal(t, ErrBadKeySize, err)
}

func TestAlgoFromString(t *testing.T) {
	for _, name := range []string{"none", "snappy", "lz4"} {
		algo, err := AlgoFromString(name)
		require.NoError(t, err)
		require.Equal(t, name, algo.String())
	}

	_, err := AlgoFromString("zip-o-matic")
	require.Equal(t, ErrBadAlgo, err)
}
