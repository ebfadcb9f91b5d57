package chunkio

import (
	"errors"
	"sort"

	lz4 "github.com/bkaradzic/go-lz4"
	"github.com/golang/snappy"
)

// ErrBadAlgo is returned for an unsupported or unknown algorithm.
var ErrBadAlgo = errors.New("invalid algorithm type")

// AlgorithmType identifies one of the supported compression formats.
type AlgorithmType byte

const (
	// AlgoNone means no compression.
	AlgoNone = AlgorithmType(iota)

	// AlgoSnappy trades compression ratio for speed:
	// https://en.wikipedia.org/wiki/Snappy_(software)
	AlgoSnappy

	// AlgoLZ4 packs denser than snappy at slightly lower speed:
	// https://en.wikipedia.org/wiki/LZ4_(compression_algorithm)
	AlgoLZ4
)

// Algorithm is the encode/decode pair of one compression format.
// Both calls are whole-buffer operations, chunks are small enough
// that streaming would not pay off.
type Algorithm interface {
	Encode([]byte) ([]byte, error)
	Decode([]byte) ([]byte, error)
}

type noneAlgo struct{}

func (noneAlgo) Encode(src []byte) ([]byte, error) { return src, nil }
func (noneAlgo) Decode(src []byte) ([]byte, error) { return src, nil }

type snappyAlgo struct{}

func (snappyAlgo) Encode(src []byte) ([]byte, error) { return snappy.Encode(nil, src), nil }
func (snappyAlgo) Decode(src []byte) ([]byte, error) { return snappy.Decode(nil, src) }

type lz4Algo struct{}

func (lz4Algo) Encode(src []byte) ([]byte, error) { return lz4.Encode(nil, src) }
func (lz4Algo) Decode(src []byte) ([]byte, error) { return lz4.Decode(nil, src) }

// algoTable is the single place that knows all supported formats.
var algoTable = map[AlgorithmType]struct {
	name string
	algo Algorithm
}{
	AlgoNone:   {"none", noneAlgo{}},
	AlgoSnappy: {"snappy", snappyAlgo{}},
	AlgoLZ4:    {"lz4", lz4Algo{}},
}

// IsValid returns true if `at` is a supported algorithm type.
func (at AlgorithmType) IsValid() bool {
	_, ok := algoTable[at]
	return ok
}

func (at AlgorithmType) String() string {
	entry, ok := algoTable[at]
	if !ok {
		return "unknown"
	}

	return entry.name
}

// AlgoFromString converts a name like "snappy" to an AlgorithmType.
func AlgoFromString(s string) (AlgorithmType, error) {
	for at, entry := range algoTable {
		if entry.name == s {
			return at, nil
		}
	}

	return 0, ErrBadAlgo
}

// AlgoNames returns the sorted names of all supported algorithms.
func AlgoNames() []string {
	names := make([]string, 0, len(algoTable))
	for _, entry := range algoTable {
		names = append(names, entry.name)
	}

	sort.Strings(names)
	return names
}

//////////

type compressStore struct {
	inner Store
	algo  Algorithm
}

// NewCompressedStore wraps `inner` so that all chunk payloads are
// compressed with `algoType` before they hit the backend. Reading
// decompresses transparently. AlgoNone returns `inner` unchanged.
func NewCompressedStore(inner Store, algoType AlgorithmType) (Store, error) {
	if algoType == AlgoNone {
		return inner, nil
	}

	entry, ok := algoTable[algoType]
	if !ok {
		return nil, ErrBadAlgo
	}

	return &compressStore{
		inner: inner,
		algo:  entry.algo,
	}, nil
}

func (cs *compressStore) ReadChunk(objID uint64, chunkID uint32) ([]byte, error) {
	data, err := cs.inner.ReadChunk(objID, chunkID)
	if err != nil {
		return nil, err
	}

	return cs.algo.Decode(data)
}

func (cs *compressStore) WriteChunk(objID uint64, chunkID uint32, data []byte, useReserve bool) error {
	packed, err := cs.algo.Encode(data)
	if err != nil {
		return err
	}

	return cs.inner.WriteChunk(objID, chunkID, packed, useReserve)
}

func (cs *compressStore) DeleteChunk(objID uint64, chunkID uint32) error {
	return cs.inner.DeleteChunk(objID, chunkID)
}

func (cs *compressStore) DeleteObject(objID uint64) error {
	return cs.inner.DeleteObject(objID)
}

func (cs *compressStore) Objects() ([]uint64, error) {
	return cs.inner.Objects()
}

func (cs *compressStore) Close() error {
	return cs.inner.Close()
}
