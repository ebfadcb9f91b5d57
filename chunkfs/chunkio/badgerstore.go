package chunkio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger"
	e "github.com/pkg/errors"
)

// BadgerStore is a Store that persists chunks in a badger database.
// Keys are "<objID>.<chunkID>", the value is the raw chunk payload.
type BadgerStore struct {
	mu sync.Mutex
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database at `path`.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path

	db, err := badger.Open(opts)
	if err != nil {
		return nil, e.Wrap(err, "failed to open badger store")
	}

	return &BadgerStore{db: db}, nil
}

func chunkKeyOf(objID uint64, chunkID uint32) []byte {
	return []byte(fmt.Sprintf("%d.%d", objID, chunkID))
}

func objPrefixOf(objID uint64) []byte {
	return []byte(fmt.Sprintf("%d.", objID))
}

func (bs *BadgerStore) ReadChunk(objID uint64, chunkID uint32) ([]byte, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.db == nil {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKeyOf(objID, chunkID))
		if err == badger.ErrKeyNotFound {
			return ErrNoSuchChunk
		}

		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, err
	}

	return data, nil
}

func (bs *BadgerStore) WriteChunk(objID uint64, chunkID uint32, data []byte, useReserve bool) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.db == nil {
		return ErrStoreClosed
	}

	// Badger has no space budget of its own; useReserve only
	// matters for backends with a fixed chunk budget.
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKeyOf(objID, chunkID), data)
	})
}

func (bs *BadgerStore) DeleteChunk(objID uint64, chunkID uint32) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.db == nil {
		return ErrStoreClosed
	}

	return bs.db.Update(func(txn *badger.Txn) error {
		// Deleting a missing key just writes a tombstone, no error.
		return txn.Delete(chunkKeyOf(objID, chunkID))
	})
}

func (bs *BadgerStore) DeleteObject(objID uint64) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.db == nil {
		return ErrStoreClosed
	}

	prefix := objPrefixOf(objID)
	return bs.db.Update(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.IteratorOptions{})
		defer iter.Close()

		// Collect first, deleting while iterating is asking for trouble.
		keys := [][]byte{}
		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			if !strings.HasPrefix(string(key), string(prefix)) {
				break
			}

			keys = append(keys, key)
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		return nil
	})
}

func (bs *BadgerStore) Objects() ([]uint64, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.db == nil {
		return nil, ErrStoreClosed
	}

	seen := make(map[uint64]bool)
	err := bs.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.IteratorOptions{})
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			fullKey := string(iter.Item().Key())
			split := strings.SplitN(fullKey, ".", 2)
			if len(split) < 2 {
				continue
			}

			objID, err := strconv.ParseUint(split[0], 10, 64)
			if err != nil {
				// Not one of our keys. Leave it alone.
				continue
			}

			seen[objID] = true
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})

	return ids, nil
}

func (bs *BadgerStore) Close() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.db == nil {
		return nil
	}

	oldDb := bs.db
	bs.db = nil
	return oldDb.Close()
}
