package bench

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/sahib/nandfs/chunkfs"
	"github.com/sahib/nandfs/chunkfs/chunkio"
)

// Bench is one measurable I/O path. SetHint swaps the chunk packing
// (compression, encryption) under it; Process pushes one input through.
type Bench interface {
	SupportHints() bool
	SetHint(hint Hint) error
	Process(r io.Reader) error
	Close() error
}

//////////

type NullBench struct{}

func NewNullBench() NullBench {
	return NullBench{}
}

func (n NullBench) SupportHints() bool      { return false }
func (n NullBench) SetHint(hint Hint) error { return nil }

func (n NullBench) Process(r io.Reader) error {
	// NOTE: Do not use io.Copy here, it would take the ReadFrom of
	// ioutil.Discard. This is lightning fast. We want to measure the
	// actual time to copy in memory.
	_, err := dumbCopy(ioutil.Discard, r)
	return err
}

func (n NullBench) Close() error { return nil }

func dumbCopy(w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, 64*1024)
	written := int64(0)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
		}

		if err == io.EOF {
			return written, nil
		}

		if err != nil {
			return written, err
		}
	}
}

//////////

// StoreWriteBench writes the input chunk by chunk straight into a
// store. No cache involved; this is the floor the device benches
// compete against.
type StoreWriteBench struct {
	store   chunkio.Store
	nextObj uint64
}

func NewStoreWriteBench() *StoreWriteBench {
	return &StoreWriteBench{nextObj: 1}
}

func (sb *StoreWriteBench) SupportHints() bool { return true }

func (sb *StoreWriteBench) SetHint(hint Hint) error {
	if sb.store != nil {
		if err := sb.store.Close(); err != nil {
			return err
		}
	}

	store, err := buildStore(hint)
	if err != nil {
		return err
	}

	sb.store = store
	return nil
}

func (sb *StoreWriteBench) Process(r io.Reader) error {
	if sb.store == nil {
		return fmt.Errorf("no hint was set")
	}

	objID := sb.nextObj
	sb.nextObj++

	buf := make([]byte, chunkfs.DefaultChunkSize)
	chunkID := uint32(0)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if werr := sb.store.WriteChunk(objID, chunkID, buf[:n], false); werr != nil {
				return werr
			}

			chunkID++
		}

		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

func (sb *StoreWriteBench) Close() error {
	if sb.store == nil {
		return nil
	}

	return sb.store.Close()
}

//////////

// DeviceWriteBench writes through a mounted device with deliberately
// unaligned writes, so most spans take the cached partial chunk path.
type DeviceWriteBench struct {
	dev      *chunkfs.Device
	maxSlots int
}

func NewDeviceWriteBench(maxSlots int) *DeviceWriteBench {
	return &DeviceWriteBench{maxSlots: maxSlots}
}

func (db *DeviceWriteBench) SupportHints() bool { return true }

func (db *DeviceWriteBench) SetHint(hint Hint) error {
	if db.dev != nil {
		if err := db.dev.Unmount(); err != nil {
			return err
		}
	}

	store, err := buildStore(hint)
	if err != nil {
		return err
	}

	dev, err := chunkfs.Mount(store, chunkfs.Options{
		MaxSlots:  db.maxSlots,
		ChunkSize: chunkfs.DefaultChunkSize,
	})

	if err != nil {
		return err
	}

	db.dev = dev
	return nil
}

func (db *DeviceWriteBench) Process(r io.Reader) error {
	if db.dev == nil {
		return fmt.Errorf("no hint was set")
	}

	obj, err := db.dev.NewObject()
	if err != nil {
		return err
	}

	// 1000 does not divide the chunk size, every chunk border is
	// crossed mid-write.
	buf := make([]byte, 1000)
	off := int64(0)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := obj.WriteAt(buf[:n], off); werr != nil {
				return werr
			}

			off += int64(n)
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return err
		}
	}

	return obj.Sync()
}

func (db *DeviceWriteBench) Close() error {
	if db.dev == nil {
		return nil
	}

	return db.dev.Unmount()
}

//////////

func BenchByName(name string) (Bench, error) {
	switch name {
	case "null":
		return NewNullBench(), nil
	case "store-write":
		return NewStoreWriteBench(), nil
	case "device-write":
		return NewDeviceWriteBench(chunkfs.DefaultMaxSlots), nil
	case "device-write-nocache":
		return NewDeviceWriteBench(0), nil
	default:
		return nil, fmt.Errorf("no such bench: %s", name)
	}
}

// BenchNames returns the sorted list of all possible benches.
func BenchNames() []string {
	return []string{
		"device-write",
		"device-write-nocache",
		"null",
		"store-write",
	}
}
