package bench

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/sahib/nandfs/util/testutil"
)

// Input generates input for a benchmark. It defines how the data looks
// that is fed to the measured I/O path.
type Input interface {
	Reader() (io.Reader, error)
	Close() error
}

//////////

type memInput struct {
	buf []byte
}

func (mi *memInput) Reader() (io.Reader, error) {
	return bytes.NewReader(mi.buf), nil
}

func (mi *memInput) Close() error {
	return nil
}

//////////

var (
	inputMap = map[string]func(size uint64) (Input, error){
		"striped": func(size uint64) (Input, error) {
			return &memInput{buf: testutil.CreateDummyBuf(int64(size))}, nil
		},
		"random": func(size uint64) (Input, error) {
			return &memInput{buf: testutil.CreateRandomDummyBuf(int64(size), 23)}, nil
		},
		"zero": func(size uint64) (Input, error) {
			return &memInput{buf: make([]byte, size)}, nil
		},
	}
)

// InputByName builds the input called `name`, generating `size` bytes.
func InputByName(name string, size uint64) (Input, error) {
	builder, ok := inputMap[name]
	if !ok {
		return nil, fmt.Errorf("no such input: %s", name)
	}

	return builder(size)
}

// InputNames returns all input names in sorted order.
func InputNames() []string {
	names := make([]string, 0, len(inputMap))
	for name := range inputMap {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
