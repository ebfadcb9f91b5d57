package testutil

import (
	"io/ioutil"
	"math/rand"
	"os"
	"testing"
)

// CreateDummyBuf returns a `size` bytes long slice, striped with the
// repeating pattern [0...254]. The stripes make off-by-one errors in
// chunk math visible in test failures.
func CreateDummyBuf(size int64) []byte {
	buf := make([]byte, size)
	for i := int64(0); i < size; i++ {
		buf[i] = byte(i % 255)
	}

	return buf
}

// CreateRandomDummyBuf returns a `size` bytes long slice of
// pseudo-random data. The same seed yields the same data.
func CreateRandomDummyBuf(size, seed int64) []byte {
	buf := make([]byte, size)

	// Read on a seeded math/rand never fails:
	rand.New(rand.NewSource(seed)).Read(buf)

	return buf
}

// TempDir creates a temporary directory and fails the test when
// that did not work. Use Remover to get rid of it afterwards.
func TempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "nandfs-test")
	if err != nil {
		t.Fatalf("creating temp directory failed: %v", err)
	}

	return dir
}

// Remover removes all files in paths recursively and errors when it fails.
// It is no error if there's nothing to delete. It's useful in defer statements.
func Remover(t *testing.T, paths ...string) {
	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			t.Errorf("removing temp directory failed: %v", err)
		}
	}
}
