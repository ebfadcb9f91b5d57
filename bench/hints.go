package bench

import (
	"fmt"

	"github.com/sahib/nandfs/chunkfs/chunkio"
	"github.com/sahib/nandfs/util"
)

const (
	// CompressionNone names the "do not compress" setting.
	CompressionNone = "none"

	// EncryptionNone names the "do not encrypt" setting.
	EncryptionNone = "none"

	// EncryptionChaCha20 encrypts chunks with ChaCha20-Poly1305.
	EncryptionChaCha20 = "chacha20"
)

// Hint describes how chunks get packed before they hit the store.
type Hint struct {
	Compression string
	Encryption  string
}

func (h Hint) String() string {
	return h.Compression + "-" + h.Encryption
}

// Less gives hints a stable order in the benchmark output. The
// unprocessed none-none combination sorts first, it serves as the
// baseline the other bars are scaled against.
func (h Hint) Less(other Hint) bool {
	if h.Compression != other.Compression {
		switch CompressionNone {
		case h.Compression:
			return true
		case other.Compression:
			return false
		}

		return h.Compression < other.Compression
	}

	if h.Encryption != other.Encryption {
		switch EncryptionNone {
		case h.Encryption:
			return true
		case other.Encryption:
			return false
		}

		return h.Encryption < other.Encryption
	}

	return false
}

// ValidCompressionHints returns all valid compression settings.
func ValidCompressionHints() []string {
	return chunkio.AlgoNames()
}

// ValidEncryptionHints returns all valid encryption settings.
func ValidEncryptionHints() []string {
	return []string{EncryptionNone, EncryptionChaCha20}
}

// AllPossibleHints returns the full compression times encryption matrix.
func AllPossibleHints() []Hint {
	hs := []Hint{}
	for _, zipAlgo := range ValidCompressionHints() {
		for _, encAlgo := range ValidEncryptionHints() {
			hs = append(hs, Hint{
				Compression: zipAlgo,
				Encryption:  encAlgo,
			})
		}
	}

	return hs
}

// buildStore assembles the in-memory store stack a hint describes.
func buildStore(hint Hint) (chunkio.Store, error) {
	var store chunkio.Store = chunkio.NewMemStore(0, 0)

	algoType, err := chunkio.AlgoFromString(hint.Compression)
	if err != nil {
		return nil, err
	}

	store, err = chunkio.NewCompressedStore(store, algoType)
	if err != nil {
		return nil, err
	}

	switch hint.Encryption {
	case EncryptionNone:
		return store, nil
	case EncryptionChaCha20:
		key := util.DeriveKey([]byte("bench"), []byte("bench-salt"), chunkio.KeySize)
		return chunkio.NewEncryptedStore(store, key)
	default:
		return nil, fmt.Errorf("no such encryption: %s", hint.Encryption)
	}
}
