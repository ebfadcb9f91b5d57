package chunkio

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"

	e "github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrBadKeySize is returned when the key is not KeySize bytes long.
	ErrBadKeySize = errors.New("bad key size, need 32 bytes")

	// ErrCorruptChunk is returned when a sealed chunk payload failed
	// to authenticate. Either the data was tampered with or the key
	// is wrong.
	ErrCorruptChunk = errors.New("chunk payload is corrupt or key is wrong")
)

// KeySize is the number of bytes NewEncryptedStore expects as key.
const KeySize = chacha20poly1305.KeySize

type encryptStore struct {
	inner Store
	aead  cipher.AEAD
}

// NewEncryptedStore wraps `inner` so that every chunk payload is sealed
// with ChaCha20-Poly1305 before it hits the backend. Each write uses a
// fresh random nonce which is stored in front of the ciphertext, so
// overwriting a chunk never reuses a nonce.
func NewEncryptedStore(inner Store, key []byte) (Store, error) {
	if len(key) != KeySize {
		return nil, ErrBadKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, e.Wrap(err, "failed to build aead")
	}

	return &encryptStore{
		inner: inner,
		aead:  aead,
	}, nil
}

func (es *encryptStore) ReadChunk(objID uint64, chunkID uint32) ([]byte, error) {
	sealed, err := es.inner.ReadChunk(objID, chunkID)
	if err != nil {
		return nil, err
	}

	nonceSize := es.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrCorruptChunk
	}

	data, err := es.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, ErrCorruptChunk
	}

	return data, nil
}

func (es *encryptStore) WriteChunk(objID uint64, chunkID uint32, data []byte, useReserve bool) error {
	nonce := make([]byte, es.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return e.Wrap(err, "failed to read random nonce")
	}

	sealed := es.aead.Seal(nonce, nonce, data, nil)
	return es.inner.WriteChunk(objID, chunkID, sealed, useReserve)
}

func (es *encryptStore) DeleteChunk(objID uint64, chunkID uint32) error {
	return es.inner.DeleteChunk(objID, chunkID)
}

func (es *encryptStore) DeleteObject(objID uint64) error {
	return es.inner.DeleteObject(objID)
}

func (es *encryptStore) Objects() ([]uint64, error) {
	return es.inner.Objects()
}

func (es *encryptStore) Close() error {
	return es.inner.Close()
}
