package util

import (
	"golang.org/x/crypto/argon2"
)

// DeriveKey stretches a passphrase and salt into a key of keyLen bytes.
// The parameters are sized for a one-time derivation at mount time,
// not for hashing many inputs in a hot path.
func DeriveKey(pwd, salt []byte, keyLen int) []byte {
	return argon2.IDKey(pwd, salt, 1, 8*1024, 8, uint32(keyLen))
}
