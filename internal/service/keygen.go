package service

import "math/rand"

const (
	keyPrefix    = "pk_"
	keySuffixLen = 9
	keyAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateKey returns a placeholder key of the form pk_<9 base-36 chars>.
// It is not a credential generator: the randomness is not cryptographic and
// collisions are only caught by the uniqueness check.
func GenerateKey() string {
	b := make([]byte, len(keyPrefix)+keySuffixLen)
	copy(b, keyPrefix)
	for i := len(keyPrefix); i < len(b); i++ {
		b[i] = keyAlphabet[rand.Intn(len(keyAlphabet))]
	}
	return string(b)
}
