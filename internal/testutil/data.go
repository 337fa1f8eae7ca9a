package testutil

import (
	"math/rand"
)

// RandomBytes returns n deterministic pseudo-random bytes.
func RandomBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	_, _ = r.Read(b)
	return b
}
