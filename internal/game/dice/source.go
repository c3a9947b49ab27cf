package dice

import (
	"crypto/rand"
	"math/big"
)

// cryptoSource draws from crypto/rand. Used by production loops that run
// without a configured seed.
type cryptoSource struct{}

// NewCryptoSource returns a non-deterministic Source safe for concurrent use.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn returns a uniformly distributed int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}
