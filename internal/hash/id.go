package hash

import (
	"hash"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Key computes the xxHash64 of parts joined by a zero byte, so that
// ("ab", "c") and ("a", "bc") never share a key.
func Key(parts ...string) uint64 {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.WriteString(p)
	}

	return d.Sum64()
}

// NewDigest returns a streaming xxHash64 digest.
func NewDigest() hash.Hash64 {
	return xxhash.New()
}
