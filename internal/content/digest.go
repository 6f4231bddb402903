package content

import (
	"golang.org/x/crypto/blake2b"
)

// Digest fingerprints a content file so reloads only touch what changed.
type Digest [blake2b.Size256]byte

func digestOf(raw []byte) Digest {
	return blake2b.Sum256(raw)
}
