package hashstore

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// contentDomainKey separates content digests from any other BLAKE3 use. The
// bytes are the ASCII domain name zero-padded to 32 bytes; changing them
// invalidates every stored hash.
var contentDomainKey = [32]byte{
	't', 'e', 'x', 't', 'g', 'e', 'n', '.', 'h', 'a', 's', 'h', 's', 't', 'o', 'r',
	'e', '.', 'c', 'o', 'n', 't', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0,
}

// Digest returns the hex-encoded keyed BLAKE3 hash of content. It is
// deterministic across runs and platforms.
func Digest(content []byte) string {
	hasher, err := blake3.NewKeyed(contentDomainKey[:])
	if err != nil {
		// NewKeyed only fails on a key that is not 32 bytes long.
		panic("hashstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}
