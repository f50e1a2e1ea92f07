package sqliteengine

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// fingerprint returns the lowercase-hex BLAKE3-256 digest of data, used as
// the blob table's primary key.
func fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
