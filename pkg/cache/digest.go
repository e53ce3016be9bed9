package cache

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"
)

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<kind>:<digest>" where the digest covers the JSON
// encoding of parts. Struct parts therefore key on their field tags.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Digest(data)
}
