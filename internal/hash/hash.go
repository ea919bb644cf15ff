// Package hash computes the named digests recorded in checksum rows.
package hash

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
)

// Compute returns the lowercase hex digest of data under the named
// algorithm. An unknown algorithm yields an empty string, which callers
// treat as "no checksum recorded".
func Compute(data []byte, algorithm string) string {
	switch algorithm {
	case "crc32":
		var sum [4]byte
		binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(data))
		return hex.EncodeToString(sum[:])
	case "sha1":
		sum := sha1.Sum(data)
		return hex.EncodeToString(sum[:])
	case "sha256":
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	case "sha512":
		sum := sha512.Sum512(data)
		return hex.EncodeToString(sum[:])
	}
	return ""
}
