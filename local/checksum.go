package local

import (
	"crypto/md5"  //nolint:gosec // md5 is the legacy file fingerprint
	"crypto/sha1" //nolint:gosec // offered for compatibility only
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"math/big"
	"strings"
)

// Algorithm names a digest supported by [Blob.Checksum].
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

// legacyWidth is the fixed width of the legacy checksum format.
const legacyWidth = 32

// New returns a fresh digest for a.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil //nolint:gosec
	case SHA1:
		return sha1.New(), nil //nolint:gosec
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("local: unsupported hash algorithm: %s", a)
	}
}

// FormatChecksum renders a digest as uppercase hex.
//
// MD5 keeps the legacy format: the digest read as an unsigned integer,
// printed without leading zeros and left-padded with '0' to 32 characters.
// That is only width-correct for 128-bit digests, so every other
// algorithm is printed at its natural width of two characters per byte.
func FormatChecksum(a Algorithm, sum []byte) string {
	if a == MD5 {
		return legacyChecksum(sum)
	}
	return strings.ToUpper(hex.EncodeToString(sum))
}

func legacyChecksum(sum []byte) string {
	s := strings.ToUpper(new(big.Int).SetBytes(sum).Text(16))
	if len(s) < legacyWidth {
		s = strings.Repeat("0", legacyWidth-len(s)) + s
	}
	return s
}
