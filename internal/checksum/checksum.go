// Package checksum computes the SHA-256 content tags sent alongside writes so
// the store can verify what it received.
package checksum

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/pool"
)

// Reader hashes everything r yields and returns the base64-encoded SHA-256
// digest together with the number of bytes read.
func Reader(r io.Reader) (string, int64, error) {
	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	h := sha256.New()
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", n, fmt.Errorf("hash content: %w", err)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), n, nil
}

// Section hashes size bytes of r starting at offset. It fails if fewer bytes
// are available.
func Section(r io.ReaderAt, offset, size int64) (string, error) {
	sum, n, err := Reader(io.NewSectionReader(r, offset, size))
	if err != nil {
		return "", err
	}
	if n != size {
		return "", fmt.Errorf("hash content: short read at offset %d: got %d of %d bytes", offset, n, size)
	}
	return sum, nil
}

// Bytes returns the base64-encoded SHA-256 digest of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}
