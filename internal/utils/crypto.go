// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// HashingReader computes the sha256 digest and byte count of everything read
// through it.
type HashingReader struct {
	r      io.Reader
	hasher hash.Hash
	n      int64
}

func NewHashingReader(r io.Reader) *HashingReader {
	return &HashingReader{r: r, hasher: sha256.New()}
}

func (h *HashingReader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if n > 0 {
		h.hasher.Write(p[:n])
		h.n += int64(n)
	}
	return n, err
}

// Sum returns the hex digest of the bytes read so far.
func (h *HashingReader) Sum() string {
	return hex.EncodeToString(h.hasher.Sum(nil))
}

func (h *HashingReader) BytesRead() int64 {
	return h.n
}
