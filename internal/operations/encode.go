package operations

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/kebairia/mongomail/internal/failure"
)

// Encoded is an archive prepared for a mail attachment.
type Encoded struct {
	Content string // base64, standard alphabet, no line breaks
	SHA256  string
	Size    int64
}

// EncodeFile reads path once, producing its base64 content and SHA-256.
func EncodeFile(path string) (Encoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return Encoded{}, failure.Archive("open archive for encoding", err)
	}
	defer f.Close()

	var (
		b64  strings.Builder
		hash = sha256.New()
	)
	enc := base64.NewEncoder(base64.StdEncoding, &b64)

	n, err := io.Copy(io.MultiWriter(enc, hash), f)
	if err != nil {
		return Encoded{}, failure.Archive("read archive", err)
	}
	if err := enc.Close(); err != nil {
		return Encoded{}, failure.Archive("encode archive", err)
	}

	return Encoded{
		Content: b64.String(),
		SHA256:  hex.EncodeToString(hash.Sum(nil)),
		Size:    n,
	}, nil
}
