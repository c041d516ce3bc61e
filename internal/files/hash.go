package files

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

type Digest struct {
	Hex  string
	Size int64
}

// ComputeDigest streams the file through sha256.
func ComputeDigest(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Digest{}, common.NewFileNotFoundError(path, err)
		}
		return Digest{}, common.NewFileReadError(path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Digest{}, common.NewFileReadError(path, err)
	}
	return Digest{Hex: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}
