package ledger

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Hash digests content with the algorithm tag prefixed, so stored hashes
// stay comparable if the algorithm ever changes.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// HashFile hashes a file's current bytes. ok is false when the file can't
// be read, which callers treat as "does not exist".
func HashFile(fs billy.Filesystem, path string) (hash string, ok bool) {
	content, err := util.ReadFile(fs, path)
	if err != nil {
		return "", false
	}
	return Hash(content), true
}
