// Package fileid derives stable material IDs from file paths for watched files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "material:"

// MaterialID returns a deterministic material ID for the given absolute path.
// Same path always yields the same ID, so re-ingesting a changed file updates
// the existing material instead of creating a duplicate.
func MaterialID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}
