package draftfile

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/nebari-dev/wabastudio/internal/composer"
)

// Digest returns "sha256:<hex>" over the draft's JSON form, so the same
// draft read from YAML or TOML gets the same digest.
func Digest(d composer.Draft) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return ComputeDigest(data), nil
}

// ComputeDigest computes the sha256 digest of content.
func ComputeDigest(content []byte) string {
	h := sha256.Sum256(content)
	return fmt.Sprintf("sha256:%x", h)
}
