package diff

import (
	"encoding/json"
)

// Exit codes for CLI commands (matches git diff conventions).
const (
	ExitClean = 0 // No differences
	ExitDiff  = 1 // Differences detected
	ExitError = 2 // Error occurred
)

// DiffJSON is the JSON output of a draft comparison.
type DiffJSON struct {
	Source DiffRefJSON `json:"source"`
	Target DiffRefJSON `json:"target"`
	Draft  *DraftDiff  `json:"draft"`
}

// DiffRefJSON identifies one side of a diff.
type DiffRefJSON struct {
	Path   string `json:"path"`
	Digest string `json:"digest,omitempty"`
}

// FormatDiffJSON creates the JSON output for a draft diff.
func FormatDiffJSON(source, target DiffRefJSON, d *DraftDiff) ([]byte, error) {
	return json.MarshalIndent(DiffJSON{Source: source, Target: target, Draft: d}, "", "  ")
}

// ExitCodeForDiff returns the appropriate exit code for a diff result.
func ExitCodeForDiff(d *DraftDiff) int {
	if d != nil && d.HasChanges() {
		return ExitDiff
	}
	return ExitClean
}
