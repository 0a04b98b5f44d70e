// Package classify derives station and model from an image's location
// relative to the watch root.
package classify

import (
	"path/filepath"
	"strings"
)

// pathLayers is the number of directory segments that must precede the
// filename: <root>/<station>/<model>/<file>.
const pathLayers = 2

// PathClassifier maps file paths to (station, model) pairs.
type PathClassifier struct {
	root string
}

// NewPathClassifier creates a classifier for the given watch root.
func NewPathClassifier(root string) *PathClassifier {
	return &PathClassifier{root: filepath.Clean(root)}
}

// Classify returns the station and model for path, or empty strings when the
// path is outside the watch root or not nested deeply enough. A miss is not
// an error: the caller ingests the record without station/model.
func (c *PathClassifier) Classify(path string) (station, model string) {
	rel, err := filepath.Rel(c.root, filepath.Clean(path))
	if err != nil {
		return "", ""
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ""
	}

	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < pathLayers+1 {
		return "", ""
	}
	return parts[0], parts[1]
}
