// Package fileutil holds the filesystem conventions linking source models to
// converted artifacts: extension filters, the sanitized artifact naming rule,
// and size arithmetic used in API payloads.
package fileutil

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// SourceExt is the extension of input building-model files.
	SourceExt = ".ifc"
	// ArtifactExt is the extension of converted viewer artifacts.
	ArtifactExt = ".frag"
)

// IsSource reports whether name looks like a source model file.
func IsSource(name string) bool {
	return strings.EqualFold(filepath.Ext(name), SourceExt)
}

// ArtifactName derives the artifact filename for a source file. The stem is
// sanitized the same way artifacts were historically produced: spaces become
// underscores and parentheses are dropped. hasOutput checks depend on this
// rule matching exactly, so change it only together with existing artifacts.
func ArtifactName(sourceName string) string {
	stem := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	stem = strings.ReplaceAll(stem, " ", "_")
	stem = strings.ReplaceAll(stem, "(", "")
	stem = strings.ReplaceAll(stem, ")", "")
	return stem + ArtifactExt
}

// ListSources returns the names of source model files in dir, sorted.
func ListSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsSource(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// SizeMB converts a byte count to megabytes rounded to two decimals.
func SizeMB(bytes int64) float64 {
	return Round2(float64(bytes) / (1024 * 1024))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FileSize returns the size of path in bytes, or 0 when it does not exist.
func FileSize(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}
