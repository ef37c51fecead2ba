package api

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fragmill/internal/fileutil"
	"fragmill/internal/jobs"
)

// ListFiles projects the input directory into FileInfo records, merged with
// registry state. Files with no registry entry report status "ready".
func ListFiles(inputDir, outputDir string, registry *jobs.Registry) ([]FileInfo, error) {
	names, err := fileutil.ListSources(inputDir)
	if err != nil {
		return nil, fmt.Errorf("scan input directory: %w", err)
	}
	out := make([]FileInfo, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(inputDir, name))
		if err != nil {
			// Removed between listing and stat.
			continue
		}
		entry := FileInfo{
			Filename: name,
			SizeMB:   fileutil.SizeMB(info.Size()),
			Modified: formatTime(info.ModTime()),
			Status:   string(jobs.StatusReady),
		}
		if registry != nil {
			if job, ok := registry.Lookup(name); ok {
				entry.Status = string(job.Status)
				entry.OutputFile = job.OutputFile
				entry.OutputSizeMB = job.OutputSizeMB
			}
		}
		artifact := fileutil.ArtifactName(name)
		if size, ok := fileutil.FileSize(filepath.Join(outputDir, artifact)); ok {
			entry.HasOutput = true
			if entry.OutputFile == "" {
				entry.OutputFile = artifact
			}
			if entry.OutputSizeMB == nil {
				sizeMB := fileutil.SizeMB(size)
				entry.OutputSizeMB = &sizeMB
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// ListFragments projects the output directory into FragmentInfo records,
// sorted by filename.
func ListFragments(outputDir string) ([]FragmentInfo, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan output directory: %w", err)
	}
	out := make([]FragmentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), fileutil.ArtifactExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, FragmentInfo{
			Filename: entry.Name(),
			SizeMB:   fileutil.SizeMB(info.Size()),
			Modified: formatTime(info.ModTime()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// FindFragment locates the artifact for a source or artifact filename.
func FindFragment(outputDir, filename string) (FragmentInfo, bool) {
	name := filepath.Base(strings.TrimSpace(filename))
	if fileutil.IsSource(name) {
		name = fileutil.ArtifactName(name)
	}
	info, err := os.Stat(filepath.Join(outputDir, name))
	if err != nil || info.IsDir() {
		return FragmentInfo{}, false
	}
	return FragmentInfo{
		Filename: name,
		SizeMB:   fileutil.SizeMB(info.Size()),
		Modified: formatTime(info.ModTime()),
	}, true
}
