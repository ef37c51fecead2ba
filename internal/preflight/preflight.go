package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"fragmill/internal/config"
	"fragmill/internal/fileutil"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeMB is the disk headroom the output directory should have before
// conversions start producing artifacts.
const minFreeMB = 512

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckConverter(cfg),
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDiskSpace("Output disk space", cfg.Paths.OutputDir, minFreeMB),
	}
	return results
}

// Passed reports whether every result succeeded.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// CheckConverter verifies the conversion command resolves on PATH and, when a
// script is configured, that the script file exists.
func CheckConverter(cfg *config.Config) Result {
	const name = "Converter tool"
	command, args := cfg.ConverterArgs()
	if strings.TrimSpace(command) == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	if _, err := exec.LookPath(command); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", command)}
	}
	if len(args) > 0 {
		script := args[0]
		if info, err := os.Stat(script); err != nil || info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("script %q not found", script)}
		}
	}
	return Result{Name: name, Passed: true, Detail: command}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has at least wantMB
// megabytes free.
func CheckDiskSpace(name, path string, wantMB int64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeBytes := int64(stat.Bavail) * stat.Bsize
	freeMB := fileutil.SizeMB(freeBytes)
	if freeBytes < wantMB*1024*1024 {
		return Result{Name: name, Detail: fmt.Sprintf("%.0f MB free, need %d MB", freeMB, wantMB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%.0f MB free", freeMB)}
}
