package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"trackscan/internal/config"
	"trackscan/internal/deps"
	"trackscan/internal/fstags"
	"trackscan/internal/rules"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that a scan root exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
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
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckRules verifies that the classification rules load. An empty path checks
// the built-in rules.
func CheckRules(path string) Result {
	const name = "Classification rules"
	set, err := rules.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d sections)", set.Source(), len(set.Sections()))}
}

// CheckTagSupport writes and reads back a tag attribute on a scratch file in
// dir to confirm the filesystem supports user extended attributes.
func CheckTagSupport(dir, attribute string) Result {
	const name = "Filesystem tags"
	file, err := os.CreateTemp(dir, ".trackscan-xattr-*")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("create scratch file: %v", err)}
	}
	path := file.Name()
	_ = file.Close()
	defer os.Remove(path)

	const probe = "trackscan-check"
	if err := fstags.Write(path, attribute, probe); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unsupported in %s (%v)", attribute, dir, err)}
	}
	if _, tags := fstags.Read(path); !fstags.Has(tags, probe) {
		return Result{Name: name, Detail: fmt.Sprintf("%s written but not readable in %s", attribute, dir)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s supported in %s", attribute, dir)}
}

// CheckSystemDeps evaluates the external binaries trackscan invokes. Both the
// scan commands and the status command use this list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "mkvmerge",
			Command:     cfg.Probe.Binary,
			Description: "Required for track identification",
		},
	}
	statuses := deps.CheckBinaries(requirements)
	return deps.WithVersions(ctx, statuses)
}
