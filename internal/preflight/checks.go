package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/config"
	"sapsdispatch/internal/dataset"
	"sapsdispatch/internal/digest"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
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
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckExecutable verifies that command resolves to a runnable program,
// either as a path or through PATH.
func CheckExecutable(name, command string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", command)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckTagCatalog verifies that the execution-tags file parses and lists at
// least one tag for every phase.
func CheckTagCatalog(path string) Result {
	const name = "Execution tags"

	tags, err := digest.LoadTagCatalog(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	counts := make([]string, 0, len(digest.Phases()))
	for _, phase := range digest.Phases() {
		n := len(tags.Images(phase))
		if n == 0 {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no %s tags)", path, phase)}
		}
		counts = append(counts, fmt.Sprintf("%s=%d", phase, n))
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, strings.Join(counts, ", "))}
}

// CheckDatasets verifies that the configured dataset windows form a usable
// selector.
func CheckDatasets(entries []config.Dataset) Result {
	const name = "Datasets"

	if len(entries) == 0 {
		return Result{Name: name, Detail: "no datasets configured"}
	}
	selector, err := dataset.FromConfig(entries)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	names := make([]string, 0, len(entries))
	for _, d := range selector.All() {
		names = append(names, d.Name)
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(names, ", ")}
}

// CheckCatalog opens the task catalog, which applies the schema on first use
// and rejects a file written by an incompatible version.
func CheckCatalog(ctx context.Context, cfg *config.Config) Result {
	const name = "Catalog"

	if err := ctx.Err(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := store.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("close: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: cfg.Catalog.Path}
}
