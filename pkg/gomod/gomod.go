// Package gomod reads the go.mod files of scanned repositories and of
// downloaded module versions.
package gomod

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// File is a parsed go.mod.
type File struct {
	path string
	mod  *modfile.File
}

// Read parses dir/go.mod.
func Read(dir string) (*File, error) {
	path := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no go.mod found at %s", path)
		}
		return nil, fmt.Errorf("reading go.mod: %w", err)
	}
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing go.mod: %w", err)
	}
	return &File{path: path, mod: f}, nil
}

// ModulePath returns the path named by the module directive.
func (f *File) ModulePath() (string, error) {
	if f.mod.Module == nil || f.mod.Module.Mod.Path == "" {
		return "", fmt.Errorf("%s has no module directive", f.path)
	}
	return f.mod.Module.Mod.Path, nil
}

// Require returns the version of module in the require block. A replace
// directive for the module is logged, since the proxy copy of that
// version may then differ from what the repository builds against.
func (f *File) Require(module string, logger *slog.Logger) (string, error) {
	for _, rep := range f.mod.Replace {
		if rep.Old.Path == module && logger != nil {
			logger.Warn("module is replaced, proxy source may differ from local source",
				slog.String("module", module),
				slog.String("replacement", rep.New.Path))
			break
		}
	}
	for _, req := range f.mod.Require {
		if req.Mod.Path == module {
			return req.Mod.Version, nil
		}
	}
	return "", fmt.Errorf("module %s not found in %s", module, f.path)
}

// FindModulePath returns the module path declared by dir/go.mod.
func FindModulePath(dir string) (string, error) {
	f, err := Read(dir)
	if err != nil {
		return "", err
	}
	return f.ModulePath()
}

// FindModuleVersion returns the version of module required by
// repoPath/go.mod.
func FindModuleVersion(repoPath, module string, logger *slog.Logger) (string, error) {
	f, err := Read(repoPath)
	if err != nil {
		return "", err
	}
	return f.Require(module, logger)
}
