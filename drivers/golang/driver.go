package golang

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/core/driver"
	"github.com/emenda-labs/upgradecheck/drivers/golang/astdiff"
	"github.com/emenda-labs/upgradecheck/pkg/archive"
	"github.com/emenda-labs/upgradecheck/pkg/gomod"
	"github.com/emenda-labs/upgradecheck/pkg/goproxy"
)

var _ driver.ChangeSource = (*ChangeSource)(nil)

// ChangeSource generates change records for a Go module by diffing the
// exported members of two versions fetched from the module proxy.
type ChangeSource struct {
	proxy  *goproxy.Client
	logger *slog.Logger
}

// NewChangeSource creates a ChangeSource. A nil proxy client uses the
// GOPROXY chain of the environment.
func NewChangeSource(proxy *goproxy.Client, logger *slog.Logger) *ChangeSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if proxy == nil {
		proxy = goproxy.NewClient(goproxy.WithLogger(logger))
	}
	return &ChangeSource{proxy: proxy, logger: logger}
}

// FetchSource downloads the module zip from the proxy and extracts it to a temp directory.
func (s *ChangeSource) FetchSource(ctx context.Context, module, version string) (string, func(), error) {
	s.logger.Info("downloading module", slog.String("module", module), slog.String("version", version))

	data, err := s.proxy.DownloadZip(ctx, module, version)
	if err != nil {
		return "", nil, fmt.Errorf("downloading zip for %s@%s: %w", module, version, err)
	}

	dir, cleanup, err := archive.ExtractZip(data, version)
	if err != nil {
		return "", nil, fmt.Errorf("extracting zip for %s@%s: %w", module, version, err)
	}
	return dir, cleanup, nil
}

// ComputeChanges diffs two unpacked versions of the same module.
func (s *ChangeSource) ComputeChanges(ctx context.Context, oldPath, newPath, oldVersion, newVersion string) (changespec.ChangeSpec, error) {
	oldRoot, module, err := moduleRoot(oldPath, oldVersion)
	if err != nil {
		return changespec.ChangeSpec{}, err
	}
	newRoot, newModule, err := moduleRoot(newPath, newVersion)
	if err != nil {
		return changespec.ChangeSpec{}, err
	}
	if module != newModule {
		return changespec.ChangeSpec{}, fmt.Errorf("module mismatch: old=%s new=%s", module, newModule)
	}

	old, err := astdiff.ParseExports(ctx, oldRoot, module)
	if err != nil {
		return changespec.ChangeSpec{}, fmt.Errorf("parsing exports from %s: %w", oldVersion, err)
	}
	old.Version = oldVersion

	new, err := astdiff.ParseExports(ctx, newRoot, module)
	if err != nil {
		return changespec.ChangeSpec{}, fmt.Errorf("parsing exports from %s: %w", newVersion, err)
	}
	new.Version = newVersion

	changes := astdiff.DiffExports(old, new)
	s.logger.Debug("diffed exports",
		slog.String("module", module),
		slog.Int("old_members", len(old.Entries)),
		slog.Int("new_members", len(new.Entries)),
		slog.Int("changes", len(changes)))

	return changespec.ChangeSpec{
		Module:     module,
		OldVersion: oldVersion,
		NewVersion: newVersion,
		Changes:    changes,
	}, nil
}

func moduleRoot(path, version string) (root, module string, err error) {
	root, err = astdiff.FindSourceRoot(path)
	if err != nil {
		return "", "", fmt.Errorf("finding module root in %s: %w", version, err)
	}
	module, err = gomod.FindModulePath(root)
	if err != nil {
		return "", "", fmt.Errorf("reading module path from %s: %w", version, err)
	}
	return root, module, nil
}
