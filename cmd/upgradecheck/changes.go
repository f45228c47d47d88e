package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/mod/semver"

	"github.com/emenda-labs/upgradecheck/core/cli"
	"github.com/emenda-labs/upgradecheck/core/registry"
	"github.com/emenda-labs/upgradecheck/drivers/golang"
	"github.com/emenda-labs/upgradecheck/pkg/gomod"
	"github.com/emenda-labs/upgradecheck/pkg/goproxy"
)

func (a *app) runChangesGo(ctx context.Context, opts cli.ChangesGoOptions) error {
	proxy := goproxy.NewClient(goproxy.WithLogger(a.logger))
	source := golang.NewChangeSource(proxy, a.logger)

	from := opts.From
	if from == "" {
		v, err := gomod.FindModuleVersion(opts.Repo, opts.Module, a.logger)
		if err != nil {
			return err
		}
		from = v
	}
	to := opts.To
	if to == goproxy.LatestVersion {
		info, err := proxy.Info(ctx, opts.Module, to)
		if err != nil {
			return fmt.Errorf("resolving latest version of %s: %w", opts.Module, err)
		}
		to = info.Version
	}

	if from == to {
		return fmt.Errorf("module %s is already at %s", opts.Module, to)
	}
	if semver.IsValid(from) && semver.IsValid(to) && semver.Compare(to, from) < 0 {
		a.logger.Warn("target version is older than current version",
			slog.String("from", from), slog.String("to", to))
	}

	oldPath, oldCleanup, err := source.FetchSource(ctx, opts.Module, from)
	if err != nil {
		return fmt.Errorf("fetching old version: %w", err)
	}
	defer oldCleanup()

	newPath, newCleanup, err := source.FetchSource(ctx, opts.Module, to)
	if err != nil {
		return fmt.Errorf("fetching new version: %w", err)
	}
	defer newCleanup()

	spec, err := source.ComputeChanges(ctx, oldPath, newPath, from, to)
	if err != nil {
		return err
	}
	a.logger.Info("computed changes",
		slog.String("module", spec.Module),
		slog.String("from", spec.OldVersion),
		slog.String("to", spec.NewVersion),
		slog.Int("changes", len(spec.Changes)))

	var w io.Writer = a.stdout
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.Out, err)
		}
		defer f.Close()
		w = f
	}
	if err := registry.Write(w, spec.Changes); err != nil {
		return fmt.Errorf("writing change file: %w", err)
	}
	return nil
}
