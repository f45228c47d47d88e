package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/core/cli"
	"github.com/emenda-labs/upgradecheck/core/driver"
	"github.com/emenda-labs/upgradecheck/drivers/cpp"
	"github.com/emenda-labs/upgradecheck/drivers/golang"
	"github.com/emenda-labs/upgradecheck/pkg/edit"
	"github.com/emenda-labs/upgradecheck/pkg/report"
)

func (a *app) frontend(opts cli.CheckOptions) (driver.Frontend, error) {
	switch opts.Language {
	case "go":
		return golang.NewFrontend(
			golang.WithJobs(opts.Jobs),
			golang.WithTests(opts.Tests),
			golang.WithFrontendLogger(a.logger),
		), nil
	case "cpp":
		return cpp.NewFrontend(cpp.WithJobs(opts.Jobs), cpp.WithLogger(a.logger)), nil
	default:
		return nil, fmt.Errorf("unsupported language %q", opts.Language)
	}
}

func (a *app) runCheck(ctx context.Context, opts cli.CheckOptions) error {
	checkOpts, err := opts.Resolve()
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	fe, err := a.frontend(opts)
	if err != nil {
		return err
	}

	c, err := check.New(ctx, checkOpts, check.WithLogger(a.logger))
	if err != nil {
		return err
	}

	diagnostics, err := fe.Scan(ctx, c, opts.Dir, opts.Targets)
	if err != nil {
		return fmt.Errorf("scanning %s sources: %w", fe.Language(), err)
	}
	a.logger.Debug("scan complete",
		slog.String("language", fe.Language()),
		slog.Int("diagnostics", len(diagnostics)))

	if err := report.Write(a.stdout, format, diagnostics, c.StoreOptions()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if opts.Fix || opts.Diff {
		fixed, err := a.applyFixes(diagnostics, opts.Diff)
		if err != nil {
			return err
		}
		if opts.Fix && fixed == len(diagnostics) {
			return nil
		}
	}
	if len(diagnostics) > 0 {
		return cli.ErrFindings
	}
	return nil
}

// applyFixes writes or previews the fixes and returns how many were applied.
func (a *app) applyFixes(diagnostics []check.Diagnostic, dryRun bool) (int, error) {
	res, err := edit.Apply(diagnostics, edit.Options{DryRun: dryRun})
	if errors.Is(err, edit.ErrNoFixes) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("applying fixes: %w", err)
	}
	for _, s := range res.Skipped {
		a.logger.Warn("fix skipped", slog.String("location", s.Location.String()), slog.String("reason", s.Reason))
	}
	for _, fc := range res.Files {
		if dryRun {
			diff, err := fc.Diff()
			if err != nil {
				return 0, fmt.Errorf("diffing %s: %w", fc.Path, err)
			}
			fmt.Fprint(a.stdout, diff)
			continue
		}
		a.logger.Info("fixed file", slog.String("file", fc.Path), slog.Int("edits", fc.Edits))
	}
	return res.Applied, nil
}
