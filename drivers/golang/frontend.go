package golang

import (
	"context"
	"fmt"
	"go/ast"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/packages"

	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/core/driver"
)

var _ driver.Frontend = (*Frontend)(nil)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Frontend runs the check over Go packages loaded with go/packages.
type Frontend struct {
	jobs   int
	tests  bool
	logger *slog.Logger
}

// FrontendOption configures a Frontend.
type FrontendOption func(*Frontend)

// WithJobs bounds the number of packages analyzed concurrently.
// Zero or less uses GOMAXPROCS.
func WithJobs(jobs int) FrontendOption {
	return func(f *Frontend) {
		f.jobs = jobs
	}
}

// WithTests includes test files and test packages.
func WithTests(tests bool) FrontendOption {
	return func(f *Frontend) {
		f.tests = tests
	}
}

// WithFrontendLogger sets the logger for load warnings.
func WithFrontendLogger(logger *slog.Logger) FrontendOption {
	return func(f *Frontend) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFrontend creates a Go Frontend.
func NewFrontend(opts ...FrontendOption) *Frontend {
	f := &Frontend{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Frontend) Language() string { return "go" }

// Scan loads the packages matching patterns under dir and analyzes each
// package as an independent unit.
func (f *Frontend) Scan(ctx context.Context, c *check.Check, dir string, patterns []string) ([]check.Diagnostic, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    loadMode,
		Tests:   f.tests,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages %v: %w", patterns, err)
	}

	for _, pkg := range pkgs {
		for _, pkgErr := range pkg.Errors {
			f.logger.Warn("package has errors, results may be incomplete",
				slog.String("package", pkg.PkgPath),
				slog.String("error", pkgErr.Error()))
		}
	}

	set := compilePatterns(c)
	results := make([][]check.Diagnostic, len(pkgs))

	jobs := f.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(pkgs))))

	for i, pkg := range pkgs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if pkg.TypesInfo == nil {
				return nil
			}
			u := &unit{fset: pkg.Fset, info: pkg.TypesInfo, check: c, set: set}
			u.run(inspector.New(pkg.Syntax), func(_ *ast.SelectorExpr, d check.Diagnostic) {
				// Each goroutine owns results[i].
				results[i] = append(results[i], d)
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return check.MergeDiagnostics(results), nil
}
