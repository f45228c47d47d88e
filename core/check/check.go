// Package check implements the library upgrade check: it owns the change
// registry and its compiled patterns, and turns the member accesses a host
// finds into diagnostics.
//
// A Check is built once per run. Hosts call RegisterPatterns before their
// traversal and Run once per match; both are safe to call from concurrent
// analysis units because the Check never changes after New returns.
package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emenda-labs/upgradecheck/core/pattern"
	"github.com/emenda-labs/upgradecheck/core/registry"
)

// Name is the check's identifier in reports.
const Name = "misc-library-upgrade-suggestion"

// LevelTrace sits below Debug and carries per-match notes.
const LevelTrace = slog.LevelDebug - 4

// Finder is a host's pattern registration facility.
type Finder interface {
	AddPattern(p pattern.Pattern)
}

// Check is a configured, ready-to-run analysis unit.
type Check struct {
	name     string
	opts     Options
	registry *registry.Registry
	strategy pattern.Strategy
	patterns []pattern.Pattern
	logger   *slog.Logger
}

// Option configures a Check.
type Option func(*Check)

// WithLogger sets the logger used for trace and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Check) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithName overrides the check name stamped on diagnostics.
func WithName(name string) Option {
	return func(c *Check) {
		c.name = name
	}
}

// New validates opts, loads the change file and compiles its patterns.
// Any failure here is fatal for the run.
func New(ctx context.Context, opts Options, options ...Option) (*Check, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	strategy, err := pattern.ParseStrategy(opts.Strategy)
	if err != nil {
		return nil, err
	}

	reg, err := registry.LoadURL(ctx, opts.ChangeFile)
	if err != nil {
		return nil, fmt.Errorf("loading changes: %w", err)
	}

	c := newCheck(reg, strategy, options)
	c.opts = opts
	c.logger.Debug("change registry loaded",
		slog.String("change_file", opts.ChangeFile),
		slog.Int("changes", reg.Len()),
		slog.Int("duplicates", reg.Duplicates()),
		slog.String("strategy", strategy.Name()))
	return c, nil
}

// FromRegistry builds a Check around an already loaded registry.
func FromRegistry(reg *registry.Registry, strategy pattern.Strategy, options ...Option) *Check {
	if strategy == nil {
		strategy = pattern.Leaf
	}
	c := newCheck(reg, strategy, options)
	c.opts = Options{Strategy: strategy.Name()}
	return c
}

func newCheck(reg *registry.Registry, strategy pattern.Strategy, options []Option) *Check {
	c := &Check{
		name:     Name,
		registry: reg,
		strategy: strategy,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		opt(c)
	}
	c.patterns = pattern.Compile(reg, strategy)
	return c
}

// Name returns the check name.
func (c *Check) Name() string { return c.name }

// Registry returns the change registry.
func (c *Check) Registry() *registry.Registry { return c.registry }

// Strategy returns the pattern strategy in use.
func (c *Check) Strategy() pattern.Strategy { return c.strategy }

// StoreOptions returns the effective options as key/value pairs.
func (c *Check) StoreOptions() map[string]string {
	return c.opts.Map()
}

// RegisterPatterns hands one compiled pattern per registry entry to f.
func (c *Check) RegisterPatterns(f Finder) {
	for _, p := range c.patterns {
		f.AddPattern(p)
	}
}

// Run is the per-match callback. It returns the diagnostic to emit, or
// false when the match's qualified name is not a registry key.
//
// Under Structural a pattern accepts any declaration whose innermost
// scopes spell its key, so a miss on the full name falls back to the key of
// the accepting pattern. Leaf keys are only a simple name and never stand
// in for the full one.
func (c *Check) Run(m Match) (Diagnostic, bool) {
	d, ok := Resolve(c.registry, m)
	if !ok && c.strategy.Name() == pattern.StrategyStructural && !m.Key.IsZero() {
		d, ok = resolveKey(c.registry, m, m.Key)
	}
	if !ok {
		c.logger.Log(context.Background(), LevelTrace, "candidate dropped",
			slog.String("name", m.Name.String()),
			slog.String("location", NearestLocation(m).String()))
		return Diagnostic{}, false
	}
	d.Check = c.name
	return d, true
}
