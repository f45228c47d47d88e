package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/pkg/report"
)

// CheckOptions holds the parsed flags for "check go" and "check cpp".
type CheckOptions struct {
	Language string
	Config   string
	Check    check.Options
	Format   string
	Fix      bool
	Diff     bool
	Jobs     int
	Tests    bool
	Dir      string
	Targets  []string
}

// Resolve merges the config file, if any, with the flags. Flags win.
func (o CheckOptions) Resolve() (check.Options, error) {
	opts := o.Check
	if o.Config != "" {
		fromFile, err := check.LoadConfig(o.Config)
		if err != nil {
			return check.Options{}, err
		}
		opts = fromFile.Merge(o.Check)
	}
	if err := opts.Validate(); err != nil {
		return check.Options{}, err
	}
	return opts, nil
}

// CheckRunFunc is the handler for a check subcommand. It is injected by the
// wiring layer (cmd/upgradecheck/main.go).
type CheckRunFunc func(ctx context.Context, opts CheckOptions) error

// NewCheckCmd creates the "check" parent command.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report references to changed library members",
		Long:  "Scan source code for accesses to members listed in a change file and report, or fix, each one.",
	}
}

// NewCheckGoCmd creates "check go". Arguments are package patterns.
func NewCheckGoCmd(runFunc CheckRunFunc) *cobra.Command {
	cmd, opts := newCheckLangCmd("go", runFunc)
	cmd.Use = "go [packages]"
	cmd.Short = "Check Go packages"
	cmd.Long = "Type-check Go packages and report selector expressions that resolve to changed members.\nPackages default to ./... under --dir."
	cmd.Flags().BoolVar(&opts.Tests, "tests", false, "Include test files")
	return cmd
}

// NewCheckCppCmd creates "check cpp". Arguments are files or directories.
func NewCheckCppCmd(runFunc CheckRunFunc) *cobra.Command {
	cmd, _ := newCheckLangCmd("cpp", runFunc)
	cmd.Use = "cpp [files or directories]"
	cmd.Short = "Check C++ sources"
	cmd.Long = "Parse C++ sources and report member access expressions that resolve to changed members.\nTargets default to every C++ file under --dir."
	return cmd
}

func newCheckLangCmd(language string, runFunc CheckRunFunc) (*cobra.Command, *CheckOptions) {
	opts := &CheckOptions{Language: language}

	cmd := &cobra.Command{
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Targets = args
			return validateCheckFlags(*opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), *opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Check.ChangeFile, "change-file", "", "Path or URL of the change file (required unless set in --config)")
	f.StringVar(&opts.Config, "config", "", "YAML file with check options; flags override it")
	f.StringVar(&opts.Check.Strategy, "strategy", "", "Pattern strategy: leaf (default) or structural")
	f.StringVar(&opts.Check.OldVersion, "old-version", "", "Library version being upgraded from")
	f.StringVar(&opts.Check.NewVersion, "new-version", "", "Library version being upgraded to")
	f.StringVar(&opts.Format, "format", string(report.FormatText), "Output format: text or json")
	f.BoolVar(&opts.Fix, "fix", false, "Apply suggested fixes in place")
	f.BoolVar(&opts.Diff, "diff", false, "Print suggested fixes as a unified diff without applying them")
	f.IntVar(&opts.Jobs, "jobs", 0, "Units analyzed concurrently (default GOMAXPROCS)")
	f.StringVar(&opts.Dir, "dir", ".", "Directory targets are resolved against")

	return cmd, opts
}

func validateCheckFlags(opts CheckOptions) error {
	if opts.Check.ChangeFile == "" && opts.Config == "" {
		return fmt.Errorf("--change-file or --config is required")
	}
	if _, err := report.ParseFormat(opts.Format); err != nil {
		return fmt.Errorf("--format: %w", err)
	}
	if opts.Fix && opts.Diff {
		return fmt.Errorf("--fix and --diff are mutually exclusive")
	}
	if opts.Jobs < 0 {
		return fmt.Errorf("--jobs must not be negative")
	}
	return nil
}
