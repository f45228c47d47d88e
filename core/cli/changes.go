package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/upgradecheck/pkg/goproxy"
)

// ChangesGoOptions holds the parsed flags for "changes go".
type ChangesGoOptions struct {
	Module string
	From   string
	To     string
	Repo   string
	Out    string
}

// ChangesGoRunFunc is the handler for "changes go". It is injected by the
// wiring layer (cmd/upgradecheck/main.go).
type ChangesGoRunFunc func(ctx context.Context, opts ChangesGoOptions) error

// NewChangesCmd creates the "changes" parent command.
func NewChangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changes",
		Short: "Generate change files",
		Long:  "Compare two versions of a library and write a change file listing its broken members.",
	}
}

// NewChangesGoCmd creates the "changes go" subcommand.
func NewChangesGoCmd(runFunc ChangesGoRunFunc) *cobra.Command {
	var opts ChangesGoOptions

	cmd := &cobra.Command{
		Use:   "go",
		Short: "Generate a change file for a Go module",
		Long: "Download two versions of a Go module from the module proxy, diff their exported\n" +
			"fields and methods, and write one change row per broken member.\n" +
			"The old version is --from, or the version --repo's go.mod requires.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateChangesGoFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "Go module path (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Version to upgrade to, or \"latest\" (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Version to upgrade from")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Repository whose go.mod names the version to upgrade from")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Write the change file here instead of stdout")

	cmd.MarkFlagRequired("module")
	cmd.MarkFlagRequired("to")

	return cmd
}

func validateChangesGoFlags(opts ChangesGoOptions) error {
	if opts.Module == "" {
		return fmt.Errorf("--module is required")
	}
	if opts.To == "" {
		return fmt.Errorf("--to is required")
	}
	if opts.To != goproxy.LatestVersion && !strings.HasPrefix(opts.To, "v") {
		return fmt.Errorf("--to version must start with 'v' (e.g. v2.3.0)")
	}
	if opts.From != "" && !strings.HasPrefix(opts.From, "v") {
		return fmt.Errorf("--from version must start with 'v' (e.g. v2.2.0)")
	}
	if opts.From == "" && opts.Repo == "" {
		return fmt.Errorf("one of --from or --repo is required")
	}
	if opts.Repo == "" {
		return nil
	}

	info, err := os.Stat(opts.Repo)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("repo path does not exist: %s", opts.Repo)
		}
		return fmt.Errorf("cannot access repo path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("repo path is not a directory: %s", opts.Repo)
	}
	return nil
}
