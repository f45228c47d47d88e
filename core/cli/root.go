package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/upgradecheck/core/check"
)

// ErrFindings is returned by check commands that reported diagnostics
// without fixing them. The wiring layer turns it into a non-zero exit.
var ErrFindings = errors.New("references to changed members found")

// NewRootCmd creates the top-level upgradecheck command. level is raised to
// the trace level when --verbose is set.
func NewRootCmd(version string, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "upgradecheck",
		Short: "Find code that breaks when a library is upgraded",
		Long: "Upgradecheck reports, and optionally fixes, every access to a field or method\n" +
			"that a library upgrade removes, renames, moves or changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose && level != nil {
				level.Set(check.LevelTrace)
			}
		},
	}
	cmd.Version = version
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every candidate match, including dropped ones")

	return cmd
}
