package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emenda-labs/upgradecheck/core/cli"
)

const version = "0.1.0"

// Exit status for a run that reported unfixed findings, matching go vet.
const exitFindings = 3

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a := &app{logger: logger, stdout: os.Stdout, stderr: os.Stderr}

	root := cli.NewRootCmd(version, level)
	checkCmd := cli.NewCheckCmd()
	checkCmd.AddCommand(cli.NewCheckGoCmd(a.runCheck), cli.NewCheckCppCmd(a.runCheck))
	changesCmd := cli.NewChangesCmd()
	changesCmd.AddCommand(cli.NewChangesGoCmd(a.runChangesGo))
	root.AddCommand(checkCmd, changesCmd)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrFindings) {
			os.Exit(exitFindings)
		}
		fmt.Fprintf(os.Stderr, "upgradecheck: %v\n", err)
		os.Exit(1)
	}
}

// app carries what the command handlers share.
type app struct {
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}
