package driver

import (
	"context"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/core/check"
)

// Frontend is the interface each language host implements to run the
// check over source code.
type Frontend interface {
	// Language names the source language, e.g. "go" or "cpp".
	Language() string

	// Scan registers the check's patterns, traverses the targets and returns
	// every diagnostic the check emitted. Targets are host-specific: package
	// patterns for Go, file paths for C++. Independent units (packages,
	// files) may be analyzed concurrently; the Check is shared read-only.
	Scan(ctx context.Context, c *check.Check, dir string, targets []string) ([]check.Diagnostic, error)
}

// ChangeSource produces change records by comparing two versions of a
// library.
type ChangeSource interface {
	// FetchSource downloads module source and unpacks it to a local directory.
	// Returns the path to the unpacked source and a cleanup function that
	// removes the temp directory.
	FetchSource(ctx context.Context, module, version string) (path string, cleanup func(), err error)

	// ComputeChanges diffs two unpacked versions and returns the member
	// changes between them.
	ComputeChanges(ctx context.Context, oldPath, newPath, oldVersion, newVersion string) (changespec.ChangeSpec, error)
}
