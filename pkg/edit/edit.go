// Package edit applies the replacements attached to diagnostics to the
// files they were reported in.
package edit

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/emenda-labs/upgradecheck/core/check"
)

// ErrNoFixes is returned when no diagnostic carries a replacement.
var ErrNoFixes = errors.New("no applicable fixes found")

// Options controls how fixes are applied.
type Options struct {
	// DryRun computes the new contents without writing them.
	DryRun bool
}

// Skipped records a replacement that was not applied.
type Skipped struct {
	Location check.Location
	Reason   string
}

// FileChange summarises the edits made to one file.
type FileChange struct {
	Path   string
	Edits  int
	Before []byte
	After  []byte
}

// Result aggregates the outcome of Apply.
type Result struct {
	Applied int
	Skipped []Skipped
	Files   []FileChange
}

// Apply applies every diagnostic's replacement. Within a file replacements
// are taken in source order; one that overlaps an earlier accepted
// replacement is skipped, and an exact duplicate is applied once.
func Apply(diagnostics []check.Diagnostic, opts Options) (*Result, error) {
	byFile := make(map[string][]check.Replacement)
	for _, d := range diagnostics {
		if d.Fix == nil {
			continue
		}
		path := d.Fix.Range.Start.Filename
		byFile[path] = append(byFile[path], *d.Fix)
	}
	if len(byFile) == 0 {
		return &Result{}, ErrNoFixes
	}

	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result := &Result{}
	for _, path := range paths {
		before, err := os.ReadFile(path)
		if err != nil {
			return result, fmt.Errorf("read %s: %w", path, err)
		}
		after, applied, skipped := applyFile(before, byFile[path])
		result.Skipped = append(result.Skipped, skipped...)
		if applied == 0 {
			continue
		}
		if !opts.DryRun {
			if err := writeFile(path, after); err != nil {
				return result, err
			}
		}
		result.Applied += applied
		result.Files = append(result.Files, FileChange{Path: path, Edits: applied, Before: before, After: after})
	}
	return result, nil
}

// applyFile returns src with the accepted replacements applied.
func applyFile(src []byte, reps []check.Replacement) ([]byte, int, []Skipped) {
	sort.SliceStable(reps, func(i, j int) bool {
		a, b := reps[i].Range, reps[j].Range
		if a.Start.Offset != b.Start.Offset {
			return a.Start.Offset < b.Start.Offset
		}
		return a.End.Offset < b.End.Offset
	})

	var (
		accepted []check.Replacement
		skipped  []Skipped
	)
	for _, r := range reps {
		start, end := r.Range.Start.Offset, r.Range.End.Offset
		if start < 0 || end < start || end > len(src) {
			skipped = append(skipped, Skipped{Location: r.Range.Start, Reason: "edit span out of range"})
			continue
		}
		if n := len(accepted); n > 0 {
			prev := accepted[n-1]
			if prev.Range.Start.Offset == start && prev.Range.End.Offset == end && prev.Text == r.Text {
				continue
			}
			if spansConflict(prev.Range, r.Range) {
				skipped = append(skipped, Skipped{Location: r.Range.Start, Reason: "conflicts with a previous edit"})
				continue
			}
		}
		accepted = append(accepted, r)
	}

	out := make([]byte, 0, len(src))
	last := 0
	for _, r := range accepted {
		out = append(out, src[last:r.Range.Start.Offset]...)
		out = append(out, r.Text...)
		last = r.Range.End.Offset
	}
	out = append(out, src[last:]...)
	return out, len(accepted), skipped
}

// spansConflict reports whether two half-open ranges overlap. Two
// insertions at the same point conflict too, since their order is unknown.
func spansConflict(a, b check.Range) bool {
	aStart, aEnd := a.Start.Offset, a.End.Offset
	bStart, bEnd := b.Start.Offset, b.End.Offset
	if aStart == aEnd || bStart == bEnd {
		return aStart == bStart || (aStart < bEnd && bStart < aEnd)
	}
	return aStart < bEnd && bStart < aEnd
}

func writeFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Diff renders the change as a unified diff.
func (fc FileChange) Diff() (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(fc.Before)),
		B:        difflib.SplitLines(string(fc.After)),
		FromFile: "a/" + fc.Path,
		ToFile:   "b/" + fc.Path,
		Context:  3,
	})
}
