package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/core/cli"
)

const cppProject = "../../drivers/cpp/testdata/project"

func testApp() (*app, *bytes.Buffer) {
	var out bytes.Buffer
	return &app{logger: slog.New(slog.DiscardHandler), stdout: &out, stderr: &out}, &out
}

func writeChangeFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "changes.csv")
	content := "Method,clang::CFGBlock::getTerminator,\n" +
		"Removed_Field,clang::immutability::Values::maybeFields,someOtherField\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCheck_CppReportsFindings(t *testing.T) {
	a, out := testApp()

	err := a.runCheck(context.Background(), cli.CheckOptions{
		Language: "cpp",
		Check:    checkOptions(writeChangeFile(t)),
		Format:   "text",
		Dir:      cppProject,
		Targets:  []string{"analysis.cpp"},
	})
	assert.ErrorIs(t, err, cli.ErrFindings)
	assert.Contains(t, out.String(), "analysis.cpp:4:10: warning: Reference to member will break: clang::CFGBlock::getTerminator")
	assert.Contains(t, out.String(), `fix: replace with "someOtherField"`)
	assert.Contains(t, out.String(), "4 diagnostics (1 fixable)")
}

func TestRunCheck_CppDiff(t *testing.T) {
	a, out := testApp()

	err := a.runCheck(context.Background(), cli.CheckOptions{
		Language: "cpp",
		Check:    checkOptions(writeChangeFile(t)),
		Format:   "json",
		Diff:     true,
		Dir:      cppProject,
		Targets:  []string{"analysis.cpp"},
	})
	assert.ErrorIs(t, err, cli.ErrFindings)
	assert.Contains(t, out.String(), `"fixable": 1`)
	assert.Contains(t, out.String(), "-  return values.maybeFields + values.keptField;")
	assert.Contains(t, out.String(), "+  return someOtherField + values.keptField;")
}

func TestRunCheck_CppFixRewritesFile(t *testing.T) {
	dir := t.TempDir()
	src := "struct Values { int maybeFields; };\nint f() { Values v; return v.maybeFields; }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.cpp"), []byte(src), 0o644))
	changes := filepath.Join(dir, "changes.csv")
	require.NoError(t, os.WriteFile(changes, []byte("Renamed_Field,Values::maybeFields,v.fields\n"), 0o644))

	a, _ := testApp()
	err := a.runCheck(context.Background(), cli.CheckOptions{
		Language: "cpp",
		Check:    checkOptions(changes),
		Format:   "text",
		Fix:      true,
		Dir:      dir,
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "f.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "struct Values { int maybeFields; };\nint f() { Values v; return v.fields; }\n", string(got))
}

func TestRunCheck_BadChangeFile(t *testing.T) {
	a, _ := testApp()

	err := a.runCheck(context.Background(), cli.CheckOptions{
		Language: "cpp",
		Check:    checkOptions(filepath.Join(t.TempDir(), "missing.csv")),
		Dir:      cppProject,
	})
	assert.ErrorContains(t, err, "loading changes")
}

func TestRunCheck_UnknownLanguage(t *testing.T) {
	a, _ := testApp()

	err := a.runCheck(context.Background(), cli.CheckOptions{Language: "rust", Check: checkOptions(writeChangeFile(t))})
	assert.ErrorContains(t, err, `unsupported language "rust"`)
}

func checkOptions(changeFile string) check.Options {
	return check.Options{ChangeFile: changeFile}
}
