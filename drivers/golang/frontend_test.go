package golang

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/core/pattern"
	"github.com/emenda-labs/upgradecheck/core/registry"
)

func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestFrontend_Scan(t *testing.T) {
	dir := writeModule(t, map[string]string{
		"go.mod":          "module example.com/demo\n\ngo 1.22\n",
		"lib/lib.go":      "package lib\n\ntype Options struct {\n\tLegacy bool\n}\n",
		"app/app.go":      "package app\n\nimport \"example.com/demo/lib\"\n\nfunc Use(o lib.Options) bool {\n\treturn o.Legacy\n}\n",
		"app/app_test.go": "package app\n\nimport (\n\t\"testing\"\n\n\t\"example.com/demo/lib\"\n)\n\nfunc TestUse(t *testing.T) {\n\t_ = lib.Options{}.Legacy\n}\n",
	})
	reg := registry.New(changespec.Change{
		Kind:    changespec.ChangeKindField,
		Token:   changespec.TokenRemovedField,
		Name:    changespec.ParseQualifiedName("example.com/demo/lib.Options.Legacy"),
		FixText: "o.Modern",
	})
	c := check.FromRegistry(reg, pattern.Structural)

	ds, err := NewFrontend(WithJobs(2)).Scan(context.Background(), c, dir, nil)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "app.go", filepath.Base(ds[0].Location.Filename))
	assert.Equal(t, 6, ds[0].Location.Line)
	assert.Equal(t, 11, ds[0].Location.Column)
	require.NotNil(t, ds[0].Fix)
	assert.Equal(t, "o.Modern", ds[0].Fix.Text)

	withTests, err := NewFrontend(WithTests(true)).Scan(context.Background(), c, dir, []string{"./app"})
	require.NoError(t, err)
	require.Len(t, withTests, 2)
	assert.Equal(t, "app.go", filepath.Base(withTests[0].Location.Filename))
	assert.Equal(t, "app_test.go", filepath.Base(withTests[1].Location.Filename))
}

func TestFrontend_Language(t *testing.T) {
	assert.Equal(t, "go", NewFrontend().Language())
}
