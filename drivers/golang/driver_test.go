package golang

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/pkg/goproxy"
)

func moduleZip(t *testing.T, version, src string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	prefix := "example.com/lib@" + version + "/"
	for name, content := range map[string]string{
		"go.mod": "module example.com/lib\n\ngo 1.22\n",
		"lib.go": src,
	} {
		f, err := w.Create(prefix + name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestChangeSource_FetchAndCompute(t *testing.T) {
	zips := map[string][]byte{
		"/example.com/lib/@v/v1.0.0.zip": moduleZip(t, "v1.0.0", "package lib\n\ntype Config struct {\n\tHost string\n\tPort int\n}\n\nfunc (c *Config) Dial() error { return nil }\n"),
		"/example.com/lib/@v/v2.0.0.zip": moduleZip(t, "v2.0.0", "package lib\n\ntype Config struct {\n\tPort int\n}\n\nfunc (c *Config) Dial(timeout int) error { return nil }\n"),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := zips[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	src := NewChangeSource(goproxy.NewClient(goproxy.WithProxies(srv.URL)), nil)
	ctx := context.Background()

	oldPath, oldCleanup, err := src.FetchSource(ctx, "example.com/lib", "v1.0.0")
	require.NoError(t, err)
	defer oldCleanup()
	newPath, newCleanup, err := src.FetchSource(ctx, "example.com/lib", "v2.0.0")
	require.NoError(t, err)
	defer newCleanup()

	spec, err := src.ComputeChanges(ctx, oldPath, newPath, "v1.0.0", "v2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "example.com/lib", spec.Module)
	assert.Equal(t, "v1.0.0", spec.OldVersion)
	assert.Equal(t, "v2.0.0", spec.NewVersion)

	got := make([]string, 0, len(spec.Changes))
	for _, c := range spec.Changes {
		got = append(got, c.Token+" "+c.Name.String())
	}
	assert.Equal(t, []string{
		changespec.TokenMethod + " example.com/lib.Config.Dial",
		changespec.TokenRemovedField + " example.com/lib.Config.Host",
	}, got)
}

func TestChangeSource_FetchMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	src := NewChangeSource(goproxy.NewClient(goproxy.WithProxies(srv.URL)), nil)
	_, _, err := src.FetchSource(context.Background(), "example.com/lib", "v9.9.9")
	assert.ErrorIs(t, err, goproxy.ErrNotFound)
}

func TestChangeSource_ModuleMismatch(t *testing.T) {
	write := func(module string) string {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(fmt.Sprintf("module %s\n", module)), 0o644))
		return dir
	}

	src := NewChangeSource(nil, nil)
	_, err := src.ComputeChanges(context.Background(), write("example.com/a"), write("example.com/b"), "v1", "v2")
	assert.ErrorContains(t, err, "module mismatch")
}
