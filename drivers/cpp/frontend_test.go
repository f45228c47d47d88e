package cpp

import (
	"bytes"
	"context"
	"log/slog"
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

const projectDir = "testdata/project"

func clangRegistry() *registry.Registry {
	return registry.New(
		changespec.Change{
			Kind:  changespec.ChangeKindMethod,
			Token: changespec.TokenMethod,
			Name:  changespec.ParseQualifiedName("clang::CFGBlock::getTerminator"),
		},
		changespec.Change{
			Kind:    changespec.ChangeKindField,
			Token:   changespec.TokenRemovedField,
			Name:    changespec.ParseQualifiedName("clang::immutability::Values::maybeFields"),
			FixText: "someOtherField",
		},
	)
}

type position struct {
	file   string
	line   int
	column int
}

func positions(ds []check.Diagnostic) []position {
	out := make([]position, 0, len(ds))
	for _, d := range ds {
		out = append(out, position{filepath.Base(d.Location.Filename), d.Location.Line, d.Location.Column})
	}
	return out
}

func scan(t *testing.T, strategy pattern.Strategy, targets ...string) []check.Diagnostic {
	t.Helper()
	c := check.FromRegistry(clangRegistry(), strategy)
	ds, err := NewFrontend(WithJobs(2)).Scan(context.Background(), c, projectDir, targets)
	require.NoError(t, err)
	return ds
}

func TestScan_MethodWithoutFix(t *testing.T) {
	ds := scan(t, pattern.Leaf, "analysis.cpp")

	require.NotEmpty(t, ds)
	d := ds[0]
	assert.Equal(t, "Reference to member will break: clang::CFGBlock::getTerminator", d.Message)
	assert.Equal(t, check.Name, d.Check)
	assert.Equal(t, 4, d.Location.Line)
	assert.Equal(t, 10, d.Location.Column)
	assert.Nil(t, d.Fix)
}

func TestScan_FieldWithFix(t *testing.T) {
	ds := scan(t, pattern.Leaf, "analysis.cpp")

	var found *check.Diagnostic
	for i := range ds {
		if ds[i].Change.Name.Leaf() == "maybeFields" {
			found = &ds[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "Reference to member will break: clang::immutability::Values::maybeFields", found.Message)
	assert.Equal(t, position{"analysis.cpp", 9, 17}, positions([]check.Diagnostic{*found})[0])
	require.NotNil(t, found.Fix)
	assert.Equal(t, "someOtherField", found.Fix.Text)

	src, err := os.ReadFile(filepath.Join(projectDir, "analysis.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "values.maybeFields", string(src[found.Fix.Range.Start.Offset:found.Fix.Range.End.Offset]))
}

func TestScan_AllFiles(t *testing.T) {
	for _, strategy := range []pattern.Strategy{pattern.Leaf, pattern.Structural} {
		t.Run(strategy.Name(), func(t *testing.T) {
			ds := scan(t, strategy)

			assert.Equal(t, []position{
				{"analysis.cpp", 4, 10},
				{"analysis.cpp", 9, 17},
				{"analysis.cpp", 18, 11},
				{"analysis.cpp", 22, 7},
				{"using.cpp", 7, 9},
				{"using.cpp", 12, 7},
			}, positions(ds))
		})
	}
}

func TestScan_StructuralKeyBelowNamespace(t *testing.T) {
	reg := registry.New(changespec.Change{
		Kind:  changespec.ChangeKindMethod,
		Token: changespec.TokenMethod,
		Name:  changespec.ParseQualifiedName("CFGBlock::getTerminator"),
	})

	c := check.FromRegistry(reg, pattern.Structural)
	ds, err := NewFrontend().Scan(context.Background(), c, projectDir, []string{"analysis.cpp"})
	require.NoError(t, err)
	assert.Equal(t, []position{
		{"analysis.cpp", 4, 10},
		{"analysis.cpp", 18, 11},
		{"analysis.cpp", 22, 7},
	}, positions(ds))
	for _, d := range ds {
		assert.Equal(t, "Reference to member will break: clang::CFGBlock::getTerminator", d.Message)
		assert.Equal(t, "CFGBlock::getTerminator", d.Change.Name.String())
	}

	c = check.FromRegistry(reg, pattern.Leaf)
	ds, err = NewFrontend().Scan(context.Background(), c, projectDir, []string{"analysis.cpp"})
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestScan_LeafCollisionIsDropped(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: check.LevelTrace}))
	c := check.FromRegistry(clangRegistry(), pattern.Leaf, check.WithLogger(logger))

	ds, err := NewFrontend().Scan(context.Background(), c, projectDir, []string{"analysis.cpp"})
	require.NoError(t, err)
	for _, d := range ds {
		assert.NotContains(t, d.Message, "Other")
	}
	assert.Contains(t, buf.String(), "candidate dropped")
	assert.Contains(t, buf.String(), "name=Other::maybeFields")
}

func TestScan_NoPatterns(t *testing.T) {
	c := check.FromRegistry(registry.New(), pattern.Leaf)

	ds, err := NewFrontend().Scan(context.Background(), c, projectDir, nil)
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestScan_MissingTarget(t *testing.T) {
	c := check.FromRegistry(clangRegistry(), pattern.Leaf)

	_, err := NewFrontend().Scan(context.Background(), c, projectDir, []string{"absent.cpp"})
	assert.ErrorContains(t, err, "target absent.cpp")
}

func TestExpandTargets(t *testing.T) {
	paths, err := expandTargets(projectDir, nil)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		rel, err := filepath.Rel(projectDir, p)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"analysis.cpp", "include/clang.h", "using.cpp"}, names)
}

func TestSplitTypeName(t *testing.T) {
	tests := []struct {
		in       string
		want     []string
		absolute bool
	}{
		{"CFGBlock", []string{"CFGBlock"}, false},
		{"const clang::CFGBlock *", []string{"clang", "CFGBlock"}, false},
		{"::clang::CFGBlock&", []string{"clang", "CFGBlock"}, true},
		{"std::vector<clang::CFGBlock *>", []string{"std", "vector"}, false},
		{"struct Values", []string{"Values"}, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, abs := splitTypeName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.absolute, abs)
		})
	}
}

func TestAccessQuery(t *testing.T) {
	q := accessQuery([]string{"getTerminator"})
	assert.Equal(t, `(field_expression field: (field_identifier) @member (#eq? @member "getTerminator")) @access`+"\n", q)
}

func TestCompileQuery_SkipsNonIdentifiers(t *testing.T) {
	set := pattern.NewSet([]pattern.Pattern{
		pattern.Leaf.Compile(changespec.ParseQualifiedName("ns::C::operator==")),
		pattern.Leaf.Compile(changespec.ParseQualifiedName("ns::C::value")),
	})

	q, skipped, err := compileQuery(set)
	require.NoError(t, err)
	require.NotNil(t, q)
	defer q.Close()
	assert.Equal(t, []string{"operator=="}, skipped)
}

func TestScopeDecl(t *testing.T) {
	d := newScopeDecl([]string{"clang", "CFGBlock", "getTerminator"})
	assert.Equal(t, []string{"clang", "CFGBlock", "getTerminator"}, pattern.QualifiedName(d))
	assert.True(t, pattern.NamedDecl("getTerminator", pattern.NamedDecl("CFGBlock", pattern.Anything()))(d))
}
