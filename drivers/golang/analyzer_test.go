package golang

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/core/pattern"
	"github.com/emenda-labs/upgradecheck/core/registry"
)

func loadTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadFile(filepath.Join(analysistest.TestData(), "changes.csv"))
	require.NoError(t, err)
	return reg
}

func TestAnalyzer_LeafStrategy(t *testing.T) {
	a := NewAnalyzer(check.FromRegistry(loadTestRegistry(t), pattern.Leaf))
	analysistest.RunWithSuggestedFixes(t, analysistest.TestData(), a, "client")
}

func TestAnalyzer_StructuralStrategy(t *testing.T) {
	a := NewAnalyzer(check.FromRegistry(loadTestRegistry(t), pattern.Structural))
	analysistest.Run(t, analysistest.TestData(), a, "structural")
}

func TestAnalyzer_Flags(t *testing.T) {
	require.NoError(t, Analyzer.Flags.Set(check.OptionChangeFile, filepath.Join(analysistest.TestData(), "changes.csv")))
	require.NoError(t, Analyzer.Flags.Set(check.OptionStrategy, pattern.StrategyStructural))
	t.Cleanup(func() {
		Analyzer.Flags.Set(check.OptionChangeFile, "")
		Analyzer.Flags.Set(check.OptionStrategy, "")
	})

	analysistest.Run(t, analysistest.TestData(), Analyzer, "structural")
}
