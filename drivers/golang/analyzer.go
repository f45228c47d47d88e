package golang

import (
	"context"
	"fmt"
	"go/ast"
	"sync"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/core/pattern"
)

const analyzerDoc = `report references to members that change in the next library version

The analyzer reads a change file (one "kind,qualified.Name,fix text" row per
line) and reports every field or method access that resolves to a listed
declaration. Rows with fix text carry a suggested fix replacing the whole
selector expression.`

// Analyzer is configured through its -change_file, -strategy, -old_version
// and -new_version flags, for use with singlechecker or go vet -vettool.
var Analyzer = newFlagAnalyzer()

// NewAnalyzer returns an analyzer bound to an already built check.
func NewAnalyzer(c *check.Check) *analysis.Analyzer {
	set := compilePatterns(c)
	return &analysis.Analyzer{
		Name:     "upgradecheck",
		Doc:      analyzerDoc,
		Requires: []*analysis.Analyzer{inspect.Analyzer},
		Run: func(pass *analysis.Pass) (any, error) {
			runPass(pass, &unit{fset: pass.Fset, info: pass.TypesInfo, check: c, set: set})
			return nil, nil
		},
	}
}

// flagAnalyzer builds its check lazily from flags, once per distinct set
// of options, so every package of a run shares one registry.
type flagAnalyzer struct {
	opts check.Options

	mu     sync.Mutex
	loaded map[check.Options]*loadedCheck
}

type loadedCheck struct {
	check *check.Check
	set   *pattern.Set
	err   error
}

func newFlagAnalyzer() *analysis.Analyzer {
	fa := &flagAnalyzer{loaded: make(map[check.Options]*loadedCheck)}
	a := &analysis.Analyzer{
		Name:     "upgradecheck",
		Doc:      analyzerDoc,
		Requires: []*analysis.Analyzer{inspect.Analyzer},
		Run:      fa.run,
	}
	a.Flags.StringVar(&fa.opts.ChangeFile, check.OptionChangeFile, "", "path or URL of the change file (required)")
	a.Flags.StringVar(&fa.opts.Strategy, check.OptionStrategy, "", "pattern strategy: leaf or structural")
	a.Flags.StringVar(&fa.opts.OldVersion, check.OptionOldVersion, "", "library version being upgraded from")
	a.Flags.StringVar(&fa.opts.NewVersion, check.OptionNewVersion, "", "library version being upgraded to")
	return a
}

func (fa *flagAnalyzer) load() *loadedCheck {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	if l, ok := fa.loaded[fa.opts]; ok {
		return l
	}
	c, err := check.New(context.Background(), fa.opts)
	l := &loadedCheck{check: c, err: err}
	if err == nil {
		l.set = compilePatterns(c)
	}
	fa.loaded[fa.opts] = l
	return l
}

func (fa *flagAnalyzer) run(pass *analysis.Pass) (any, error) {
	l := fa.load()
	if l.err != nil {
		return nil, fmt.Errorf("upgradecheck: %w", l.err)
	}
	runPass(pass, &unit{fset: pass.Fset, info: pass.TypesInfo, check: l.check, set: l.set})
	return nil, nil
}

func runPass(pass *analysis.Pass, u *unit) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	u.run(insp, func(sel *ast.SelectorExpr, d check.Diagnostic) {
		pass.Report(toAnalysisDiagnostic(pass, sel, d))
	})
}

func toAnalysisDiagnostic(pass *analysis.Pass, sel *ast.SelectorExpr, d check.Diagnostic) analysis.Diagnostic {
	anchor := sel.X.Pos()
	diag := analysis.Diagnostic{
		Pos:      tokenPos(pass.Fset, anchor, d.Location),
		End:      sel.End(),
		Category: d.Check,
		Message:  d.Message,
	}
	if !diag.Pos.IsValid() {
		diag.Pos = anchor
	}
	if d.Fix != nil {
		diag.SuggestedFixes = []analysis.SuggestedFix{{
			Message: fmt.Sprintf("Replace with %q", d.Fix.Text),
			TextEdits: []analysis.TextEdit{{
				Pos:     sel.Pos(),
				End:     sel.End(),
				NewText: []byte(d.Fix.Text),
			}},
		}}
	}
	return diag
}
