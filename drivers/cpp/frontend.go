// Package cpp hosts the upgrade check for C++ sources. Files are parsed with
// tree-sitter; member accesses are found with a query compiled from the
// registered patterns and typed against the classes the scanned files
// define.
package cpp

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"golang.org/x/sync/errgroup"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/core/driver"
	"github.com/emenda-labs/upgradecheck/core/pattern"
)

var _ driver.Frontend = (*Frontend)(nil)

// sourceExts are the extensions picked up when a target is a directory.
var sourceExts = map[string]bool{
	".cc": true, ".cpp": true, ".cxx": true, ".c++": true,
	".h": true, ".hh": true, ".hpp": true, ".hxx": true,
}

// Frontend runs the check over C++ files.
type Frontend struct {
	jobs   int
	logger *slog.Logger
}

// Option configures a Frontend.
type Option func(*Frontend)

// WithJobs bounds the number of files processed concurrently.
func WithJobs(jobs int) Option {
	return func(f *Frontend) { f.jobs = jobs }
}

// WithLogger sets the logger for parse warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Frontend) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFrontend(opts ...Option) *Frontend {
	f := &Frontend{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Frontend) Language() string { return "cpp" }

// parsedFile is one translation unit after the first pass.
type parsedFile struct {
	path string
	src  []byte
	tree *sitter.Tree
	decl *collector
}

// Scan parses every target, indexes the classes they define, then matches
// member accesses file by file. Targets are files or directories relative
// to dir; no targets means all of dir.
func (f *Frontend) Scan(ctx context.Context, c *check.Check, dir string, targets []string) ([]check.Diagnostic, error) {
	set := &pattern.Set{}
	c.RegisterPatterns(set)

	query, skipped, err := compileQuery(set)
	if err != nil {
		return nil, err
	}
	for _, leaf := range skipped {
		f.logger.Debug("pattern cannot name a C++ member, ignored", slog.String("leaf", leaf))
	}
	if query == nil {
		return nil, nil
	}
	defer query.Close()

	paths, err := expandTargets(dir, targets)
	if err != nil {
		return nil, err
	}

	files := make([]*parsedFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.limit(len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			pf, err := f.parse(gctx, path)
			if err != nil {
				return err
			}
			files[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	defer func() {
		for _, pf := range files {
			pf.tree.Close()
		}
	}()

	ix := newIndex()
	for _, pf := range files {
		for _, cls := range pf.decl.classes {
			ix.add(cls)
		}
	}
	f.logger.Debug("indexed classes", slog.Int("files", len(files)), slog.Int("classes", len(ix.classes)))

	results := make([][]check.Diagnostic, len(files))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(f.limit(len(files)))
	for i, pf := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scanFile(pf, ix, query, set, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return check.MergeDiagnostics(results), nil
}

func (f *Frontend) limit(n int) int {
	jobs := f.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, n))
}

func (f *Frontend) parse(ctx context.Context, path string) (*parsedFile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		f.logger.Warn("file has syntax errors, results may be incomplete", slog.String("file", path))
	}
	return &parsedFile{path: path, src: src, tree: tree, decl: collect(root, src)}, nil
}

// scanFile matches the accesses of one file. The index, query and pattern
// set are shared read-only; each call owns its cursor.
func scanFile(pf *parsedFile, ix *index, q *sitter.Query, set *pattern.Set, c *check.Check) []check.Diagnostic {
	r := &resolver{ix: ix, src: pf.src, usings: pf.decl.usings}

	var out []check.Diagnostic
	for _, access := range accesses(q, pf.tree.RootNode(), pf.src) {
		field := access.ChildByFieldName("field")
		if field == nil || !set.HasLeaf(field.Content(pf.src)) {
			continue
		}
		segs := r.memberOwner(access)
		if len(segs) == 0 {
			continue
		}
		p, ok := set.Accepting(newScopeDecl(segs))
		if !ok {
			continue
		}
		m := pf.match(access, field, segs)
		m.Key = p.Name
		if d, ok := c.Run(m); ok {
			out = append(out, d)
		}
	}
	return out
}

func (pf *parsedFile) match(access, field *sitter.Node, segs []string) check.Match {
	m := check.Match{
		BaseLocation: pf.location(access.StartByte(), access.StartPoint()),
		Name:         changespec.NewQualifiedName(changespec.ScopeSeparator, segs...),
		Range: check.Range{
			Start: pf.location(access.StartByte(), access.StartPoint()),
			End:   pf.location(access.EndByte(), access.EndPoint()),
		},
	}
	if arg := access.ChildByFieldName("argument"); arg != nil {
		m.BaseLocation = pf.location(arg.StartByte(), arg.StartPoint())
	}
	if !field.IsMissing() {
		m.Location = pf.location(field.StartByte(), field.StartPoint())
	}
	return m
}

func (pf *parsedFile) location(offset uint32, p sitter.Point) check.Location {
	return check.Location{
		Filename: pf.path,
		Offset:   int(offset),
		Line:     int(p.Row) + 1,
		Column:   int(p.Column) + 1,
	}
}

// expandTargets resolves targets against dir and replaces directories with
// the C++ sources beneath them.
func expandTargets(dir string, targets []string) ([]string, error) {
	if len(targets) == 0 {
		targets = []string{"."}
	}
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, t := range targets {
		p := t
		if !filepath.IsAbs(p) && dir != "" {
			p = filepath.Join(dir, p)
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", t, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}
			if sourceExts[strings.ToLower(filepath.Ext(path))] {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	return paths, nil
}

// scopeDecl presents a qualified name as a pattern.Decl chain.
type scopeDecl struct {
	segs []string
}

func newScopeDecl(segs []string) pattern.Decl {
	return scopeDecl{segs: segs}
}

func (d scopeDecl) Name() string { return d.segs[len(d.segs)-1] }

func (d scopeDecl) Parent() (pattern.Decl, bool) {
	if len(d.segs) <= 1 {
		return nil, false
	}
	return scopeDecl{segs: d.segs[:len(d.segs)-1]}, true
}
