package astdiff

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/emenda-labs/upgradecheck/drivers/golang/symbols"
)

// ParseExports walks the Go module source at rootDir and collects the
// exported fields and methods of exported named types. The module parameter
// is the module import path (e.g. "github.com/acme/foo").
func ParseExports(ctx context.Context, rootDir, module string) (symbols.Symbols, error) {
	sourceRoot, err := FindSourceRoot(rootDir)
	if err != nil {
		return symbols.Symbols{}, fmt.Errorf("finding source root in %s: %w", rootDir, err)
	}

	fset := token.NewFileSet()
	var entries []symbols.Symbol

	walkErr := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Skip symlinks to prevent symlink-based path escapes.
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			base := d.Name()
			if path != sourceRoot && (base == "internal" || base == "testdata" || base == "vendor" || strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".")) {
				return fs.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, parseErr := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if parseErr != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: %v\n", path, parseErr)
			return nil
		}
		if file.Name.Name == "main" {
			return nil
		}

		pkgPath := computePackagePath(sourceRoot, path, module)
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				entries = appendMethod(entries, d, pkgPath)
			case *ast.GenDecl:
				if d.Tok == token.TYPE {
					entries = appendTypeMembers(entries, d, pkgPath)
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		return symbols.Symbols{}, fmt.Errorf("walking source at %s: %w", sourceRoot, walkErr)
	}

	return symbols.Symbols{Module: module, Entries: entries}, nil
}

// appendMethod records an exported method declared on an exported type.
func appendMethod(entries []symbols.Symbol, fn *ast.FuncDecl, pkgPath string) []symbols.Symbol {
	if fn.Recv == nil || fn.Name == nil || !fn.Name.IsExported() {
		return entries
	}
	owner := receiverTypeName(fn.Recv)
	if owner == "" || !ast.IsExported(owner) {
		return entries
	}
	return append(entries, symbols.Symbol{
		Kind:      symbols.SymbolMethod,
		Name:      fn.Name.Name,
		Package:   pkgPath,
		Owner:     owner,
		Signature: funcSignature(fn.Type),
	})
}

// appendTypeMembers records the exported fields of exported struct types and
// the exported methods of exported interface types.
func appendTypeMembers(entries []symbols.Symbol, gen *ast.GenDecl, pkgPath string) []symbols.Symbol {
	for _, spec := range gen.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok || !ts.Name.IsExported() || ts.Assign.IsValid() {
			continue
		}
		owner := ts.Name.Name

		switch t := ts.Type.(type) {
		case *ast.StructType:
			if t.Fields == nil {
				continue
			}
			for _, field := range t.Fields.List {
				typ := typeString(field.Type)
				if len(field.Names) == 0 {
					// Embedded field: the field name is the type name.
					if name := baseTypeName(field.Type); name != "" && ast.IsExported(name) {
						entries = append(entries, fieldSymbol(pkgPath, owner, name, typ))
					}
					continue
				}
				for _, name := range field.Names {
					if name.IsExported() {
						entries = append(entries, fieldSymbol(pkgPath, owner, name.Name, typ))
					}
				}
			}

		case *ast.InterfaceType:
			if t.Methods == nil {
				continue
			}
			for _, m := range t.Methods.List {
				ft, ok := m.Type.(*ast.FuncType)
				if !ok || len(m.Names) == 0 || !m.Names[0].IsExported() {
					continue
				}
				entries = append(entries, symbols.Symbol{
					Kind:      symbols.SymbolMethod,
					Name:      m.Names[0].Name,
					Package:   pkgPath,
					Owner:     owner,
					Signature: funcSignature(ft),
				})
			}
		}
	}
	return entries
}

func fieldSymbol(pkgPath, owner, name, typ string) symbols.Symbol {
	return symbols.Symbol{
		Kind:      symbols.SymbolField,
		Name:      name,
		Package:   pkgPath,
		Owner:     owner,
		Signature: typ,
	}
}

// computePackagePath derives the full Go import path for the package
// containing the file at filePath, relative to the module source root.
func computePackagePath(sourceRoot, filePath, module string) string {
	dir := filepath.Dir(filePath)
	relDir, err := filepath.Rel(sourceRoot, dir)
	if err != nil || relDir == "." || relDir == "" {
		return module
	}
	return module + "/" + filepath.ToSlash(relDir)
}

// baseTypeName strips pointers, type arguments and package selectors:
// *Client -> "Client", Foo[T] -> "Foo", *pkg.Bar[T, U] -> "Bar".
func baseTypeName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch e := expr.(type) {
	case *ast.IndexExpr:
		expr = e.X
	case *ast.IndexListExpr:
		expr = e.X
	}
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	}
	return ""
}

func receiverTypeName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	return baseTypeName(recv.List[0].Type)
}

// FindSourceRoot walks from dir looking for go.mod to find the module source root.
// The Go proxy zip extracts to tmpDir/module@version/, so go.mod may be nested.
func FindSourceRoot(dir string) (string, error) {
	if hasGoMod(dir) {
		return dir, nil
	}

	// Walk at most 2 levels deep looking for go.mod.
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		if strings.Count(filepath.ToSlash(rel), "/") > 2 {
			return fs.SkipDir
		}
		if hasGoMod(path) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching for go.mod: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("no go.mod found under %s", dir)
	}
	return found, nil
}

func hasGoMod(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil && !info.IsDir()
}
