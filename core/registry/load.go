package registry

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/viant/afs"

	"github.com/emenda-labs/upgradecheck/core/changespec"
)

const (
	columnCount   = 3
	maxLineLength = 1024 * 1024
)

// Load reads a change file: one record per line, exactly three
// comma-separated columns (kind, qualified name, fix text) with no quoting.
// Blank lines are skipped. Any malformed row fails the whole load.
//
// Every column is trimmed of surrounding whitespace, fix text included, so
// "Method, a::b, x" and "Method,a::b,x" load the same record. A fix text
// cannot begin or end with whitespace.
func Load(r io.Reader) (*Registry, error) {
	return load(r, "")
}

// LoadFile loads the change file at path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Kind: Unreadable, Path: path, Err: err}
	}
	defer f.Close()

	return load(f, path)
}

// LoadURL loads a change file from a local path or any URL afs can
// download (file://, mem://, http(s)://, s3://, gs://).
func LoadURL(ctx context.Context, location string) (*Registry, error) {
	if !strings.Contains(location, "://") {
		return LoadFile(location)
	}

	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return nil, &LoadError{Kind: Unreadable, Path: location, Err: err}
	}
	return load(bytes.NewReader(data), location)
}

func load(r io.Reader, path string) (*Registry, error) {
	reg := New()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		change, err := parseRow(text)
		if err != nil {
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				loadErr.Path = path
				loadErr.Line = line
			}
			return nil, err
		}
		reg.insert(change)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Kind: Unreadable, Path: path, Err: err}
	}

	return reg, nil
}

func parseRow(text string) (changespec.Change, error) {
	fields := strings.Split(text, ",")
	if len(fields) != columnCount {
		return changespec.Change{}, &LoadError{Kind: MalformedRow, Columns: len(fields)}
	}

	token := strings.TrimSpace(fields[0])
	kind, err := changespec.ParseChangeKind(token)
	if err != nil {
		return changespec.Change{}, &LoadError{Kind: UnknownKind, Token: token, Err: err}
	}

	name := changespec.ParseQualifiedName(fields[1])
	if name.IsZero() {
		return changespec.Change{}, &LoadError{
			Kind:    MalformedRow,
			Columns: len(fields),
			Err:     fmt.Errorf("empty qualified name"),
		}
	}

	return changespec.Change{
		Kind:    kind,
		Token:   token,
		Name:    name,
		FixText: strings.TrimSpace(fields[2]),
	}, nil
}

// Write renders changes as change file rows, the inverse of Load. A column
// holding a comma or a line break has no unquoted rendering and fails the
// write before anything is written.
func Write(w io.Writer, changes []changespec.Change) error {
	rows := make([][columnCount]string, 0, len(changes))
	for _, c := range changes {
		token := c.Token
		if token == "" {
			token = defaultToken(c.Kind)
		}
		row := [columnCount]string{token, c.Name.String(), c.FixText}
		for _, field := range row {
			if strings.ContainsAny(field, ",\r\n") {
				return fmt.Errorf("writing change %s: %w: %q", c.Name, ErrUnencodable, field)
			}
		}
		rows = append(rows, row)
	}

	bw := bufio.NewWriter(w)
	for _, row := range rows {
		if _, err := fmt.Fprintf(bw, "%s,%s,%s\n", row[0], row[1], row[2]); err != nil {
			return fmt.Errorf("writing change %s: %w", row[1], err)
		}
	}
	return bw.Flush()
}

func defaultToken(kind changespec.ChangeKind) string {
	if kind == changespec.ChangeKindMethod {
		return changespec.TokenMethod
	}
	return changespec.TokenRemovedField
}
