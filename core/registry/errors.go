package registry

import (
	"errors"
	"fmt"
)

// ErrorKind tags the reason a change file failed to load.
type ErrorKind int

const (
	Unreadable ErrorKind = iota + 1
	MalformedRow
	UnknownKind
)

func (k ErrorKind) String() string {
	switch k {
	case Unreadable:
		return "unreadable"
	case MalformedRow:
		return "malformed row"
	case UnknownKind:
		return "unknown kind"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	ErrUnreadable   = errors.New("change file unreadable")
	ErrMalformedRow = errors.New("malformed change row")
	ErrUnknownKind  = errors.New("unknown change kind")

	// ErrUnencodable is returned by Write for a column Load could not read back.
	ErrUnencodable = errors.New("column contains a comma or line break")
)

// LoadError reports a fatal change file failure. Loading is all-or-nothing:
// a LoadError means no registry was produced.
type LoadError struct {
	Kind    ErrorKind
	Path    string
	Line    int    // 1-based, MalformedRow and UnknownKind only
	Columns int    // MalformedRow only
	Token   string // UnknownKind only
	Err     error
}

func (e *LoadError) Error() string {
	where := e.Path
	if where == "" {
		where = "change file"
	}
	switch e.Kind {
	case Unreadable:
		return fmt.Sprintf("reading %s: %v", where, e.Err)
	case MalformedRow:
		if e.Err != nil {
			return fmt.Sprintf("%s:%d: %v", where, e.Line, e.Err)
		}
		return fmt.Sprintf("%s:%d: expected 3 columns, got %d", where, e.Line, e.Columns)
	case UnknownKind:
		return fmt.Sprintf("%s:%d: unknown change kind %q", where, e.Line, e.Token)
	default:
		return fmt.Sprintf("%s: %v", where, e.Err)
	}
}

func (e *LoadError) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case Unreadable:
		sentinel = ErrUnreadable
	case MalformedRow:
		sentinel = ErrMalformedRow
	case UnknownKind:
		sentinel = ErrUnknownKind
	}
	errs := make([]error, 0, 2)
	if sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
