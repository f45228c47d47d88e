// Package report renders diagnostics for humans and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/emenda-labs/upgradecheck/core/check"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want %s or %s)", s, FormatText, FormatJSON)
	}
}

var (
	locationColor = color.New(color.Bold)
	warningColor  = color.New(color.FgYellow, color.Bold)
	checkColor    = color.New(color.Faint)
	fixColor      = color.New(color.FgGreen)
)

// Output is the JSON document written by FormatJSON.
type Output struct {
	Options     map[string]string  `json:"options,omitempty"`
	Diagnostics []check.Diagnostic `json:"diagnostics"`
	Count       int                `json:"count"`
	Fixable     int                `json:"fixable"`
}

// Write renders diagnostics to w. options are the check's effective
// options, echoed in JSON output.
func Write(w io.Writer, format Format, diagnostics []check.Diagnostic, options map[string]string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, diagnostics, options)
	default:
		return writeText(w, diagnostics)
	}
}

func writeJSON(w io.Writer, diagnostics []check.Diagnostic, options map[string]string) error {
	out := Output{Options: options, Diagnostics: diagnostics, Count: len(diagnostics)}
	if out.Diagnostics == nil {
		out.Diagnostics = []check.Diagnostic{}
	}
	for _, d := range diagnostics {
		if d.Fix != nil {
			out.Fixable++
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeText prints one line per diagnostic:
//
//	file:line:col: warning: message [check]
//	    fix: replace with "text"
func writeText(w io.Writer, diagnostics []check.Diagnostic) error {
	fixable := 0
	for _, d := range diagnostics {
		loc := d.Location
		if !loc.IsValid() {
			loc = d.Range.Start
		}
		if _, err := fmt.Fprintf(w, "%s: %s %s %s\n",
			locationColor.Sprint(loc.String()),
			warningColor.Sprint("warning:"),
			d.Message,
			checkColor.Sprintf("[%s]", d.Check)); err != nil {
			return err
		}
		if d.Fix != nil {
			fixable++
			if _, err := fmt.Fprintf(w, "    %s\n", fixColor.Sprintf("fix: replace with %q", d.Fix.Text)); err != nil {
				return err
			}
		}
	}
	if len(diagnostics) == 0 {
		_, err := fmt.Fprintln(w, "no references to changed members found")
		return err
	}
	_, err := fmt.Fprintf(w, "%d %s (%d fixable)\n", len(diagnostics), plural(len(diagnostics), "diagnostic"), fixable)
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
