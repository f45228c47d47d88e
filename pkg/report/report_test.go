package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/core/check"
)

func init() {
	color.NoColor = true
}

func sample() []check.Diagnostic {
	loc := check.Location{Filename: "main.cpp", Offset: 40, Line: 4, Column: 10}
	return []check.Diagnostic{
		{
			Check:    check.Name,
			Location: loc,
			Message:  "Reference to member will break: clang::CFGBlock::getTerminator",
			Change: changespec.Change{
				Kind: changespec.ChangeKindMethod,
				Name: changespec.ParseQualifiedName("clang::CFGBlock::getTerminator"),
			},
		},
		{
			Check:    check.Name,
			Location: check.Location{Filename: "main.cpp", Offset: 90, Line: 9, Column: 17},
			Message:  "Reference to member will break: clang::immutability::Values::maybeFields",
			Fix:      &check.Replacement{Text: "someOtherField"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sample(), nil))

	want := "main.cpp:4:10: warning: Reference to member will break: clang::CFGBlock::getTerminator [misc-library-upgrade-suggestion]\n" +
		"main.cpp:9:17: warning: Reference to member will break: clang::immutability::Values::maybeFields [misc-library-upgrade-suggestion]\n" +
		"    fix: replace with \"someOtherField\"\n" +
		"2 diagnostics (1 fixable)\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, nil, nil))
	assert.Equal(t, "no references to changed members found\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	opts := map[string]string{check.OptionChangeFile: "changes.csv"}
	require.NoError(t, Write(&buf, FormatJSON, sample(), opts))

	var out struct {
		Options     map[string]string `json:"options"`
		Count       int               `json:"count"`
		Fixable     int               `json:"fixable"`
		Diagnostics []struct {
			Message  string `json:"message"`
			Location struct {
				File string `json:"file"`
				Line int    `json:"line"`
			} `json:"location"`
			Change struct {
				Name string `json:"name"`
			} `json:"change"`
			Fix *struct {
				Text string `json:"text"`
			} `json:"fix"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, opts, out.Options)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 1, out.Fixable)
	require.Len(t, out.Diagnostics, 2)
	assert.Equal(t, "main.cpp", out.Diagnostics[0].Location.File)
	assert.Equal(t, 4, out.Diagnostics[0].Location.Line)
	assert.Equal(t, "clang::CFGBlock::getTerminator", out.Diagnostics[0].Change.Name)
	assert.Nil(t, out.Diagnostics[0].Fix)
	require.NotNil(t, out.Diagnostics[1].Fix)
	assert.Equal(t, "someOtherField", out.Diagnostics[1].Fix.Text)
}

func TestWriteJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, nil, nil))
	assert.Contains(t, buf.String(), `"diagnostics": []`)
}
