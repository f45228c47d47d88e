package changespec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChangeKind(t *testing.T) {
	tests := []struct {
		token string
		want  ChangeKind
	}{
		{"Removed_Field", ChangeKindField},
		{"Renamed_Field", ChangeKindField},
		{"Moved_Field", ChangeKindField},
		{"Method", ChangeKindMethod},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseChangeKind(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChangeKind_Unknown(t *testing.T) {
	for _, token := range []string{"", "Field", "method", "Removed_Method", " Method"} {
		_, err := ParseChangeKind(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		in       string
		segments []string
		str      string
	}{
		{"clang::CFGBlock::getTerminator", []string{"clang", "CFGBlock", "getTerminator"}, "clang::CFGBlock::getTerminator"},
		{"::N::C::m", []string{"N", "C", "m"}, "N::C::m"},
		{"lib.Config.Host", []string{"lib", "Config", "Host"}, "lib.Config.Host"},
		{"github.com/acme/lib.Config.Host", []string{"github.com/acme/lib", "Config", "Host"}, "github.com/acme/lib.Config.Host"},
		{"github.com/acme/lib.DoWork", []string{"github.com/acme/lib", "DoWork"}, "github.com/acme/lib.DoWork"},
		{"gopkg.in/yaml.v3::Node::Kind", []string{"gopkg.in/yaml.v3", "Node", "Kind"}, "gopkg.in/yaml.v3::Node::Kind"},
		{"leaf", []string{"leaf"}, "leaf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q := ParseQualifiedName(tt.in)
			assert.Equal(t, tt.segments, q.Segments())
			assert.Equal(t, tt.str, q.String())
			assert.Equal(t, tt.segments[len(tt.segments)-1], q.Leaf())
		})
	}
}

func TestQualifiedName_KeyIgnoresSeparator(t *testing.T) {
	a := ParseQualifiedName("lib::Config::Host")
	b := NewQualifiedName(GoScopeSeparator, "lib", "Config", "Host")

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))
	assert.NotEqual(t, a.String(), b.String())
}

func TestQualifiedName_Zero(t *testing.T) {
	q := ParseQualifiedName("  ")
	assert.True(t, q.IsZero())
	assert.Equal(t, "", q.Leaf())
	assert.Equal(t, "", q.Key())
}

func TestChange_JSON(t *testing.T) {
	c := Change{
		Kind:    ChangeKindField,
		Token:   TokenRemovedField,
		Name:    ParseQualifiedName("N::C::oldField"),
		FixText: "newField",
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"field","token":"Removed_Field","name":"N::C::oldField","fix_text":"newField"}`, string(data))

	var back Change
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Name.Equal(c.Name))
	assert.True(t, back.HasFix())
}
