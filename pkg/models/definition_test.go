package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamoh/leftovers/pkg/ast"
)

func TestDefinitionSet(t *testing.T) {
	loc := ast.Location{Path: "app/foo.rb", Line: 2, Column: 16, EndLine: 2, EndColumn: 20, SourceLine: "  attr_accessor :foo"}
	set := DefinitionSet{Definitions: []Definition{
		{Name: "foo", Location: loc, Test: true},
		{Name: "foo=", Location: loc, Test: true},
	}}

	assert.Equal(t, []string{"foo", "foo="}, set.Names())
	assert.Equal(t, "foo", set.Name())
	assert.Equal(t, "foo, foo=", set.String())
	assert.Equal(t, "app/foo.rb:2:17", set.Location().String())
	assert.True(t, set.Test())
}

func TestEmptyDefinitionSet(t *testing.T) {
	var set DefinitionSet

	assert.Empty(t, set.Name())
	assert.True(t, set.Location().IsZero())
	assert.False(t, set.Test())
}

func TestVerdictBetter(t *testing.T) {
	assert.True(t, VerdictUsed.Better(VerdictUsedOnlyInTests))
	assert.True(t, VerdictUsedOnlyInTests.Better(VerdictNeverUsed))
	assert.False(t, VerdictNeverUsed.Better(VerdictUsed))
	assert.False(t, VerdictUsed.Better(VerdictUsed))
}

func TestFileResultJSON(t *testing.T) {
	res := FileResult{
		Path:  "app/foo.rb",
		Calls: []string{"attr_reader"},
		Definitions: []DefinitionSet{{Definitions: []Definition{
			{Name: "foo", Location: ast.Location{Path: "app/foo.rb", Line: 1, Column: 12, SourceLine: "attr_reader :foo"}},
		}}},
	}

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var got FileResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, res, got)
	assert.Equal(t, "attr_reader :foo", got.Definitions[0].Location().Context())
}
