package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestERBToRuby(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "output tag",
			src:  "<p><%= foo %></p>",
			want: "      " + " foo " + "; " + "    ",
		},
		{
			name: "trim markers",
			src:  "<%- if a -%>",
			want: "   " + " if a " + " ; ",
		},
		{
			name: "comment tag",
			src:  "<%# foo %>x",
			want: strings.Repeat(" ", 11),
		},
		{
			name: "literal tag",
			src:  "<%% foo %>",
			want: strings.Repeat(" ", 10),
		},
		{
			name: "newlines kept",
			src:  "<ul>\n<% items.each do |i| %>\n  <li><%= i %></li>\n<% end %>\n",
			want: "    \n" +
				"  " + " items.each do |i| " + "; " + "\n" +
				"      " + "   " + " i " + "; " + "     " + "\n" +
				"  " + " end " + "; " + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ERBToRuby([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Len(t, got, len(tt.src))
		})
	}
}

func TestERBToRubyUnterminated(t *testing.T) {
	_, err := ERBToRuby([]byte("<p>\n  <%= foo </p>"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, 2, pe.Column)
}
