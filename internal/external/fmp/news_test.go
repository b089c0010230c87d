package fmp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "Acme announced topline results this morning.",
			want: "Acme announced topline results this morning.",
		},
		{
			name: "strips markup",
			in:   "<p>Acme <b>announced</b> topline results.</p>",
			want: "Acme announced topline results.",
		},
		{
			name: "decodes entities",
			in:   "Revenue rose 40% &amp; guidance was raised",
			want: "Revenue rose 40% & guidance was raised",
		},
		{
			name: "collapses whitespace",
			in:   "Acme   announced\n\n  results",
			want: "Acme announced results",
		},
		{
			name: "empty stays empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSnippet(tt.in))
		})
	}
}

func TestSanitizeSnippet_CapsLength(t *testing.T) {
	long := strings.Repeat("a", 2*maxSnippetLen)
	got := sanitizeSnippet(long)
	assert.Len(t, got, maxSnippetLen)
}
