package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	r := New()

	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:     "emphasis and strikethrough",
			input:    "**urgent** and ~~old~~",
			contains: []string{"<strong>urgent</strong>", "<del>old</del>"},
		},
		{
			name:        "script is removed",
			input:       "hi <script>alert(1)</script>",
			notContains: []string{"<script", "alert(1)</script>"},
		},
		{
			name:        "inline event handler is removed",
			input:       `<img src="x" onerror="alert(1)">`,
			notContains: []string{"onerror"},
		},
		{
			name:     "bare links are linkified",
			input:    "see https://example.com/claims",
			contains: []string{`href="https://example.com/claims"`, `rel="nofollow noopener"`, `target="_blank"`},
		},
		{
			name:        "javascript links are dropped",
			input:       "[click](javascript:alert(1))",
			notContains: []string{"javascript:"},
		},
		{
			name:     "line breaks are kept",
			input:    "line one\nline two",
			contains: []string{"<br"},
		},
		{
			name:     "code spans",
			input:    "policy `A-12`",
			contains: []string{"<code>A-12</code>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Render(tt.input)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out, s)
			}
		})
	}

	t.Run("blank input", func(t *testing.T) {
		assert.Empty(t, r.Render("  \n"))
	})
}
