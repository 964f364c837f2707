package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		contains []string
		absent   []string
	}{
		{
			name:     "code block language kept",
			in:       `<pre><code class="language-go">x := 1</code></pre>`,
			contains: []string{`<code class="language-go">`},
		},
		{
			name:   "foreign class dropped",
			in:     `<pre><code class="evil">x</code></pre>`,
			absent: []string{"evil"},
		},
		{
			name:     "script removed",
			in:       `<p>hi</p><script>alert(1)</script>`,
			contains: []string{"<p>hi</p>"},
			absent:   []string{"script", "alert"},
		},
		{
			name:     "ordered list start",
			in:       `<ol start="3"><li><p>a</p></li></ol>`,
			contains: []string{`start="3"`},
		},
		{
			name:     "relative image",
			in:       `<p><img src="/uploads/images/a.png" alt="a"></p>`,
			contains: []string{`src="/uploads/images/a.png"`},
		},
		{
			name:     "external link",
			in:       `<p><a href="https://example.com">x</a></p>`,
			contains: []string{`href="https://example.com"`, "nofollow", `target="_blank"`},
		},
		{
			name:   "javascript link",
			in:     `<p><a href="javascript:alert(1)">x</a></p>`,
			absent: []string{"javascript"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Sanitize(tt.in)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Title body", PlainText("<h1>Title</h1> <p>body</p>"))
	assert.Equal(t, "", Sanitize(""))
}
