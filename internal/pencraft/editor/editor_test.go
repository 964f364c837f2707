package editor

import (
	"strings"
	"testing"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeCodecsCoverAllTypes(t *testing.T) {
	for _, nt := range edtypes.AllNodeTypes() {
		c, ok := nodeCodecs[nt]
		if assert.True(t, ok, "no codec for %s", nt) {
			assert.NotNil(t, c.render, "no render for %s", nt)
		}
	}
	for _, mt := range []edtypes.MarkType{edtypes.BoldMark, edtypes.ItalicMark, edtypes.CodeMark, edtypes.LinkMark} {
		_, ok := markCodecs[mt]
		assert.True(t, ok, "no codec for mark %s", mt)
	}
}

func TestParseCodeBlockLanguage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"python", `<pre><code class="language-python">x</code></pre>`, "python"},
		{"no class", `<pre><code>x</code></pre>`, "plain"},
		{"no child element", `<pre>x</pre>`, "plain"},
		{"several classes", `<pre><code class="hljs language-rust extra">x</code></pre>`, "rust"},
		{"first prefixed wins", `<pre><code class="language-go language-sql">x</code></pre>`, "go"},
		{"empty after prefix", `<pre><code class="language-">x</code></pre>`, "plain"},
		{"class on pre is ignored", `<pre class="language-go"><code>x</code></pre>`, "plain"},
		{"unknown language kept", `<pre><code class="language-haskell">x</code></pre>`, "haskell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(tt.html)
			require.NoError(t, err)
			require.Len(t, doc.Content, 1)

			block := doc.Content[0]
			assert.Equal(t, edtypes.CodeBlockNode, block.Type)
			if block.Attrs.Language != tt.want {
				t.Errorf("Language = %q, want %q", block.Attrs.Language, tt.want)
			}
		})
	}
}

func TestCodeBlockLanguageRoundTrip(t *testing.T) {
	text := "func main() {\n\tfmt.Println(\"a < b && c\")\n}\n"
	for _, lang := range Languages {
		t.Run(lang.ID, func(t *testing.T) {
			doc := edtypes.NewDocument(edtypes.CodeBlock(lang.ID, text))
			out := RenderDocument(doc)
			assert.Contains(t, out, `<code class="language-`+lang.ID+`">`)

			parsed, err := ParseString(out)
			require.NoError(t, err)
			require.Len(t, parsed.Content, 1)
			assert.Equal(t, lang.ID, parsed.Content[0].Attrs.Language)
			assert.Equal(t, text, parsed.Content[0].TextContent())
		})
	}
}

func TestRenderCodeBlock(t *testing.T) {
	t.Run("no class without language", func(t *testing.T) {
		out := RenderDocument(edtypes.NewDocument(edtypes.CodeBlock("", "a")))
		assert.Equal(t, "<pre><code>a</code></pre>", out)
	})

	t.Run("html attributes on pre", func(t *testing.T) {
		s := NewSchema(CodeBlockOptions{HTMLAttributes: map[string]string{"spellcheck": "false"}})
		out := s.RenderHTML(edtypes.NewDocument(edtypes.CodeBlock("go", "x")))
		assert.Equal(t, `<pre spellcheck="false"><code class="language-go">x</code></pre>`, out)
	})

	t.Run("custom prefix", func(t *testing.T) {
		s := NewSchema(CodeBlockOptions{LanguageClassPrefix: "lang-"})
		out := s.RenderHTML(edtypes.NewDocument(edtypes.CodeBlock("sql", "select 1")))
		assert.Equal(t, `<pre><code class="lang-sql">select 1</code></pre>`, out)

		doc, err := s.ParseHTML(strings.NewReader(`<pre><code class="language-go lang-sql">x</code></pre>`))
		require.NoError(t, err)
		assert.Equal(t, "sql", doc.Content[0].Attrs.Language)
	})

	t.Run("marks dropped inside code", func(t *testing.T) {
		doc, err := ParseString(`<pre><code class="language-go"><strong>x</strong> := 1</code></pre>`)
		require.NoError(t, err)
		block := doc.Content[0]
		require.Len(t, block.Content, 1)
		assert.Equal(t, "x := 1", block.Content[0].Text)
		assert.Empty(t, block.Content[0].Marks)
	})
}

func TestDocumentRoundTrip(t *testing.T) {
	in := `<h2>Title</h2><p>Hello <strong>bold</strong> <a href="https://x">link</a></p>` +
		`<ul><li><p>one</p></li></ul><ol start="3"><li><p>two</p></li></ol>` +
		`<blockquote><p>q</p></blockquote><p><img src="https://i/a.png" alt="pic">after<br>line</p>`
	want := `<h2>Title</h2><p>Hello <strong>bold</strong> <a href="https://x" target="_blank" rel="noopener noreferrer nofollow">link</a></p>` +
		`<ul><li><p>one</p></li></ul><ol start="3"><li><p>two</p></li></ol>` +
		`<blockquote><p>q</p></blockquote><p><img src="https://i/a.png" alt="pic">after<br>line</p>`

	doc, err := ParseString(in)
	require.NoError(t, err)
	out := RenderDocument(doc)
	assert.Equal(t, want, out)

	again, err := ParseString(out)
	require.NoError(t, err)
	assert.True(t, doc.Equal(again))
}

func TestParseEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "<p></p>"},
		{"bare text", "hello", "<p>hello</p>"},
		{"nested marks", "<p><b><i>x</i></b></p>", "<p><strong><em>x</em></strong></p>"},
		{"div flattened", "<div><p>a</p><p>b</p></div>", "<p>a</p><p>b</p>"},
		{"empty list dropped", "<ul></ul><p>a</p>", "<p>a</p>"},
		{"image without src dropped", "<p><img>x</p>", "<p>x</p>"},
		{"link without href", `<p><a>x</a></p>`, "<p>x</p>"},
		{"empty list item", "<ul><li></li></ul>", "<ul><li><p></p></li></ul>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(tt.in)
			require.NoError(t, err)
			if got := RenderDocument(doc); got != tt.want {
				t.Errorf("RenderDocument() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSupportedLanguage(t *testing.T) {
	assert.True(t, IsSupportedLanguage("go"))
	assert.True(t, IsSupportedLanguage("plain"))
	assert.False(t, IsSupportedLanguage("haskell"))
	assert.Len(t, Languages, 6)
}
