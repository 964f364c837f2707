package shell

import (
	"testing"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEditor(t *testing.T, content string, opts ...func(*Options)) *Editor {
	t.Helper()
	o := Options{Content: content}
	for _, f := range opts {
		f(&o)
	}
	e, err := New(o)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func sel(from, to int, path ...int) Selection {
	return Selection{Path: path, From: from, To: to}
}

func TestToggleCodeBlockSymmetric(t *testing.T) {
	e := newTestEditor(t, "<p>hello</p>")

	require.NoError(t, e.ToggleCodeBlock(""))
	assert.Equal(t, `<pre><code class="language-plain">hello</code></pre>`, e.HTML())
	assert.True(t, e.IsActive("codeBlock", map[string]any{"language": "plain"}))

	require.NoError(t, e.ToggleCodeBlock(""))
	assert.Equal(t, "<p>hello</p>", e.HTML())
	assert.False(t, e.IsActive("codeBlock", nil))
}

func TestCodeBlockConversionDropsInlineContent(t *testing.T) {
	e := newTestEditor(t, `<p><strong>a</strong><br>b<img src="x.png">c</p>`)
	require.NoError(t, e.Select(sel(5, 5, 0)))

	require.NoError(t, e.SetCodeBlock("go"))
	assert.Equal(t, "<pre><code class=\"language-go\">a\nbc</code></pre>", e.HTML())
	assert.Equal(t, 4, e.Selection().From)

	require.NoError(t, e.ToggleCodeBlock("go"))
	assert.Equal(t, "<p>a<br>bc</p>", e.HTML())
}

func TestOnChangeOncePerMutation(t *testing.T) {
	var calls []string
	e := newTestEditor(t, "", func(o *Options) {
		o.OnChange = func(html string) { calls = append(calls, html) }
	})

	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, e.InsertText(s))
	}
	assert.Equal(t, []string{"<p>a</p>", "<p>ab</p>", "<p>abc</p>"}, calls)

	require.NoError(t, e.Select(sel(0, 1, 0)))
	require.NoError(t, e.SetContent("<p>other</p>"))
	assert.Len(t, calls, 3)
	assert.Equal(t, "<p>other</p>", e.HTML())
}

func TestInlineMarks(t *testing.T) {
	e := newTestEditor(t, "<p>hello world</p>")
	require.NoError(t, e.Select(sel(0, 5, 0)))

	require.NoError(t, e.ToggleBold())
	assert.Equal(t, "<p><strong>hello</strong> world</p>", e.HTML())
	assert.True(t, e.IsActive("bold", nil))

	require.NoError(t, e.ToggleItalic())
	assert.Equal(t, "<p><strong><em>hello</em></strong> world</p>", e.HTML())

	require.NoError(t, e.ToggleBold())
	require.NoError(t, e.ToggleItalic())
	assert.Equal(t, "<p>hello world</p>", e.HTML())

	t.Run("stored marks", func(t *testing.T) {
		changes := 0
		e := newTestEditor(t, "", func(o *Options) { o.OnChange = func(string) { changes++ } })

		require.NoError(t, e.ToggleCode())
		assert.Equal(t, 0, changes)
		assert.True(t, e.IsActive("code", nil))

		require.NoError(t, e.InsertText("x"))
		require.NoError(t, e.InsertText("y"))
		assert.Equal(t, "<p><code>xy</code></p>", e.HTML())
	})

	t.Run("no marks in code block", func(t *testing.T) {
		e := newTestEditor(t, `<pre><code class="language-go">x</code></pre>`)
		require.NoError(t, e.Select(sel(0, 1, 0)))
		require.NoError(t, e.ToggleBold())
		assert.Equal(t, `<pre><code class="language-go">x</code></pre>`, e.HTML())
	})
}

func TestUndoRedo(t *testing.T) {
	e := newTestEditor(t, "")
	assert.False(t, e.CanUndo())

	require.NoError(t, e.InsertText("a"))
	require.NoError(t, e.InsertText("b"))
	assert.True(t, e.CanUndo())

	assert.True(t, e.Undo())
	assert.Equal(t, "<p>a</p>", e.HTML())
	assert.True(t, e.CanRedo())

	assert.True(t, e.Redo())
	assert.Equal(t, "<p>ab</p>", e.HTML())
	assert.False(t, e.Redo())

	assert.True(t, e.Undo())
	require.NoError(t, e.InsertText("c"))
	assert.False(t, e.CanRedo())
	assert.Equal(t, "<p>ac</p>", e.HTML())
}

func TestBlockCommands(t *testing.T) {
	t.Run("heading", func(t *testing.T) {
		e := newTestEditor(t, "<p>q</p>")
		require.NoError(t, e.ToggleHeading(2))
		assert.Equal(t, "<h2>q</h2>", e.HTML())
		assert.True(t, e.IsActive("heading", map[string]any{"level": 2}))
		assert.False(t, e.IsActive("heading", map[string]any{"level": float64(1)}))

		require.NoError(t, e.ToggleHeading(2))
		assert.Equal(t, "<p>q</p>", e.HTML())
		assert.ErrorIs(t, e.ToggleHeading(7), ErrInvalidHeadingLevel)
	})

	t.Run("lists", func(t *testing.T) {
		e := newTestEditor(t, "<p>one</p>")
		require.NoError(t, e.ToggleBulletList())
		assert.Equal(t, "<ul><li><p>one</p></li></ul>", e.HTML())
		assert.True(t, e.IsActive("bulletList", nil))

		require.NoError(t, e.ToggleOrderedList())
		assert.Equal(t, "<ol><li><p>one</p></li></ol>", e.HTML())
		assert.False(t, e.IsActive("bulletList", nil))

		require.NoError(t, e.ToggleOrderedList())
		assert.Equal(t, "<p>one</p>", e.HTML())
	})

	t.Run("blockquote", func(t *testing.T) {
		e := newTestEditor(t, "<p>q</p>")
		require.NoError(t, e.ToggleBlockquote())
		assert.Equal(t, "<blockquote><p>q</p></blockquote>", e.HTML())
		assert.True(t, e.IsActive("blockquote", nil))

		require.NoError(t, e.ToggleBlockquote())
		assert.Equal(t, "<p>q</p>", e.HTML())
	})
}

func TestSplitBlock(t *testing.T) {
	t.Run("paragraph", func(t *testing.T) {
		e := newTestEditor(t, "<p>ab</p>")
		require.NoError(t, e.Select(sel(1, 1, 0)))
		require.NoError(t, e.SplitBlock())
		assert.Equal(t, "<p>a</p><p>b</p>", e.HTML())
		assert.Equal(t, sel(0, 0, 1), e.Selection())
	})

	t.Run("heading end", func(t *testing.T) {
		e := newTestEditor(t, "<h2>t</h2>")
		require.NoError(t, e.Select(sel(1, 1, 0)))
		require.NoError(t, e.SplitBlock())
		assert.Equal(t, "<h2>t</h2><p></p>", e.HTML())
	})

	t.Run("code block newline", func(t *testing.T) {
		e := newTestEditor(t, `<pre><code class="language-go">ab</code></pre>`)
		require.NoError(t, e.Select(sel(1, 1, 0)))
		require.NoError(t, e.SplitBlock())
		assert.Equal(t, "<pre><code class=\"language-go\">a\nb</code></pre>", e.HTML())
	})

	t.Run("list item then lift", func(t *testing.T) {
		e := newTestEditor(t, "<ul><li><p>a</p></li></ul>")
		require.NoError(t, e.Select(sel(1, 1, 0, 0, 0)))

		require.NoError(t, e.SplitBlock())
		assert.Equal(t, "<ul><li><p>a</p></li><li><p></p></li></ul>", e.HTML())

		require.NoError(t, e.SplitBlock())
		assert.Equal(t, "<ul><li><p>a</p></li></ul><p></p>", e.HTML())

		require.NoError(t, e.InsertText("b"))
		assert.Equal(t, "<ul><li><p>a</p></li></ul><p>b</p>", e.HTML())
	})
}

func TestBackspace(t *testing.T) {
	t.Run("join", func(t *testing.T) {
		e := newTestEditor(t, "<p>a</p><p>b</p>")
		require.NoError(t, e.Select(sel(0, 0, 1)))
		require.NoError(t, e.Backspace())
		assert.Equal(t, "<p>ab</p>", e.HTML())
		assert.Equal(t, sel(1, 1, 0), e.Selection())
	})

	t.Run("delete char", func(t *testing.T) {
		e := newTestEditor(t, "<p>ab</p>")
		require.NoError(t, e.Select(sel(2, 2, 0)))
		require.NoError(t, e.Backspace())
		assert.Equal(t, "<p>a</p>", e.HTML())
	})

	t.Run("heading reset", func(t *testing.T) {
		e := newTestEditor(t, "<h1>a</h1>")
		require.NoError(t, e.Backspace())
		assert.Equal(t, "<p>a</p>", e.HTML())
	})

	t.Run("start of document", func(t *testing.T) {
		e := newTestEditor(t, "<p>a</p>")
		require.NoError(t, e.Backspace())
		assert.Equal(t, "<p>a</p>", e.HTML())
		assert.False(t, e.CanUndo())
	})
}

func TestLinkPrompt(t *testing.T) {
	const linked = `<p><a href="https://x" target="_blank" rel="noopener noreferrer nofollow">hello</a></p>`

	tests := []struct {
		name    string
		content string
		url     string
		ok      bool
		want    string
	}{
		{"cancel keeps document", "<p>hello</p>", "https://x", false, "<p>hello</p>"},
		{"set link", "<p>hello</p>", "https://x", true, linked},
		{"empty removes link", linked, "", true, "<p>hello</p>"},
		{"cancel keeps link", linked, "", false, linked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var current string
			e := newTestEditor(t, tt.content, func(o *Options) {
				o.LinkPrompter = LinkPrompterFunc(func(c string) (string, bool) {
					current = c
					return tt.url, tt.ok
				})
			})
			require.NoError(t, e.Select(sel(0, 5, 0)))
			require.NoError(t, e.AddLink())
			assert.Equal(t, tt.want, e.HTML())
			if tt.content == linked {
				assert.Equal(t, "https://x", current)
			}
		})
	}

	t.Run("collapsed cursor updates whole link", func(t *testing.T) {
		e := newTestEditor(t, `<p>go <a href="https://a">here</a> now</p>`)
		require.NoError(t, e.Select(sel(5, 5, 0)))
		require.NoError(t, e.SetLink("https://b"))
		assert.Equal(t, `<p>go <a href="https://b" target="_blank" rel="noopener noreferrer nofollow">here</a> now</p>`, e.HTML())
		assert.True(t, e.IsActive("link", nil))

		require.NoError(t, e.UnsetLink())
		assert.Equal(t, "<p>go here now</p>", e.HTML())
	})
}

func TestPasteHTML(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		e := newTestEditor(t, "<p>ab</p>")
		require.NoError(t, e.Select(sel(1, 1, 0)))
		require.NoError(t, e.PasteHTML("<p><em>x</em></p>"))
		assert.Equal(t, "<p>a<em>x</em>b</p>", e.HTML())
		assert.Equal(t, sel(2, 2, 0), e.Selection())
	})

	t.Run("blocks", func(t *testing.T) {
		e := newTestEditor(t, "<p>ab</p>")
		require.NoError(t, e.Select(sel(1, 1, 0)))
		require.NoError(t, e.PasteHTML("<h2>T</h2><p>y</p>"))
		assert.Equal(t, "<p>a</p><h2>T</h2><p>y</p><p>b</p>", e.HTML())
		assert.Equal(t, sel(1, 1, 2), e.Selection())
	})

	t.Run("into code block", func(t *testing.T) {
		e := newTestEditor(t, `<pre><code class="language-sql"></code></pre>`)
		require.NoError(t, e.PasteHTML("<p>select</p><p><b>1</b></p>"))
		assert.Equal(t, "<pre><code class=\"language-sql\">select\n1</code></pre>", e.HTML())
	})
}

func TestSetDocument(t *testing.T) {
	var calls int
	e := newTestEditor(t, "<p>old</p>", func(o *Options) {
		o.OnChange = func(string) { calls++ }
	})

	doc := edtypes.NewDocument(edtypes.Heading(1, edtypes.Text("T")), edtypes.CodeBlock("sql", "select 1"))
	require.NoError(t, e.SetDocument(doc))
	assert.Equal(t, `<h1>T</h1><pre><code class="language-sql">select 1</code></pre>`, e.HTML())
	assert.Zero(t, calls)
	assert.False(t, e.CanUndo())

	doc.Content[0].Attrs.Level = 3
	assert.Equal(t, 1, e.Document().Content[0].Attrs.Level)

	require.NoError(t, e.SetDocument(edtypes.NewDocument()))
	assert.Equal(t, "<p></p>", e.HTML())

	assert.ErrorIs(t, e.SetDocument(nil), ErrInvalidDocument)
	assert.ErrorIs(t, e.SetDocument(edtypes.Paragraph()), ErrInvalidDocument)

	e.Close()
	assert.ErrorIs(t, e.SetDocument(edtypes.NewDocument()), ErrClosed)
}

func TestClosedEditor(t *testing.T) {
	e := newTestEditor(t, "<p>a</p>")
	e.Close()
	assert.ErrorIs(t, e.InsertText("b"), ErrClosed)
	assert.Equal(t, "<p>a</p>", e.HTML())
}

func TestPlaceholder(t *testing.T) {
	e := newTestEditor(t, "")
	assert.True(t, e.IsEmpty())
	assert.Equal(t, DefaultPlaceholder, e.Placeholder())

	e = newTestEditor(t, "<p>x</p>", func(o *Options) { o.Placeholder = "Tell your story" })
	assert.False(t, e.IsEmpty())
	assert.Equal(t, "Tell your story", e.Placeholder())
}
