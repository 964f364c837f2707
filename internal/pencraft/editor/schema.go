package editor

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	"golang.org/x/net/html"
)

// nodeCodec правила разбора и отрисовки одного варианта узла.
type nodeCodec struct {
	tags   []string
	parse  func(s *Schema, el *html.Node) []*edtypes.Node
	render func(s *Schema, b *strings.Builder, n *edtypes.Node)
}

type markCodec struct {
	tags  []string
	parse func(el *html.Node) (edtypes.Mark, bool)
	open  func(m edtypes.Mark) string
	close string
}

var (
	nodeCodecs map[edtypes.NodeType]nodeCodec
	markCodecs map[edtypes.MarkType]markCodec

	// Порядок вложенности меток при отрисовке, от внешней к внутренней.
	markRenderOrder = []edtypes.MarkType{edtypes.LinkMark, edtypes.BoldMark, edtypes.ItalicMark, edtypes.CodeMark}
)

func init() {
	nodeCodecs = map[edtypes.NodeType]nodeCodec{
		edtypes.DocNode: {
			render: func(s *Schema, b *strings.Builder, n *edtypes.Node) { s.renderChildren(b, n) },
		},
		edtypes.ParagraphNode: {
			tags: []string{"p"},
			parse: func(s *Schema, el *html.Node) []*edtypes.Node {
				return []*edtypes.Node{edtypes.Paragraph(s.parseInlineChildren(el, nil)...)}
			},
			render: wrapRender("p"),
		},
		edtypes.HeadingNode: {
			tags:   []string{"h1", "h2", "h3", "h4", "h5", "h6"},
			parse:  parseHeading,
			render: renderHeading,
		},
		edtypes.BulletListNode: {
			tags:   []string{"ul"},
			parse:  parseList,
			render: wrapRender("ul"),
		},
		edtypes.OrderedListNode: {
			tags:   []string{"ol"},
			parse:  parseList,
			render: renderOrderedList,
		},
		edtypes.ListItemNode: {
			tags: []string{"li"},
			parse: func(s *Schema, el *html.Node) []*edtypes.Node {
				return s.parseBlocks(el)
			},
			render: wrapRender("li"),
		},
		edtypes.BlockquoteNode: {
			tags: []string{"blockquote"},
			parse: func(s *Schema, el *html.Node) []*edtypes.Node {
				return []*edtypes.Node{edtypes.Blockquote(nonEmptyBlocks(s.parseBlocks(el))...)}
			},
			render: wrapRender("blockquote"),
		},
		edtypes.CodeBlockNode: {
			tags:   []string{"pre"},
			parse:  parseCodeBlock,
			render: renderCodeBlock,
		},
		edtypes.ImageNode: {
			tags:   []string{"img"},
			parse:  parseImage,
			render: renderImage,
		},
		edtypes.HardBreakNode: {
			tags: []string{"br"},
			parse: func(s *Schema, el *html.Node) []*edtypes.Node {
				return []*edtypes.Node{edtypes.HardBreak()}
			},
			render: func(s *Schema, b *strings.Builder, n *edtypes.Node) { b.WriteString("<br>") },
		},
		edtypes.TextNode: {
			render: renderText,
		},
	}

	markCodecs = map[edtypes.MarkType]markCodec{
		edtypes.BoldMark:   simpleMark(edtypes.BoldMark, "strong", "b"),
		edtypes.ItalicMark: simpleMark(edtypes.ItalicMark, "em", "i"),
		edtypes.CodeMark:   simpleMark(edtypes.CodeMark, "code"),
		edtypes.LinkMark: {
			tags: []string{"a"},
			parse: func(el *html.Node) (edtypes.Mark, bool) {
				href := getAttrValue("href", el.Attr)
				if href == "" {
					return edtypes.Mark{}, false
				}
				return edtypes.Mark{Type: edtypes.LinkMark, Href: href}, true
			},
			open: func(m edtypes.Mark) string {
				return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer nofollow">`, html.EscapeString(m.Href))
			},
			close: "</a>",
		},
	}

	DefaultSchema = NewSchema(DefaultCodeBlockOptions())
}

// Schema набор правил преобразования документа в HTML и обратно с учетом настроек расширений.
type Schema struct {
	CodeBlock CodeBlockOptions

	blockTags  map[string]nodeCodec
	inlineTags map[string]nodeCodec
	markTags   map[string]markCodec
}

func NewSchema(codeBlock CodeBlockOptions) *Schema {
	if codeBlock.LanguageClassPrefix == "" {
		codeBlock.LanguageClassPrefix = DefaultLanguageClassPrefix
	}
	if codeBlock.HTMLAttributes == nil {
		codeBlock.HTMLAttributes = map[string]string{}
	}

	s := &Schema{
		CodeBlock:  codeBlock,
		blockTags:  make(map[string]nodeCodec),
		inlineTags: make(map[string]nodeCodec),
		markTags:   make(map[string]markCodec),
	}
	for t, c := range nodeCodecs {
		for _, tag := range c.tags {
			if t.Spec().Inline {
				s.inlineTags[tag] = c
			} else {
				s.blockTags[tag] = c
			}
		}
	}
	for _, c := range markCodecs {
		for _, tag := range c.tags {
			s.markTags[tag] = c
		}
	}
	return s
}

// DefaultSchema схема с настройками расширений по умолчанию.
var DefaultSchema *Schema

func wrapRender(tag string) func(s *Schema, b *strings.Builder, n *edtypes.Node) {
	return func(s *Schema, b *strings.Builder, n *edtypes.Node) {
		b.WriteString("<" + tag + ">")
		s.renderChildren(b, n)
		b.WriteString("</" + tag + ">")
	}
}

func simpleMark(t edtypes.MarkType, tags ...string) markCodec {
	return markCodec{
		tags: tags,
		parse: func(el *html.Node) (edtypes.Mark, bool) {
			return edtypes.Mark{Type: t}, true
		},
		open:  func(edtypes.Mark) string { return "<" + tags[0] + ">" },
		close: "</" + tags[0] + ">",
	}
}

func parseHeading(s *Schema, el *html.Node) []*edtypes.Node {
	level, _ := strconv.Atoi(strings.TrimPrefix(el.Data, "h"))
	return []*edtypes.Node{edtypes.Heading(level, s.parseInlineChildren(el, nil)...)}
}

func renderHeading(s *Schema, b *strings.Builder, n *edtypes.Node) {
	level := min(max(n.Attrs.Level, 1), 6)
	fmt.Fprintf(b, "<h%d>", level)
	s.renderChildren(b, n)
	fmt.Fprintf(b, "</h%d>", level)
}

func parseList(s *Schema, el *html.Node) []*edtypes.Node {
	list := edtypes.BulletList()
	if el.Data == "ol" {
		list = edtypes.OrderedList()
		if start, err := strconv.Atoi(getAttrValue("start", el.Attr)); err == nil {
			list.Attrs.Start = start
		}
	}

	for li := el.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		list.Content = append(list.Content, edtypes.ListItem(nonEmptyBlocks(s.parseBlocks(li))...))
	}

	if len(list.Content) == 0 {
		slog.Debug("Skip empty list", "tag", el.Data)
		return nil
	}
	return []*edtypes.Node{list}
}

func renderOrderedList(s *Schema, b *strings.Builder, n *edtypes.Node) {
	b.WriteString("<ol")
	if n.Attrs.Start > 1 {
		writeAttr(b, "start", strconv.Itoa(n.Attrs.Start))
	}
	b.WriteString(">")
	s.renderChildren(b, n)
	b.WriteString("</ol>")
}

func parseCodeBlock(s *Schema, el *html.Node) []*edtypes.Node {
	var text strings.Builder
	iterNodes(el, func(child *html.Node) bool {
		if child.Type == html.TextNode {
			text.WriteString(child.Data)
		}
		return false
	})
	return []*edtypes.Node{edtypes.CodeBlock(s.CodeBlock.ParseLanguage(el), text.String())}
}

func renderCodeBlock(s *Schema, b *strings.Builder, n *edtypes.Node) {
	s.CodeBlock.renderOpen(b, n.Attrs.Language)
	b.WriteString(html.EscapeString(n.TextContent()))
	b.WriteString("</code></pre>")
}

func parseImage(s *Schema, el *html.Node) []*edtypes.Node {
	src := getAttrValue("src", el.Attr)
	if src == "" {
		return nil
	}
	return []*edtypes.Node{edtypes.Image(src, getAttrValue("alt", el.Attr))}
}

func renderImage(s *Schema, b *strings.Builder, n *edtypes.Node) {
	b.WriteString("<img")
	writeAttr(b, "src", n.Attrs.Src)
	if n.Attrs.Alt != "" {
		writeAttr(b, "alt", n.Attrs.Alt)
	}
	b.WriteString(">")
}

func renderText(s *Schema, b *strings.Builder, n *edtypes.Node) {
	var opened []markCodec
	for _, t := range markRenderOrder {
		if m, ok := n.Mark(t); ok {
			c := markCodecs[t]
			b.WriteString(c.open(m))
			opened = append(opened, c)
		}
	}
	b.WriteString(html.EscapeString(n.Text))
	for i := len(opened) - 1; i >= 0; i-- {
		b.WriteString(opened[i].close)
	}
}

func writeAttr(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, ` %s="%s"`, key, html.EscapeString(value))
}

func nonEmptyBlocks(blocks []*edtypes.Node) []*edtypes.Node {
	if len(blocks) == 0 {
		return []*edtypes.Node{edtypes.Paragraph()}
	}
	return blocks
}
