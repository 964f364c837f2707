// Пакет export выгружает статьи в Markdown.
//
// Основные возможности:
//   - Заголовок статьи, категория, теги и обложка.
//   - Заголовки, параграфы, списки, цитаты и блоки кода с языком.
//   - Форматирование текста и ссылки, изображения.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/editor"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	md "github.com/nao1215/markdown"
)

// WritingToMarkdown записывает статью в формате Markdown.
func WritingToMarkdown(w io.Writer, writing *dao.Writing) error {
	doc, err := editor.ParseString(writing.Content.Body)
	if err != nil {
		return fmt.Errorf("parse writing content: %w", err)
	}

	m := md.NewMarkdown(w).H1(writing.Title)
	meta := md.Italic(writing.Category.String())
	if len(writing.Tags) > 0 {
		meta += " · " + strings.Join(writing.Tags, ", ")
	}
	m.PlainText(meta).LF()
	if writing.CoverImage != "" {
		m.PlainText(md.Image(writing.Title, writing.CoverImage)).LF()
	}

	for _, block := range doc.Content {
		writeBlock(m, block)
	}
	return m.Build()
}

func writeBlock(m *md.Markdown, n *edtypes.Node) {
	switch n.Type {
	case edtypes.HeadingNode:
		heading(m, n.Attrs.Level, inline(n))
	case edtypes.ParagraphNode:
		if text := inline(n); text != "" {
			m.PlainText(text).LF()
		}
	case edtypes.BulletListNode:
		m.BulletList(listItems(n, 0)...).LF()
	case edtypes.OrderedListNode:
		m.OrderedList(listItems(n, 0)...).LF()
	case edtypes.BlockquoteNode:
		m.Blockquote(blockText(n, "\n")).LF()
	case edtypes.CodeBlockNode:
		lang := n.Attrs.Language
		if lang == "plain" {
			lang = ""
		}
		m.CodeBlocks(md.SyntaxHighlight(lang), strings.TrimSuffix(n.TextContent(), "\n")).LF()
	}
}

func heading(m *md.Markdown, level int, text string) {
	switch level {
	case 1:
		m.H2(text)
	case 2:
		m.H3(text)
	case 3:
		m.H4(text)
	case 4:
		m.H5(text)
	default:
		m.H6(text)
	}
}

// listItems текст пунктов списка. Вложенные списки добавляются к пункту с отступом.
func listItems(list *edtypes.Node, depth int) []string {
	items := make([]string, 0, len(list.Content))
	for _, item := range list.Content {
		var text []string
		for _, block := range item.Content {
			switch block.Type {
			case edtypes.BulletListNode, edtypes.OrderedListNode:
				marker := "-"
				for i, sub := range listItems(block, depth+1) {
					if block.Type == edtypes.OrderedListNode {
						marker = fmt.Sprintf("%d.", block.Attrs.Start+i)
					}
					text = append(text, "\n"+strings.Repeat("  ", depth+1)+marker+" "+sub)
				}
			default:
				text = append(text, blockText(block, " "))
			}
		}
		items = append(items, strings.TrimSpace(strings.Join(text, " ")))
	}
	return items
}

func blockText(n *edtypes.Node, sep string) string {
	if n.IsTextblock() {
		if n.Type == edtypes.CodeBlockNode {
			return md.Code(n.TextContent())
		}
		return inline(n)
	}
	parts := make([]string, 0, len(n.Content))
	for _, child := range n.Content {
		if text := blockText(child, sep); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, sep)
}

func inline(n *edtypes.Node) string {
	var b strings.Builder
	for _, child := range n.Content {
		switch child.Type {
		case edtypes.TextNode:
			b.WriteString(markText(child))
		case edtypes.HardBreakNode:
			b.WriteString("  \n")
		case edtypes.ImageNode:
			b.WriteString(md.Image(child.Attrs.Alt, child.Attrs.Src))
		}
	}
	return b.String()
}

func markText(n *edtypes.Node) string {
	text := n.Text
	if n.HasMark(edtypes.CodeMark) {
		text = md.Code(text)
	}
	if n.HasMark(edtypes.ItalicMark) {
		text = md.Italic(text)
	}
	if n.HasMark(edtypes.BoldMark) {
		text = md.Bold(text)
	}
	if link, ok := n.Mark(edtypes.LinkMark); ok {
		text = md.Link(text, link.Href)
	}
	return text
}
