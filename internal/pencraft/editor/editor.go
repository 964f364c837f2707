// Пакет предоставляет HTML-кодек документа редактора и расширение блока кода.
// Разбор и отрисовка выполняются по таблице правил для каждого варианта узла, поэтому набор поддерживаемых элементов закрыт и проверяется тестами.
//
// Основные возможности:
//   - Парсинг HTML из io.Reader в дерево edtypes.Node.
//   - Отрисовка дерева обратно в HTML в формате редактора (<pre><code class="language-go">).
//   - Настраиваемое расширение блока кода: префикс класса языка, дополнительные атрибуты <pre>.
//   - Фиксированный список языков для селектора блока кода.
package editor

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	"golang.org/x/net/html"
)

// ParseDocument разбирает HTML схемой по умолчанию.
func ParseDocument(r io.Reader) (*edtypes.Node, error) {
	return DefaultSchema.ParseHTML(r)
}

// ParseString разбирает HTML строку схемой по умолчанию.
func ParseString(content string) (*edtypes.Node, error) {
	return DefaultSchema.ParseHTML(strings.NewReader(content))
}

// RenderDocument отрисовывает документ схемой по умолчанию.
func RenderDocument(doc *edtypes.Node) string {
	return DefaultSchema.RenderHTML(doc)
}

// ParseHTML строит документ из HTML. Пустой ввод дает документ из одного пустого параграфа.
func (s *Schema) ParseHTML(r io.Reader) (*edtypes.Node, error) {
	rootNode, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := edtypes.NewDocument()
	if body := getBody(rootNode); body != nil {
		doc.Content = s.parseBlocks(body)
	}
	doc.Content = nonEmptyBlocks(doc.Content)
	doc.Normalize()
	return doc, nil
}

// RenderHTML сериализует документ в HTML.
func (s *Schema) RenderHTML(doc *edtypes.Node) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	s.renderNode(&b, doc)
	return b.String()
}

// RenderNode сериализует отдельный узел.
func (s *Schema) RenderNode(n *edtypes.Node) string {
	var b strings.Builder
	s.renderNode(&b, n)
	return b.String()
}

func (s *Schema) renderNode(b *strings.Builder, n *edtypes.Node) {
	c, ok := nodeCodecs[n.Type]
	if !ok || c.render == nil {
		slog.Warn("Unknown node type for render", "type", n.Type)
		return
	}
	c.render(s, b, n)
}

func (s *Schema) renderChildren(b *strings.Builder, n *edtypes.Node) {
	for _, child := range n.Content {
		s.renderNode(b, child)
	}
}

func (s *Schema) parseBlocks(parent *html.Node) []*edtypes.Node {
	var blocks, inline []*edtypes.Node
	flush := func() {
		if len(inline) > 0 {
			blocks = append(blocks, edtypes.Paragraph(inline...))
			inline = nil
		}
	}

	for el := parent.FirstChild; el != nil; el = el.NextSibling {
		switch el.Type {
		case html.TextNode:
			if len(inline) == 0 && strings.TrimSpace(el.Data) == "" {
				continue
			}
			inline = append(inline, edtypes.Text(el.Data))
		case html.ElementNode:
			if c, ok := s.blockTags[el.Data]; ok {
				flush()
				blocks = append(blocks, c.parse(s, el)...)
				continue
			}
			switch el.Data {
			case "div", "section", "article", "main", "header", "footer":
				flush()
				blocks = append(blocks, s.parseBlocks(el)...)
			case "hr", "script", "style", "head":
			default:
				inline = append(inline, s.parseInline(el, nil)...)
			}
		}
	}
	flush()
	return blocks
}

func (s *Schema) parseInlineChildren(el *html.Node, marks []edtypes.Mark) []*edtypes.Node {
	var res []*edtypes.Node
	for child := el.FirstChild; child != nil; child = child.NextSibling {
		res = append(res, s.parseInline(child, marks)...)
	}
	return res
}

func (s *Schema) parseInline(el *html.Node, marks []edtypes.Mark) []*edtypes.Node {
	switch el.Type {
	case html.TextNode:
		return []*edtypes.Node{edtypes.Text(el.Data, marks...)}
	case html.ElementNode:
	default:
		return nil
	}

	if c, ok := s.inlineTags[el.Data]; ok {
		return c.parse(s, el)
	}
	if c, ok := s.markTags[el.Data]; ok {
		if m, ok := c.parse(el); ok {
			marks = append(slices.Clone(marks), m)
		}
	}
	return s.parseInlineChildren(el, marks)
}

func getBody(node *html.Node) *html.Node {
	var body *html.Node
	iterNodes(node, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return true
		}
		return false
	})
	return body
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// iterNodes обходит потомков в глубину. Если f возвращает true, потомки узла пропускаются.
func iterNodes(node *html.Node, f func(*html.Node) bool) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if f(child) {
			continue
		}
		iterNodes(child, f)
	}
}
