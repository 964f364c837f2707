// Пакет edtypes описывает модель документа редактора: закрытый набор типов узлов, метки форматирования текста и структурные ограничения каждого типа.
//
// Основные возможности:
//   - Перечисление NodeType со всеми вариантами узлов и таблица их спецификаций (группа, допустимое содержимое, метки).
//   - Универсальный узел Node с типизированными атрибутами.
//   - Конструкторы узлов, глубокое копирование, нормализация текстовых узлов.
//   - Извлечение текстового содержимого.
package edtypes

import (
	"slices"
	"strings"
)

type NodeType int

const (
	DocNode NodeType = iota
	ParagraphNode
	HeadingNode
	BulletListNode
	OrderedListNode
	ListItemNode
	BlockquoteNode
	CodeBlockNode
	ImageNode
	HardBreakNode
	TextNode
)

var nodeTypeNames = [...]string{
	DocNode:         "doc",
	ParagraphNode:   "paragraph",
	HeadingNode:     "heading",
	BulletListNode:  "bulletList",
	OrderedListNode: "orderedList",
	ListItemNode:    "listItem",
	BlockquoteNode:  "blockquote",
	CodeBlockNode:   "codeBlock",
	ImageNode:       "image",
	HardBreakNode:   "hardBreak",
	TextNode:        "text",
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return "unknown"
	}
	return nodeTypeNames[t]
}

// ParseNodeType возвращает тип узла по имени.
func ParseNodeType(name string) (NodeType, bool) {
	for i, n := range nodeTypeNames {
		if n == name {
			return NodeType(i), true
		}
	}
	return 0, false
}

// AllNodeTypes все варианты узлов.
func AllNodeTypes() []NodeType {
	res := make([]NodeType, len(nodeTypeNames))
	for i := range nodeTypeNames {
		res[i] = NodeType(i)
	}
	return res
}

// Spec структурные ограничения типа узла.
type Spec struct {
	Group     string
	Content   string
	Marks     bool
	Inline    bool
	Textblock bool
	Code      bool
	Defining  bool
}

var specs = map[NodeType]Spec{
	DocNode:         {Content: "block+"},
	ParagraphNode:   {Group: "block", Content: "inline*", Marks: true, Textblock: true},
	HeadingNode:     {Group: "block", Content: "inline*", Marks: true, Textblock: true, Defining: true},
	BulletListNode:  {Group: "block", Content: "listItem+"},
	OrderedListNode: {Group: "block", Content: "listItem+"},
	ListItemNode:    {Content: "block+", Defining: true},
	BlockquoteNode:  {Group: "block", Content: "block+", Defining: true},
	CodeBlockNode:   {Group: "block", Content: "text*", Textblock: true, Code: true, Defining: true},
	ImageNode:       {Group: "inline", Inline: true},
	HardBreakNode:   {Group: "inline", Inline: true},
	TextNode:        {Group: "inline", Inline: true},
}

func (t NodeType) Spec() Spec {
	return specs[t]
}

type MarkType int

const (
	BoldMark MarkType = iota
	ItalicMark
	CodeMark
	LinkMark
)

var markTypeNames = [...]string{
	BoldMark:   "bold",
	ItalicMark: "italic",
	CodeMark:   "code",
	LinkMark:   "link",
}

func (t MarkType) String() string {
	if t < 0 || int(t) >= len(markTypeNames) {
		return "unknown"
	}
	return markTypeNames[t]
}

func ParseMarkType(name string) (MarkType, bool) {
	for i, n := range markTypeNames {
		if n == name {
			return MarkType(i), true
		}
	}
	return 0, false
}

// Mark форматирование текстового узла. Href заполняется только для ссылок.
type Mark struct {
	Type MarkType
	Href string
}

// Attrs атрибуты узла. Каждый тип использует только свои поля.
type Attrs struct {
	Level    int
	Language string
	Src      string
	Alt      string
	Start    int
}

type Node struct {
	Type    NodeType
	Attrs   Attrs
	Content []*Node
	Text    string
	Marks   []Mark
}

func NewDocument(blocks ...*Node) *Node {
	return &Node{Type: DocNode, Content: blocks}
}

func Paragraph(inline ...*Node) *Node {
	return &Node{Type: ParagraphNode, Content: inline}
}

func Heading(level int, inline ...*Node) *Node {
	return &Node{Type: HeadingNode, Attrs: Attrs{Level: level}, Content: inline}
}

func CodeBlock(language string, text string) *Node {
	n := &Node{Type: CodeBlockNode, Attrs: Attrs{Language: language}}
	if text != "" {
		n.Content = []*Node{Text(text)}
	}
	return n
}

func BulletList(items ...*Node) *Node {
	return &Node{Type: BulletListNode, Content: items}
}

func OrderedList(items ...*Node) *Node {
	return &Node{Type: OrderedListNode, Attrs: Attrs{Start: 1}, Content: items}
}

func ListItem(blocks ...*Node) *Node {
	return &Node{Type: ListItemNode, Content: blocks}
}

func Blockquote(blocks ...*Node) *Node {
	return &Node{Type: BlockquoteNode, Content: blocks}
}

func Image(src, alt string) *Node {
	return &Node{Type: ImageNode, Attrs: Attrs{Src: src, Alt: alt}}
}

func HardBreak() *Node {
	return &Node{Type: HardBreakNode}
}

func Text(text string, marks ...Mark) *Node {
	return &Node{Type: TextNode, Text: text, Marks: SortMarks(marks)}
}

func (n *Node) IsTextblock() bool {
	return n != nil && n.Type.Spec().Textblock
}

func (n *Node) IsInline() bool {
	return n != nil && n.Type.Spec().Inline
}

// Clone глубокая копия узла.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Type:  n.Type,
		Attrs: n.Attrs,
		Text:  n.Text,
		Marks: slices.Clone(n.Marks),
	}
	if n.Content != nil {
		c.Content = make([]*Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = child.Clone()
		}
	}
	return c
}

// TextContent текст узла и всех потомков без разметки.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Type == TextNode {
		return n.Text
	}
	var b strings.Builder
	for _, child := range n.Content {
		b.WriteString(child.TextContent())
	}
	return b.String()
}

// HasMark проверяет наличие метки у текстового узла.
func (n *Node) HasMark(t MarkType) bool {
	return slices.ContainsFunc(n.Marks, func(m Mark) bool { return m.Type == t })
}

// Mark возвращает метку указанного типа.
func (n *Node) Mark(t MarkType) (Mark, bool) {
	for _, m := range n.Marks {
		if m.Type == t {
			return m, true
		}
	}
	return Mark{}, false
}

// IsEmpty true для документа из одного пустого параграфа или без содержимого.
func (n *Node) IsEmpty() bool {
	if n == nil || len(n.Content) == 0 {
		return true
	}
	if n.Type != DocNode {
		return n.TextContent() == "" && !n.hasLeaves()
	}
	return len(n.Content) == 1 && n.Content[0].Type == ParagraphNode && len(n.Content[0].Content) == 0
}

func (n *Node) hasLeaves() bool {
	for _, child := range n.Content {
		if child.Type == ImageNode || child.Type == HardBreakNode || child.hasLeaves() {
			return true
		}
	}
	return false
}

// Equal структурное сравнение узлов.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Type != o.Type || n.Attrs != o.Attrs || n.Text != o.Text || !slices.Equal(n.Marks, o.Marks) || len(n.Content) != len(o.Content) {
		return false
	}
	for i := range n.Content {
		if !n.Content[i].Equal(o.Content[i]) {
			return false
		}
	}
	return true
}

// SortMarks приводит набор меток к каноническому порядку без повторов типов.
func SortMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	res := make([]Mark, 0, len(marks))
	for _, m := range marks {
		if idx := slices.IndexFunc(res, func(e Mark) bool { return e.Type == m.Type }); idx >= 0 {
			res[idx] = m
			continue
		}
		res = append(res, m)
	}
	slices.SortFunc(res, func(a, b Mark) int { return int(a.Type) - int(b.Type) })
	return res
}

// Normalize склеивает соседние текстовые узлы с одинаковыми метками, удаляет пустые
// и приводит содержимое блока кода к одному текстовому узлу без меток.
func (n *Node) Normalize() {
	if n == nil {
		return
	}
	if n.Type == CodeBlockNode {
		text := n.TextContent()
		n.Content = nil
		if text != "" {
			n.Content = []*Node{{Type: TextNode, Text: text}}
		}
		return
	}
	if n.IsTextblock() {
		merged := make([]*Node, 0, len(n.Content))
		for _, child := range n.Content {
			if child.Type == TextNode {
				if child.Text == "" {
					continue
				}
				if l := len(merged); l > 0 && merged[l-1].Type == TextNode && slices.Equal(merged[l-1].Marks, child.Marks) {
					merged[l-1].Text += child.Text
					continue
				}
			}
			merged = append(merged, child)
		}
		n.Content = merged
		return
	}
	for _, child := range n.Content {
		child.Normalize()
	}
}
