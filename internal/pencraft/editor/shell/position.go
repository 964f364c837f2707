package shell

import (
	"slices"
	"strconv"
	"strings"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
)

// Selection позиция курсора: путь из индексов потомков до текстового блока
// и смещения From..To внутри него. Смещения считаются в символах,
// встроенные узлы без текста (изображение, перенос строки) занимают одну позицию.
type Selection struct {
	Path []int `json:"path"`
	From int   `json:"from"`
	To   int   `json:"to"`
}

func (s Selection) Empty() bool {
	return s.From == s.To
}

func (s Selection) clone() Selection {
	s.Path = slices.Clone(s.Path)
	return s
}

func (s Selection) ordered() Selection {
	if s.From > s.To {
		s.From, s.To = s.To, s.From
	}
	return s
}

func pathKey(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// unit одна позиция внутри текстового блока.
type unit struct {
	r     rune
	leaf  *edtypes.Node
	marks []edtypes.Mark
}

func (u unit) isText() bool {
	return u.leaf == nil
}

func explode(block *edtypes.Node) []unit {
	var res []unit
	for _, child := range block.Content {
		if child.Type != edtypes.TextNode {
			res = append(res, unit{leaf: child})
			continue
		}
		for _, r := range child.Text {
			res = append(res, unit{r: r, marks: child.Marks})
		}
	}
	return res
}

func implode(units []unit) []*edtypes.Node {
	var res []*edtypes.Node
	var text []rune
	var marks []edtypes.Mark
	flush := func() {
		if len(text) > 0 {
			res = append(res, edtypes.Text(string(text), marks...))
			text = nil
		}
	}
	for _, u := range units {
		if !u.isText() {
			flush()
			res = append(res, u.leaf.Clone())
			continue
		}
		if len(text) > 0 && !slices.Equal(marks, u.marks) {
			flush()
		}
		if len(text) == 0 {
			marks = u.marks
		}
		text = append(text, u.r)
	}
	flush()
	return res
}

func textUnits(text string, marks []edtypes.Mark) []unit {
	res := make([]unit, 0, len(text))
	for _, r := range text {
		res = append(res, unit{r: r, marks: marks})
	}
	return res
}

// inlineUnits текст для обычного текстового блока: переводы строк становятся переносами.
func inlineUnits(text string, marks []edtypes.Mark) []unit {
	var res []unit
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			res = append(res, unit{leaf: edtypes.HardBreak()})
		}
		res = append(res, textUnits(line, marks)...)
	}
	return res
}

// toCode приводит позиции к содержимому блока кода и возвращает
// отображение старых смещений в новые.
func toCode(units []unit) ([]unit, func(int) int) {
	res := make([]unit, 0, len(units))
	offsets := make([]int, len(units)+1)
	for i, u := range units {
		offsets[i] = len(res)
		switch {
		case u.isText():
			res = append(res, unit{r: u.r})
		case u.leaf.Type == edtypes.HardBreakNode:
			res = append(res, unit{r: '\n'})
		}
	}
	offsets[len(units)] = len(res)
	return res, func(o int) int { return offsets[clamp(o, 0, len(units))] }
}

func fromCode(units []unit) []unit {
	res := make([]unit, 0, len(units))
	for _, u := range units {
		if u.r == '\n' {
			res = append(res, unit{leaf: edtypes.HardBreak()})
			continue
		}
		res = append(res, unit{r: u.r})
	}
	return res
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func nodeAt(root *edtypes.Node, path []int) *edtypes.Node {
	n := root
	for _, idx := range path {
		if n == nil || idx < 0 || idx >= len(n.Content) {
			return nil
		}
		n = n.Content[idx]
	}
	return n
}

// ancestor ближайший предок блока указанного типа, возвращается его путь.
func ancestor(root *edtypes.Node, path []int, types ...edtypes.NodeType) ([]int, *edtypes.Node) {
	for i := len(path) - 1; i >= 0; i-- {
		if n := nodeAt(root, path[:i]); n != nil && slices.Contains(types, n.Type) {
			return slices.Clone(path[:i]), n
		}
	}
	return nil, nil
}

func firstTextblock(n *edtypes.Node, base []int) []int {
	if n.IsTextblock() {
		return base
	}
	for i, child := range n.Content {
		if p := firstTextblock(child, append(slices.Clone(base), i)); p != nil {
			return p
		}
	}
	return nil
}

func lastTextblock(n *edtypes.Node, base []int) []int {
	if n.IsTextblock() {
		return base
	}
	for i := len(n.Content) - 1; i >= 0; i-- {
		if p := lastTextblock(n.Content[i], append(slices.Clone(base), i)); p != nil {
			return p
		}
	}
	return nil
}

// fixSelection возвращает корректное выделение для документа.
func fixSelection(doc *edtypes.Node, sel Selection) Selection {
	block := nodeAt(doc, sel.Path)
	if block == nil || !block.IsTextblock() {
		return Selection{Path: firstTextblock(doc, nil)}
	}
	size := len(explode(block))
	sel.From = clamp(sel.From, 0, size)
	sel.To = clamp(sel.To, 0, size)
	return sel
}

// replaceAt заменяет потомка по пути на набор узлов.
func replaceAt(root *edtypes.Node, path []int, nodes ...*edtypes.Node) {
	parent := nodeAt(root, path[:len(path)-1])
	idx := path[len(path)-1]
	parent.Content = slices.Concat(parent.Content[:idx], nodes, parent.Content[idx+1:])
}

func insertAfter(root *edtypes.Node, path []int, nodes ...*edtypes.Node) {
	parent := nodeAt(root, path[:len(path)-1])
	idx := path[len(path)-1] + 1
	parent.Content = slices.Insert(parent.Content, idx, nodes...)
}

func sibling(path []int, delta int) []int {
	res := slices.Clone(path)
	res[len(res)-1] += delta
	return res
}
