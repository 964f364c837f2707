package shell

import (
	"errors"
	"slices"

	"github.com/aisa-it/pencraft/internal/pencraft/editor"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
)

var ErrInvalidHeadingLevel = errors.New("heading level must be between 1 and 6")

// InsertText вставляет текст в позицию курсора, заменяя выделение.
// Вне блока кода перевод строки становится переносом строки.
func (e *Editor) InsertText(text string) error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		sel := st.sel.ordered()
		units := explode(block)

		var ins []unit
		if block.Type == edtypes.CodeBlockNode {
			ins = textUnits(text, nil)
		} else {
			ins = inlineUnits(text, st.currentMarks(units))
		}
		block.Content = implode(slices.Concat(units[:sel.From], ins, units[sel.To:]))
		st.sel = collapsed(sel.Path, sel.From+len(ins))
		return nil
	})
}

func (e *Editor) InsertHardBreak() error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		sel := st.sel.ordered()
		units := explode(block)

		br := unit{leaf: edtypes.HardBreak()}
		if block.Type == edtypes.CodeBlockNode {
			br = unit{r: '\n'}
		}
		block.Content = implode(slices.Concat(units[:sel.From], []unit{br}, units[sel.To:]))
		st.sel = collapsed(sel.Path, sel.From+1)
		st.keepMarks = true
		return nil
	})
}

// DeleteSelection удаляет выделенный фрагмент.
func (e *Editor) DeleteSelection() error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		deleteRange(st, block)
		return nil
	})
}

func deleteRange(st *state, block *edtypes.Node) []unit {
	sel := st.sel.ordered()
	units := explode(block)
	units = slices.Concat(units[:sel.From], units[sel.To:])
	block.Content = implode(units)
	st.sel = collapsed(sel.Path, sel.From)
	return units
}

// SplitBlock обработка Enter: новая строка в блоке кода, новый элемент в списке,
// выход из списка на пустом элементе, иначе разделение блока.
func (e *Editor) SplitBlock() error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		if block.Type == edtypes.CodeBlockNode {
			sel := st.sel.ordered()
			units := explode(block)
			block.Content = implode(slices.Concat(units[:sel.From], []unit{{r: '\n'}}, units[sel.To:]))
			st.sel = collapsed(sel.Path, sel.From+1)
			return nil
		}

		units := deleteRange(st, block)
		path, pos := st.sel.Path, st.sel.From

		itemPath, item := ancestor(st.doc, path, edtypes.ListItemNode)
		inItem := item != nil && len(path) == len(itemPath)+1
		if inItem && len(units) == 0 && len(item.Content) == 1 {
			st.sel = collapsed(liftListItem(st.doc, itemPath, path), 0)
			return nil
		}

		before := &edtypes.Node{Type: block.Type, Attrs: block.Attrs, Content: implode(units[:pos])}
		after := &edtypes.Node{Type: block.Type, Attrs: block.Attrs, Content: implode(units[pos:])}
		if pos == len(units) {
			after = edtypes.Paragraph()
		}

		if inItem {
			j := path[len(path)-1]
			rest := slices.Clone(item.Content[j+1:])
			item.Content = append(slices.Clone(item.Content[:j]), before)
			insertAfter(st.doc, itemPath, edtypes.ListItem(append([]*edtypes.Node{after}, rest...)...))
			st.sel = collapsed(append(sibling(itemPath, 1), 0), 0)
			return nil
		}

		replaceAt(st.doc, path, before, after)
		st.sel = collapsed(sibling(path, 1), 0)
		return nil
	})
}

// Backspace удаляет символ перед курсором. В начале блока выносит элемент
// из списка или цитаты, сбрасывает тип блока или склеивает с предыдущим.
func (e *Editor) Backspace() error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		if !st.sel.Empty() {
			deleteRange(st, block)
			return nil
		}

		path, pos := st.sel.Path, st.sel.From
		units := explode(block)
		if pos > 0 {
			block.Content = implode(slices.Concat(units[:pos-1], units[pos:]))
			st.sel = collapsed(path, pos-1)
			st.keepMarks = true
			return nil
		}

		first := path[len(path)-1] == 0
		if itemPath, item := ancestor(st.doc, path, edtypes.ListItemNode); item != nil && first && len(path) == len(itemPath)+1 {
			st.sel = collapsed(liftListItem(st.doc, itemPath, path), 0)
			return nil
		}
		if quotePath, quote := ancestor(st.doc, path, edtypes.BlockquoteNode); quote != nil && first && len(path) == len(quotePath)+1 {
			st.sel = collapsed(unwrap(st.doc, quotePath, path), 0)
			return nil
		}
		if block.Type != edtypes.ParagraphNode {
			setBlockType(st, edtypes.ParagraphNode, edtypes.Attrs{})
			return nil
		}
		if first {
			return nil
		}

		prevPath := sibling(path, -1)
		prev := nodeAt(st.doc, prevPath)
		if !prev.IsTextblock() {
			return nil
		}
		prevUnits := explode(prev)
		if prev.Type == edtypes.CodeBlockNode {
			units, _ = toCode(units)
		}
		prev.Content = implode(slices.Concat(prevUnits, units))
		replaceAt(st.doc, path)
		st.sel = collapsed(prevPath, len(prevUnits))
		return nil
	})
}

// SetParagraph превращает текущий блок в параграф.
func (e *Editor) SetParagraph() error {
	return e.update(func(st *state) error {
		if st.block() == nil {
			return ErrNoSelection
		}
		setBlockType(st, edtypes.ParagraphNode, edtypes.Attrs{})
		return nil
	})
}

// ToggleHeading переключает заголовок указанного уровня и параграф.
func (e *Editor) ToggleHeading(level int) error {
	if level < 1 || level > 6 {
		return ErrInvalidHeadingLevel
	}
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		if block.Type == edtypes.HeadingNode && block.Attrs.Level == level {
			setBlockType(st, edtypes.ParagraphNode, edtypes.Attrs{})
			return nil
		}
		setBlockType(st, edtypes.HeadingNode, edtypes.Attrs{Level: level})
		return nil
	})
}

// SetCodeBlock превращает текущий блок в блок кода. Пустой язык заменяется на plain.
func (e *Editor) SetCodeBlock(language string) error {
	return e.update(func(st *state) error {
		if st.block() == nil {
			return ErrNoSelection
		}
		setCodeBlock(st, language)
		return nil
	})
}

// ToggleCodeBlock превращает блок в блок кода или обратно в параграф.
func (e *Editor) ToggleCodeBlock(language string) error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		if block.Type == edtypes.CodeBlockNode {
			setBlockType(st, edtypes.ParagraphNode, edtypes.Attrs{})
			return nil
		}
		setCodeBlock(st, language)
		return nil
	})
}

func setCodeBlock(st *state, language string) {
	if language == "" {
		language = editor.DefaultLanguage
	}
	if block := st.block(); block.Type == edtypes.CodeBlockNode {
		block.Attrs.Language = language
		return
	}
	setBlockType(st, edtypes.CodeBlockNode, edtypes.Attrs{Language: language})
}

// setBlockType меняет тип текущего текстового блока. При переходе в блок кода
// метки и изображения отбрасываются, переносы строк становятся \n.
func setBlockType(st *state, typ edtypes.NodeType, attrs edtypes.Attrs) {
	block := st.block()
	units := explode(block)
	switch {
	case typ == edtypes.CodeBlockNode && block.Type != edtypes.CodeBlockNode:
		var remap func(int) int
		units, remap = toCode(units)
		st.sel.From, st.sel.To = remap(st.sel.From), remap(st.sel.To)
	case typ != edtypes.CodeBlockNode && block.Type == edtypes.CodeBlockNode:
		units = fromCode(units)
	}
	replaceAt(st.doc, st.sel.Path, &edtypes.Node{Type: typ, Attrs: attrs, Content: implode(units)})
}

func (e *Editor) ToggleBulletList() error {
	return e.toggleList(edtypes.BulletListNode)
}

func (e *Editor) ToggleOrderedList() error {
	return e.toggleList(edtypes.OrderedListNode)
}

// toggleList выносит элемент из списка того же типа, меняет тип чужого списка
// или оборачивает блок в новый список.
func (e *Editor) toggleList(typ edtypes.NodeType) error {
	listAttrs := edtypes.Attrs{}
	if typ == edtypes.OrderedListNode {
		listAttrs.Start = 1
	}

	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}

		if itemPath, item := ancestor(st.doc, st.sel.Path, edtypes.ListItemNode); item != nil {
			list := nodeAt(st.doc, itemPath[:len(itemPath)-1])
			if list.Type == typ {
				st.sel.Path = liftListItem(st.doc, itemPath, st.sel.Path)
				return nil
			}
			list.Type, list.Attrs = typ, listAttrs
			return nil
		}

		replaceAt(st.doc, st.sel.Path, &edtypes.Node{Type: typ, Attrs: listAttrs, Content: []*edtypes.Node{edtypes.ListItem(block)}})
		st.sel.Path = append(slices.Clone(st.sel.Path), 0, 0)
		return nil
	})
}

// ToggleBlockquote оборачивает блок в цитату или снимает ближайшую цитату.
func (e *Editor) ToggleBlockquote() error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		if quotePath, quote := ancestor(st.doc, st.sel.Path, edtypes.BlockquoteNode); quote != nil {
			st.sel.Path = unwrap(st.doc, quotePath, st.sel.Path)
			return nil
		}
		replaceAt(st.doc, st.sel.Path, edtypes.Blockquote(block))
		st.sel.Path = append(slices.Clone(st.sel.Path), 0)
		return nil
	})
}

// liftListItem выносит содержимое элемента на уровень списка, разбивая список
// на части до и после элемента. Возвращает новый путь блока.
func liftListItem(doc *edtypes.Node, itemPath, blockPath []int) []int {
	listPath := itemPath[:len(itemPath)-1]
	list := nodeAt(doc, listPath)
	i := itemPath[len(itemPath)-1]

	var nodes []*edtypes.Node
	offset := 0
	if i > 0 {
		nodes = append(nodes, &edtypes.Node{Type: list.Type, Attrs: list.Attrs, Content: slices.Clone(list.Content[:i])})
		offset = 1
	}
	nodes = append(nodes, list.Content[i].Content...)
	if i+1 < len(list.Content) {
		attrs := list.Attrs
		if list.Type == edtypes.OrderedListNode {
			attrs.Start += i + 1
		}
		nodes = append(nodes, &edtypes.Node{Type: list.Type, Attrs: attrs, Content: slices.Clone(list.Content[i+1:])})
	}
	replaceAt(doc, listPath, nodes...)

	rel := blockPath[len(itemPath):]
	res := sibling(listPath, offset+rel[0])
	return append(res, rel[1:]...)
}

// unwrap заменяет обертку ее содержимым и возвращает новый путь блока.
func unwrap(doc *edtypes.Node, wrapperPath, blockPath []int) []int {
	wrapper := nodeAt(doc, wrapperPath)
	replaceAt(doc, wrapperPath, wrapper.Content...)

	rel := blockPath[len(wrapperPath):]
	res := sibling(wrapperPath, rel[0])
	return append(res, rel[1:]...)
}

func collapsed(path []int, pos int) Selection {
	return Selection{Path: slices.Clone(path), From: pos, To: pos}
}
