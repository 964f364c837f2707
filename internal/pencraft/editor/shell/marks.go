package shell

import (
	"slices"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
)

func (e *Editor) ToggleBold() error {
	return e.toggleMark(edtypes.Mark{Type: edtypes.BoldMark})
}

func (e *Editor) ToggleItalic() error {
	return e.toggleMark(edtypes.Mark{Type: edtypes.ItalicMark})
}

// ToggleCode переключает встроенный код.
func (e *Editor) ToggleCode() error {
	return e.toggleMark(edtypes.Mark{Type: edtypes.CodeMark})
}

// toggleMark снимает метку, если она есть на всем выделении, иначе добавляет.
// При пустом выделении меняются метки для следующего ввода.
func (e *Editor) toggleMark(m edtypes.Mark) error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		if block.Type == edtypes.CodeBlockNode {
			return nil
		}

		sel := st.sel.ordered()
		units := explode(block)
		if sel.Empty() {
			marks := st.currentMarks(units)
			if hasMark(marks, m.Type) {
				st.storedMarks = withoutMark(marks, m.Type)
			} else {
				st.storedMarks = withMark(marks, m)
			}
			st.keepMarks = true
			return nil
		}

		if rangeHasMark(units[sel.From:sel.To], m.Type) {
			applyMark(units[sel.From:sel.To], func(marks []edtypes.Mark) []edtypes.Mark { return withoutMark(marks, m.Type) })
		} else {
			applyMark(units[sel.From:sel.To], func(marks []edtypes.Mark) []edtypes.Mark { return withMark(marks, m) })
		}
		block.Content = implode(units)
		return nil
	})
}

// SetLink ставит ссылку на выделение. При пустом выделении внутри ссылки
// меняется адрес всей ссылки. Пустой адрес снимает ссылку.
func (e *Editor) SetLink(href string) error {
	if href == "" {
		return e.UnsetLink()
	}
	link := edtypes.Mark{Type: edtypes.LinkMark, Href: href}
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		if block.Type == edtypes.CodeBlockNode {
			return nil
		}

		units := explode(block)
		from, to, ok := markRange(units, st.sel.ordered(), edtypes.LinkMark)
		if !ok {
			st.storedMarks = withMark(st.currentMarks(units), link)
			st.keepMarks = true
			return nil
		}
		applyMark(units[from:to], func(marks []edtypes.Mark) []edtypes.Mark { return withMark(marks, link) })
		block.Content = implode(units)
		return nil
	})
}

// UnsetLink снимает ссылку с выделения или со всей ссылки под курсором.
func (e *Editor) UnsetLink() error {
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		units := explode(block)
		from, to, ok := markRange(units, st.sel.ordered(), edtypes.LinkMark)
		if !ok {
			return nil
		}
		applyMark(units[from:to], func(marks []edtypes.Mark) []edtypes.Mark { return withoutMark(marks, edtypes.LinkMark) })
		block.Content = implode(units)
		return nil
	})
}

// AddLink запрашивает адрес у LinkPrompter. Отмена ничего не меняет,
// пустой адрес снимает ссылку, иначе ссылка ставится на выделение.
func (e *Editor) AddLink() error {
	if e.prompter == nil {
		return nil
	}
	url, ok := e.prompter.PromptLink(e.activeLink())
	if !ok {
		return nil
	}
	if url == "" {
		return e.UnsetLink()
	}
	return e.SetLink(url)
}

func (e *Editor) activeLink() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	block := nodeAt(e.doc, e.sel.Path)
	if block == nil {
		return ""
	}
	st := &state{sel: e.sel, storedMarks: e.storedMarks}
	for _, m := range st.currentMarks(explode(block)) {
		if m.Type == edtypes.LinkMark {
			return m.Href
		}
	}
	return ""
}

// currentMarks метки для следующего ввода: сохраненные либо метки символа перед курсором.
func (st *state) currentMarks(units []unit) []edtypes.Mark {
	if st.storedMarks != nil {
		return st.storedMarks
	}
	pos := st.sel.ordered().From
	switch {
	case pos > 0 && pos <= len(units) && units[pos-1].isText():
		return units[pos-1].marks
	case pos < len(units) && units[pos].isText():
		return units[pos].marks
	}
	return nil
}

// markRange диапазон, к которому применяется метка: выделение, либо при пустом
// выделении непрерывный отрезок с этой меткой вокруг курсора.
func markRange(units []unit, sel Selection, t edtypes.MarkType) (int, int, bool) {
	if !sel.Empty() {
		return sel.From, sel.To, true
	}
	pos := sel.From
	var anchor int
	switch {
	case pos > 0 && hasMark(units[pos-1].marks, t):
		anchor = pos - 1
	case pos < len(units) && hasMark(units[pos].marks, t):
		anchor = pos
	default:
		return 0, 0, false
	}

	target, _ := markOf(units[anchor].marks, t)
	same := func(u unit) bool {
		m, ok := markOf(u.marks, t)
		return ok && m == target
	}
	from, to := anchor, anchor+1
	for from > 0 && same(units[from-1]) {
		from--
	}
	for to < len(units) && same(units[to]) {
		to++
	}
	return from, to, true
}

func applyMark(units []unit, f func([]edtypes.Mark) []edtypes.Mark) {
	for i := range units {
		if units[i].isText() {
			units[i].marks = f(units[i].marks)
		}
	}
}

func rangeHasMark(units []unit, t edtypes.MarkType) bool {
	found := false
	for _, u := range units {
		if !u.isText() {
			continue
		}
		if !hasMark(u.marks, t) {
			return false
		}
		found = true
	}
	return found
}

func hasMark(marks []edtypes.Mark, t edtypes.MarkType) bool {
	_, ok := markOf(marks, t)
	return ok
}

func markOf(marks []edtypes.Mark, t edtypes.MarkType) (edtypes.Mark, bool) {
	for _, m := range marks {
		if m.Type == t {
			return m, true
		}
	}
	return edtypes.Mark{}, false
}

func withMark(marks []edtypes.Mark, m edtypes.Mark) []edtypes.Mark {
	return edtypes.SortMarks(append(slices.Clone(marks), m))
}

// withoutMark никогда не возвращает nil, чтобы пустой набор отличался от отсутствия сохраненных меток.
func withoutMark(marks []edtypes.Mark, t edtypes.MarkType) []edtypes.Mark {
	res := make([]edtypes.Mark, 0, len(marks))
	for _, m := range marks {
		if m.Type != t {
			res = append(res, m)
		}
	}
	return res
}
