package shell

import (
	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
)

// IsActive состояние кнопки панели инструментов: метка на выделении или тип блока под курсором.
// Для heading учитывается attrs["level"], для codeBlock attrs["language"].
func (e *Editor) IsActive(name string, attrs map[string]any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	block := nodeAt(e.doc, e.sel.Path)
	if block == nil {
		return false
	}

	if mt, ok := edtypes.ParseMarkType(name); ok {
		sel := e.sel.ordered()
		units := explode(block)
		if sel.Empty() {
			st := &state{sel: e.sel, storedMarks: e.storedMarks}
			return hasMark(st.currentMarks(units), mt)
		}
		return rangeHasMark(units[sel.From:sel.To], mt)
	}

	nt, ok := edtypes.ParseNodeType(name)
	if !ok {
		return false
	}
	switch nt {
	case edtypes.ParagraphNode:
		return block.Type == nt
	case edtypes.HeadingNode:
		if block.Type != nt {
			return false
		}
		level, ok := attrInt(attrs["level"])
		return !ok || level == block.Attrs.Level
	case edtypes.CodeBlockNode:
		if block.Type != nt {
			return false
		}
		lang, ok := attrs["language"].(string)
		return !ok || lang == block.Attrs.Language
	case edtypes.BulletListNode, edtypes.OrderedListNode:
		_, list := ancestor(e.doc, e.sel.Path, edtypes.BulletListNode, edtypes.OrderedListNode)
		return list != nil && list.Type == nt
	case edtypes.BlockquoteNode, edtypes.ListItemNode:
		_, n := ancestor(e.doc, e.sel.Path, nt)
		return n != nil
	}
	return false
}

func attrInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
