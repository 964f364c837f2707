package shell

import "github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"

const historyDepth = 100

type snapshot struct {
	doc *edtypes.Node
	sel Selection
}

// history стеки отмены и повтора из снимков документа.
type history struct {
	undo []snapshot
	redo []snapshot
}

func (h *history) push(s snapshot) {
	h.undo = append(h.undo, s)
	if len(h.undo) > historyDepth {
		h.undo = h.undo[len(h.undo)-historyDepth:]
	}
	h.redo = nil
}

func (h *history) undoStep(current snapshot) (snapshot, bool) {
	if len(h.undo) == 0 {
		return snapshot{}, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return prev, true
}

func (h *history) redoStep(current snapshot) (snapshot, bool) {
	if len(h.redo) == 0 {
		return snapshot{}, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return next, true
}
