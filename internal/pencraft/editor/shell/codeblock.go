package shell

import (
	"slices"
	"sync"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/editor"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
)

// CopiedResetDelay время показа отметки о копировании.
const CopiedResetDelay = 2 * time.Second

// CodeBlockControls элементы управления блоком кода: выбор языка и копирование.
type CodeBlockControls interface {
	Language() string
	Languages() []editor.Language
	SetLanguage(id string) error
	Copy() error
	Copied() bool
}

// CodeBlockViewFactory создает представление блока кода по пути в документе.
type CodeBlockViewFactory func(e *Editor, path []int) CodeBlockControls

// CodeBlockView возвращает представление блока кода. Представление для одного пути
// переиспользуется, пока содержимое не заменено через SetContent.
func (e *Editor) CodeBlockView(path []int) (CodeBlockControls, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if n := nodeAt(e.doc, path); n == nil || n.Type != edtypes.CodeBlockNode {
		return nil, ErrNotCodeBlock
	}

	key := pathKey(path)
	if v, ok := e.views[key]; ok {
		return v, nil
	}
	v := e.viewFunc(e, slices.Clone(path))
	e.views[key] = v
	return v, nil
}

// codeBlockView стандартное представление блока кода.
type codeBlockView struct {
	editor *Editor
	path   []int

	mu     sync.Mutex
	copied bool
	timer  utils.Timer
}

func NewCodeBlockView(e *Editor, path []int) CodeBlockControls {
	return &codeBlockView{editor: e, path: path}
}

func (v *codeBlockView) node() (*edtypes.Node, error) {
	v.editor.mu.Lock()
	defer v.editor.mu.Unlock()
	n := nodeAt(v.editor.doc, v.path)
	if n == nil || n.Type != edtypes.CodeBlockNode {
		return nil, ErrNotCodeBlock
	}
	return n.Clone(), nil
}

func (v *codeBlockView) Language() string {
	n, err := v.node()
	if err != nil {
		return ""
	}
	return n.Attrs.Language
}

func (v *codeBlockView) Languages() []editor.Language {
	return slices.Clone(editor.Languages)
}

// SetLanguage меняет атрибут языка узла. Языки вне списка отклоняются.
func (v *codeBlockView) SetLanguage(id string) error {
	if !editor.IsSupportedLanguage(id) {
		return ErrUnknownLanguage
	}
	return v.editor.update(func(st *state) error {
		n := nodeAt(st.doc, v.path)
		if n == nil || n.Type != edtypes.CodeBlockNode {
			return ErrNotCodeBlock
		}
		n.Attrs.Language = id
		return nil
	})
}

// Copy записывает текст блока в буфер обмена и показывает отметку на 2 секунды.
func (v *codeBlockView) Copy() error {
	n, err := v.node()
	if err != nil {
		return err
	}
	if err := v.editor.clipboard.WriteText(n.TextContent()); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.copied = true
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = v.editor.clock.AfterFunc(CopiedResetDelay, func() {
		v.mu.Lock()
		v.copied = false
		v.mu.Unlock()
	})
	return nil
}

func (v *codeBlockView) Copied() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.copied
}
