// Пакет shell реализует оболочку редактора: документ с выделением, команды форматирования,
// историю правок, перехват вставки изображений и представление блока кода.
// Все изменения документа выполняются под одним мьютексом и последовательны, как обработчики событий в браузере.
//
// Основные возможности:
//   - Команды форматирования текста и блоков, отмена и повтор.
//   - Управляемое содержимое: SetContent не вызывает OnChange, любое изменение документа вызывает его один раз.
//   - Перехват вставки изображений с параллельной загрузкой и уведомлениями.
//   - Представление блока кода с выбором языка и копированием в буфер обмена.
package shell

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aisa-it/pencraft/internal/pencraft/editor"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
)

const DefaultPlaceholder = "Start writing..."

var (
	ErrClosed          = errors.New("editor closed")
	ErrInvalidDocument = errors.New("invalid document")
	ErrNoSelection     = errors.New("selection does not point to a text block")
	ErrNotCodeBlock    = errors.New("node is not a code block")
	ErrUnknownLanguage = errors.New("unknown code block language")
	ErrNoUploader      = errors.New("image uploads are not configured")
)

// ImageUploader сервис загрузки изображений, uploads.Service удовлетворяет интерфейсу.
type ImageUploader interface {
	UploadImage(ctx context.Context, f uploads.File) (*uploads.Result, error)
}

// LinkPrompter запрашивает адрес ссылки. ok=false означает отмену.
type LinkPrompter interface {
	PromptLink(current string) (url string, ok bool)
}

type LinkPrompterFunc func(current string) (string, bool)

func (f LinkPrompterFunc) PromptLink(current string) (string, bool) { return f(current) }

type Options struct {
	Content     string
	Placeholder string
	OnChange    func(html string)
	CodeBlock   *editor.CodeBlockOptions

	Uploader      ImageUploader
	Notifier      Notifier
	LinkPrompter  LinkPrompter
	Clipboard     Clipboard
	Clock         utils.Clock
	CodeBlockView CodeBlockViewFactory

	// Время жизни редактора, отмена прекращает незавершенные загрузки.
	Context context.Context
}

type Editor struct {
	mu          sync.Mutex
	schema      *editor.Schema
	doc         *edtypes.Node
	sel         Selection
	storedMarks []edtypes.Mark
	history     history
	onChange    func(html string)
	placeholder string

	uploader  ImageUploader
	notifier  Notifier
	prompter  LinkPrompter
	clipboard Clipboard
	clock     utils.Clock
	viewFunc  CodeBlockViewFactory
	views     map[string]CodeBlockControls

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

func New(opts Options) (*Editor, error) {
	schema := editor.DefaultSchema
	if opts.CodeBlock != nil {
		schema = editor.NewSchema(*opts.CodeBlock)
	}

	doc, err := schema.ParseHTML(strings.NewReader(opts.Content))
	if err != nil {
		return nil, err
	}

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}

	e := &Editor{
		schema:      schema,
		doc:         doc,
		onChange:    opts.OnChange,
		placeholder: opts.Placeholder,
		uploader:    opts.Uploader,
		notifier:    opts.Notifier,
		prompter:    opts.LinkPrompter,
		clipboard:   opts.Clipboard,
		clock:       opts.Clock,
		viewFunc:    opts.CodeBlockView,
		views:       make(map[string]CodeBlockControls),
	}
	e.ctx, e.cancel = context.WithCancel(parent)
	e.sel = fixSelection(doc, Selection{})

	if e.placeholder == "" {
		e.placeholder = DefaultPlaceholder
	}
	if e.notifier == nil {
		e.notifier = discardNotifier{}
	}
	if e.clipboard == nil {
		e.clipboard = &MemoryClipboard{}
	}
	if e.clock == nil {
		e.clock = utils.RealClock
	}
	if e.viewFunc == nil {
		e.viewFunc = NewCodeBlockView
	}
	return e, nil
}

// state изменяемая копия документа внутри одной транзакции.
type state struct {
	doc         *edtypes.Node
	sel         Selection
	storedMarks []edtypes.Mark
	keepMarks   bool
}

func (st *state) block() *edtypes.Node {
	return nodeAt(st.doc, st.sel.Path)
}

// update выполняет транзакцию над копией документа. Если документ изменился,
// предыдущая версия уходит в историю и вызывается OnChange. Обработчик вызывается
// под блокировкой редактора и не должен обращаться к нему.
func (e *Editor) update(fn func(st *state) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	st := &state{doc: e.doc.Clone(), sel: e.sel.clone(), storedMarks: e.storedMarks}
	if err := fn(st); err != nil {
		return err
	}
	st.doc.Content = nonEmpty(st.doc.Content)
	st.doc.Normalize()
	st.sel = fixSelection(st.doc, st.sel)

	if !st.keepMarks {
		st.storedMarks = nil
	}
	e.storedMarks = st.storedMarks

	if st.doc.Equal(e.doc) {
		e.sel = st.sel
		return nil
	}
	e.history.push(snapshot{doc: e.doc, sel: e.sel})
	e.doc, e.sel = st.doc, st.sel
	e.emit()
	return nil
}

func (e *Editor) emit() {
	if e.onChange != nil {
		e.onChange(e.schema.RenderHTML(e.doc))
	}
}

func nonEmpty(blocks []*edtypes.Node) []*edtypes.Node {
	if len(blocks) == 0 {
		return []*edtypes.Node{edtypes.Paragraph()}
	}
	return blocks
}

// SetContent заменяет документ без вызова OnChange и сбрасывает историю.
func (e *Editor) SetContent(html string) error {
	doc, err := e.schema.ParseHTML(strings.NewReader(html))
	if err != nil {
		return err
	}
	return e.SetDocument(doc)
}

// SetDocument заменяет документ готовым деревом, например разобранным из TipTap JSON.
// Как и SetContent, не вызывает OnChange.
func (e *Editor) SetDocument(doc *edtypes.Node) error {
	if doc == nil || doc.Type != edtypes.DocNode {
		return ErrInvalidDocument
	}
	doc = doc.Clone()
	doc.Content = nonEmpty(doc.Content)
	doc.Normalize()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.doc = doc
	e.sel = fixSelection(doc, Selection{})
	e.storedMarks = nil
	e.history = history{}
	clear(e.views)
	return nil
}

// HTML текущее содержимое в формате редактора.
func (e *Editor) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schema.RenderHTML(e.doc)
}

// Content синоним HTML для управляемого поля.
func (e *Editor) Content() string {
	return e.HTML()
}

// Document копия документа.
func (e *Editor) Document() *edtypes.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

func (e *Editor) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.clone()
}

func (e *Editor) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.IsEmpty()
}

func (e *Editor) Placeholder() string {
	return e.placeholder
}

// Select устанавливает выделение. Путь должен указывать на текстовый блок.
func (e *Editor) Select(sel Selection) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	block := nodeAt(e.doc, sel.Path)
	if block == nil || !block.IsTextblock() {
		return ErrNoSelection
	}
	e.sel = fixSelection(e.doc, sel.clone())
	e.storedMarks = nil
	return nil
}

// Undo откатывает последнее изменение документа.
func (e *Editor) Undo() bool {
	return e.travel(e.history.undoStep)
}

func (e *Editor) Redo() bool {
	return e.travel(e.history.redoStep)
}

func (e *Editor) travel(step func(snapshot) (snapshot, bool)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	s, ok := step(snapshot{doc: e.doc, sel: e.sel})
	if !ok {
		return false
	}
	e.doc, e.sel = s.doc, s.sel
	e.storedMarks = nil
	e.emit()
	return true
}

func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history.undo) > 0
}

func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history.redo) > 0
}

// Close отменяет незавершенные загрузки. После закрытия команды возвращают ErrClosed.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
}

// Wait ожидает завершения всех запущенных загрузок.
func (e *Editor) Wait() {
	e.wg.Wait()
}
