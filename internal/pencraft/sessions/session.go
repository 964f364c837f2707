package sessions

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/autosave"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/shell"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/gofrs/uuid"
)

// eventBuffer размер очереди событий одного подписчика.
const eventBuffer = 64

var (
	ErrTitleRequired = errors.New("title is required")
	ErrContentEmpty  = errors.New("content is empty")
)

// Meta сведения о статье, редактируемые вне документа.
type Meta struct {
	Title      string         `json:"title"`
	Category   types.Category `json:"category"`
	Tags       []string       `json:"tags"`
	CoverImage string         `json:"cover_image"`
}

// MetaUpdate частичное обновление Meta, nil поля не меняются.
type MetaUpdate struct {
	Title      *string         `json:"title,omitempty"`
	Category   *types.Category `json:"category,omitempty" validate:"omitempty,category"`
	Tags       *[]string       `json:"tags,omitempty"`
	CoverImage *string         `json:"cover_image,omitempty"`
}

type EventType string

const (
	EventChange       EventType = "change"
	EventNotification EventType = "notification"
	EventStatus       EventType = "status"
	EventMeta         EventType = "meta"
	EventSaved        EventType = "saved"
	EventPublished    EventType = "published"
)

type Event struct {
	Type         EventType           `json:"type"`
	HTML         string              `json:"html,omitempty"`
	Notification *shell.Notification `json:"notification,omitempty"`
	Status       autosave.Status     `json:"status,omitempty"`
	Meta         *Meta               `json:"meta,omitempty"`
	WritingID    *uuid.UUID          `json:"writing_id,omitempty"`
}

// Info состояние сессии для клиента.
type Info struct {
	ID          uuid.UUID       `json:"id"`
	WritingID   *uuid.UUID      `json:"writing_id,omitempty"`
	IsDraft     bool            `json:"is_draft"`
	Meta        Meta            `json:"meta"`
	HTML        string          `json:"html"`
	Empty       bool            `json:"empty"`
	Placeholder string          `json:"placeholder"`
	Status      autosave.Status `json:"status,omitempty"`
	CanUndo     bool            `json:"can_undo"`
	CanRedo     bool            `json:"can_redo"`
	LastActive  time.Time       `json:"last_active"`
}

type linkAnswer struct {
	url string
	ok  bool
}

// Session сессия редактирования одной статьи.
type Session struct {
	id        uuid.UUID
	manager   *Manager
	editor    *shell.Editor
	autosave  *autosave.Debouncer
	clipboard shell.Clipboard

	mu         sync.Mutex
	meta       Meta
	writingID  uuid.UUID
	isDraft    bool
	status     autosave.Status
	lastActive time.Time
	subs       map[uint64]chan Event
	nextSub    uint64
	closed     bool

	saveMu sync.Mutex

	linkMu sync.Mutex
	link   linkAnswer
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Editor оболочка редактора сессии.
func (s *Session) Editor() *shell.Editor {
	return s.editor
}

// Clipboard буфер обмена сессии, в него копируют блоки кода.
func (s *Session) Clipboard() shell.Clipboard {
	return s.clipboard
}

func (s *Session) WritingID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writingID
}

func (s *Session) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metaCopy()
}

func (s *Session) metaCopy() Meta {
	m := s.meta
	m.Tags = slices.Clone(s.meta.Tags)
	return m
}

func (s *Session) Info() Info {
	html := s.editor.HTML()
	info := Info{
		ID:          s.id,
		HTML:        html,
		Empty:       s.editor.IsEmpty(),
		Placeholder: s.editor.Placeholder(),
		CanUndo:     s.editor.CanUndo(),
		CanRedo:     s.editor.CanRedo(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writingID != uuid.Nil {
		id := s.writingID
		info.WritingID = &id
	}
	info.IsDraft = s.isDraft
	info.Meta = s.metaCopy()
	info.Status = s.status
	info.LastActive = s.lastActive
	return info
}

// UpdateMeta меняет сведения о статье и запускает автосохранение.
func (s *Session) UpdateMeta(upd MetaUpdate) error {
	if upd.Category != nil && !upd.Category.IsValid() {
		return dao.ErrInvalidCategory
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return shell.ErrClosed
	}
	if upd.Title != nil {
		s.meta.Title = *upd.Title
	}
	if upd.Category != nil {
		s.meta.Category = *upd.Category
	}
	if upd.Tags != nil {
		s.meta.Tags = utils.NormalizeTags(*upd.Tags)
	}
	if upd.CoverImage != nil {
		s.meta.CoverImage = strings.TrimSpace(*upd.CoverImage)
	}
	meta := s.metaCopy()
	s.lastActive = s.manager.clock.Now()
	s.mu.Unlock()

	s.broadcast(Event{Type: EventMeta, Meta: &meta})
	s.autosave.Trigger()
	return nil
}

// AddLink отвечает на запрос адреса ссылки. ok=false означает отмену диалога.
func (s *Session) AddLink(url string, ok bool) error {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()
	s.link = linkAnswer{url: url, ok: ok}
	return s.editor.AddLink()
}

// PromptLink реализует shell.LinkPrompter ответом, переданным в AddLink.
func (s *Session) PromptLink(string) (string, bool) {
	return s.link.url, s.link.ok
}

// Subscribe подписывает на события сессии. Возвращаемая функция отменяет подписку.
// После закрытия сессии канал закрывается.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) broadcast(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("Drop session event", "session", s.id, "subscriber", id, "type", ev.Type)
		}
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.manager.clock.Now()
	s.mu.Unlock()
}

func (s *Session) idle(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) == 0 && now.Sub(s.lastActive) > timeout
}

func (s *Session) onChange(html string) {
	s.touch()
	s.broadcast(Event{Type: EventChange, HTML: html})
	s.autosave.Trigger()
}

func (s *Session) onStatus(st autosave.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	s.broadcast(Event{Type: EventStatus, Status: st})
}

func (s *Session) notify(n shell.Notification) {
	s.broadcast(Event{Type: EventNotification, Notification: &n})
}

// snapshot статья из текущего состояния сессии.
func (s *Session) snapshot() dao.Writing {
	content := s.editor.HTML()
	if s.editor.IsEmpty() {
		content = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return dao.Writing{
		ID:         s.writingID,
		Title:      s.meta.Title,
		Content:    types.NewRedactorHTML(content),
		CoverImage: s.meta.CoverImage,
		Category:   s.meta.Category,
		Tags:       types.TagList(slices.Clone(s.meta.Tags)),
		IsDraft:    s.isDraft,
	}
}

func checkWriting(w dao.Writing) error {
	if strings.TrimSpace(w.Title) == "" {
		return ErrTitleRequired
	}
	if w.Content.IsEmpty() {
		return ErrContentEmpty
	}
	return nil
}

// autosaveWriting сохраняет статью, если заданы заголовок и текст.
// Статус публикации не меняется.
func (s *Session) autosaveWriting(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	w := s.snapshot()
	if checkWriting(w) != nil {
		return autosave.ErrNothingToSave
	}
	return s.store(ctx, &w, EventSaved)
}

// SaveDraft сохраняет статью как черновик.
func (s *Session) SaveDraft(ctx context.Context) (*dao.Writing, error) {
	return s.saveAs(ctx, true, EventSaved)
}

// Publish сохраняет и публикует статью.
func (s *Session) Publish(ctx context.Context) (*dao.Writing, error) {
	return s.saveAs(ctx, false, EventPublished)
}

func (s *Session) saveAs(ctx context.Context, isDraft bool, ev EventType) (*dao.Writing, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	w := s.snapshot()
	if err := checkWriting(w); err != nil {
		return nil, err
	}
	w.IsDraft = isDraft
	if err := s.store(ctx, &w, ev); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Session) store(ctx context.Context, w *dao.Writing, ev EventType) error {
	if err := dao.SaveWriting(s.manager.db.WithContext(ctx), w); err != nil {
		return err
	}

	s.mu.Lock()
	s.writingID = w.ID
	s.isDraft = w.IsDraft
	s.mu.Unlock()

	id := w.ID
	s.broadcast(Event{Type: ev, WritingID: &id})
	return nil
}

// close сохраняет ожидающие изменения, останавливает редактор и закрывает подписки.
func (s *Session) close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.autosave.Flush(ctx)
	s.autosave.Stop()
	s.editor.Close()
	s.editor.Wait()

	s.mu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()
	return err
}
