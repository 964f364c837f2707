// Пакет sessions управляет серверными сессиями редактирования статей.
// Сессия объединяет оболочку редактора, сведения о статье и автосохранение черновика.
//
// Основные возможности:
//   - Открытие сессии для новой или существующей статьи.
//   - Автосохранение после паузы в правках, если у статьи есть заголовок и текст.
//   - Сохранение черновика и публикация.
//   - Рассылка событий подписчикам (изменения, уведомления, статус сохранения).
//   - Закрытие простаивающих сессий по расписанию.
package sessions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/autosave"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/shell"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const DefaultIdleTimeout = 30 * time.Minute

var ErrSessionNotFound = errors.New("session not found")

var (
	sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pencraft_editing_sessions",
		Help: "Number of open editing sessions",
	})
	sessionsClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pencraft_editing_sessions_closed_total",
		Help: "Total count of closed editing sessions by reason",
	}, []string{"reason"})
)

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{sessionsActive, sessionsClosed}
}

type Manager struct {
	db       *gorm.DB
	uploader shell.ImageUploader

	clock           utils.Clock
	autosaveWindow  time.Duration
	idleTimeout     time.Duration
	systemClipboard bool

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

type Option func(*Manager)

func WithClock(c utils.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithAutosaveWindow(d time.Duration) Option {
	return func(m *Manager) { m.autosaveWindow = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

// WithSystemClipboard копирование блоков кода в системный буфер обмена вместо буфера сессии.
func WithSystemClipboard(enabled bool) Option {
	return func(m *Manager) { m.systemClipboard = enabled }
}

func NewManager(db *gorm.DB, uploader shell.ImageUploader, opts ...Option) *Manager {
	m := &Manager{
		db:             db,
		uploader:       uploader,
		clock:          utils.RealClock,
		autosaveWindow: autosave.DefaultWindow,
		idleTimeout:    DefaultIdleTimeout,
		sessions:       make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open открывает сессию. Для uuid.Nil создается новая статья-черновик, иначе статья загружается из базы.
// Если статья уже редактируется, возвращается существующая сессия.
func (m *Manager) Open(ctx context.Context, writingID uuid.UUID) (*Session, error) {
	s := &Session{
		id:      dao.GenUUID(),
		manager: m,
		isDraft: true,
		meta:    Meta{Category: types.DefaultCategory, Tags: []string{}},
		subs:    make(map[uint64]chan Event),
	}
	content := ""

	if writingID != uuid.Nil {
		if existing := m.byWriting(writingID); existing != nil {
			existing.touch()
			return existing, nil
		}

		w, err := dao.GetWritingByID(m.db.WithContext(ctx), writingID)
		if err != nil {
			return nil, err
		}
		s.writingID = w.ID
		s.isDraft = w.IsDraft
		s.meta = Meta{Title: w.Title, Category: w.Category, Tags: []string(w.Tags), CoverImage: w.CoverImage}
		if s.meta.Tags == nil {
			s.meta.Tags = []string{}
		}
		content = w.Content.Body
	}

	s.clipboard = &shell.MemoryClipboard{}
	if m.systemClipboard {
		s.clipboard = shell.SystemClipboard{}
	}
	s.autosave = autosave.NewDebouncer(s.autosaveWriting,
		autosave.WithWindow(m.autosaveWindow),
		autosave.WithClock(m.clock),
		autosave.WithStatus(s.onStatus),
	)

	ed, err := shell.New(shell.Options{
		Content:      content,
		OnChange:     s.onChange,
		Uploader:     m.uploader,
		Notifier:     shell.NotifierFunc(s.notify),
		LinkPrompter: s,
		Clipboard:    s.clipboard,
		Clock:        m.clock,
	})
	if err != nil {
		return nil, err
	}
	s.editor = ed
	s.lastActive = m.clock.Now()

	m.mu.Lock()
	if writingID != uuid.Nil {
		// Статья могла быть открыта параллельным запросом, пока загружалась из базы.
		if existing := m.findByWriting(writingID); existing != nil {
			m.mu.Unlock()
			s.autosave.Stop()
			ed.Close()
			existing.touch()
			return existing, nil
		}
	}
	m.sessions[s.id] = s
	m.mu.Unlock()
	sessionsActive.Inc()

	slog.Debug("Open editing session", "session", s.id, "writing", writingID)
	return s, nil
}

func (m *Manager) byWriting(writingID uuid.UUID) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findByWriting(writingID)
}

// findByWriting вызывается под m.mu.
func (m *Manager) findByWriting(writingID uuid.UUID) *Session {
	for _, s := range m.sessions {
		if s.WritingID() == writingID {
			return s
		}
	}
	return nil
}

// Get возвращает открытую сессию и отмечает активность.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Count число открытых сессий.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close сохраняет ожидающие изменения и закрывает сессию.
func (m *Manager) Close(ctx context.Context, id uuid.UUID) error {
	s := m.detach(id)
	if s == nil {
		return ErrSessionNotFound
	}
	sessionsClosed.WithLabelValues("client").Inc()
	return s.close(ctx)
}

func (m *Manager) detach(id uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	delete(m.sessions, id)
	sessionsActive.Dec()
	return s
}

// CloseIdle закрывает сессии без подписчиков, неактивные дольше таймаута. Возвращает число закрытых.
func (m *Manager) CloseIdle(ctx context.Context) int {
	now := m.clock.Now()

	m.mu.RLock()
	var idle []uuid.UUID
	for id, s := range m.sessions {
		if s.idle(now, m.idleTimeout) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range idle {
		s := m.detach(id)
		if s == nil {
			continue
		}
		if err := s.close(ctx); err != nil {
			slog.Error("Close idle session", "session", id, "err", err)
		}
		sessionsClosed.WithLabelValues("idle").Inc()
		closed++
	}
	if closed > 0 {
		slog.Info("Closed idle editing sessions", "count", closed)
	}
	return closed
}

// Shutdown закрывает все сессии, сохраняя ожидающие изменения.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
		sessionsActive.Dec()
	}
	m.mu.Unlock()

	for _, s := range all {
		if err := s.close(ctx); err != nil {
			slog.Error("Close session on shutdown", "session", s.id, "err", err)
		}
		sessionsClosed.WithLabelValues("shutdown").Inc()
	}
}

// Contents HTML документов всех открытых сессий.
func (m *Manager) Contents() []string {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	res := make([]string, 0, len(all))
	for _, s := range all {
		res = append(res, s.editor.HTML())
	}
	return res
}
