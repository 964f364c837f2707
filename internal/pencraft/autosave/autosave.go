// Пакет autosave откладывает сохранение черновика до паузы в правках.
//
// Основные возможности:
//   - Debouncer: каждое изменение перезапускает окно ожидания, сохранение выполняется после паузы.
//   - Принудительное сохранение ожидающих изменений через Flush.
//   - Статусы сохранения для отображения пользователю.
//   - Счетчик автосохранений для prometheus.
package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultWindow пауза в правках перед автосохранением.
const DefaultWindow = 5 * time.Second

type Status string

const (
	StatusIdle   Status = ""
	StatusSaving Status = "Saving..."
	StatusSaved  Status = "Draft saved"
	StatusFailed Status = "Auto-save failed"
)

var autosavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pencraft_autosaves_total",
	Help: "Total count of draft autosaves by result",
}, []string{"result"})

// Collectors метрики пакета для регистрации.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{autosavesTotal}
}

// ErrNothingToSave возвращается SaveFunc, когда сохранять пока нечего. Статус сбрасывается в StatusIdle.
var ErrNothingToSave = errors.New("nothing to save")

type SaveFunc func(ctx context.Context) error

type Debouncer struct {
	window   time.Duration
	save     SaveFunc
	clock    utils.Clock
	onStatus func(Status)

	mu      sync.Mutex
	timer   utils.Timer
	gen     uint64
	pending bool
	stopped bool

	saving sync.Mutex
}

type Option func(*Debouncer)

func WithWindow(d time.Duration) Option {
	return func(db *Debouncer) { db.window = d }
}

func WithClock(c utils.Clock) Option {
	return func(db *Debouncer) { db.clock = c }
}

// WithStatus обработчик смены статуса сохранения.
func WithStatus(f func(Status)) Option {
	return func(db *Debouncer) { db.onStatus = f }
}

func NewDebouncer(save SaveFunc, opts ...Option) *Debouncer {
	d := &Debouncer{
		window: DefaultWindow,
		save:   save,
		clock:  utils.RealClock,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger отмечает изменение и перезапускает окно ожидания.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	if err := d.run(context.Background()); err != nil {
		slog.Error("Autosave", "err", err)
	}
}

// Flush сохраняет немедленно, если есть несохраненные изменения.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return nil
	}
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	return d.run(ctx)
}

// Pending true, если есть изменения, ожидающие сохранения.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop отменяет ожидающее сохранение, последующие Trigger игнорируются.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) run(ctx context.Context) error {
	d.saving.Lock()
	defer d.saving.Unlock()

	d.status(StatusSaving)
	err := d.save(ctx)
	if errors.Is(err, ErrNothingToSave) {
		autosavesTotal.WithLabelValues("skipped").Inc()
		d.status(StatusIdle)
		return nil
	}
	if err != nil {
		autosavesTotal.WithLabelValues("error").Inc()
		d.status(StatusFailed)
		return err
	}
	autosavesTotal.WithLabelValues("ok").Inc()
	d.status(StatusSaved)
	return nil
}

func (d *Debouncer) status(s Status) {
	if d.onStatus != nil {
		d.onStatus(s)
	}
}
