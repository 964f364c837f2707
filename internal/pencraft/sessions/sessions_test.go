package sessions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/autosave"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/shell"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubUploader struct{}

func (stubUploader) UploadImage(_ context.Context, f uploads.File) (*uploads.Result, error) {
	return &uploads.Result{Path: "images/" + f.Name, URL: "/uploads/images/" + f.Name, FileSize: f.Size, FileType: f.Type}, nil
}

func newTestManager(t *testing.T) (*Manager, *gorm.DB, *utils.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.Must(uuid.NewV4()))), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	clock := utils.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	m := NewManager(db, stubUploader{}, WithClock(clock))
	t.Cleanup(func() { m.Shutdown(context.Background()) })
	return m, db, clock
}

func countWritings(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&dao.Writing{}).Count(&n).Error)
	return n
}

func drain(ch <-chan Event) []Event {
	var res []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return res
			}
			res = append(res, ev)
		default:
			return res
		}
	}
}

func ofType(events []Event, typ EventType) []Event {
	var res []Event
	for _, ev := range events {
		if ev.Type == typ {
			res = append(res, ev)
		}
	}
	return res
}

func ptr[T any](v T) *T { return &v }

func TestAutosaveRequiresTitleAndContent(t *testing.T) {
	m, db, clock := newTestManager(t)
	s, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)

	require.NoError(t, s.Editor().InsertText("Hello"))
	clock.Advance(autosave.DefaultWindow)
	assert.Zero(t, countWritings(t, db), "no title yet")
	assert.Equal(t, autosave.StatusIdle, s.Info().Status)

	require.NoError(t, s.UpdateMeta(MetaUpdate{Title: ptr("My story"), Tags: &[]string{" go ", ""}}))
	clock.Advance(autosave.DefaultWindow)
	require.EqualValues(t, 1, countWritings(t, db))
	require.NotEqual(t, uuid.Nil, s.WritingID())
	assert.Equal(t, autosave.StatusSaved, s.Info().Status)

	w, err := dao.GetWritingByID(db, s.WritingID())
	require.NoError(t, err)
	assert.True(t, w.IsDraft)
	assert.Equal(t, "My story", w.Title)
	assert.Equal(t, "<p>Hello</p>", w.Content.Body)
	assert.Equal(t, types.TagList{"go"}, w.Tags)

	require.NoError(t, s.Editor().InsertText(" world"))
	clock.Advance(autosave.DefaultWindow)
	assert.EqualValues(t, 1, countWritings(t, db), "second save updates the same writing")
	w, err = dao.GetWritingByID(db, s.WritingID())
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello world</p>", w.Content.Body)
}

func TestAutosaveDebounce(t *testing.T) {
	m, _, clock := newTestManager(t)
	s, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, s.UpdateMeta(MetaUpdate{Title: ptr("Burst")}))

	events, cancel := s.Subscribe()
	defer cancel()

	for _, ch := range strings.Split("typing", "") {
		require.NoError(t, s.Editor().InsertText(ch))
		clock.Advance(time.Second)
	}
	burst := drain(events)
	assert.Empty(t, ofType(burst, EventSaved))
	changes := ofType(burst, EventChange)
	require.Len(t, changes, 6, "one change event per keystroke")
	assert.Equal(t, "<p>t</p>", changes[0].HTML)
	assert.Equal(t, "<p>typing</p>", changes[5].HTML)

	clock.Advance(autosave.DefaultWindow)
	got := drain(events)
	assert.Len(t, ofType(got, EventSaved), 1)
	statuses := ofType(got, EventStatus)
	require.Len(t, statuses, 2)
	assert.Equal(t, autosave.StatusSaving, statuses[0].Status)
	assert.Equal(t, autosave.StatusSaved, statuses[1].Status)
}

func TestPublish(t *testing.T) {
	m, db, _ := newTestManager(t)
	s, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)

	_, err = s.Publish(context.Background())
	assert.ErrorIs(t, err, ErrTitleRequired)

	require.NoError(t, s.UpdateMeta(MetaUpdate{Title: ptr("Final Words"), Category: ptr(types.CategoryNovel)}))
	_, err = s.Publish(context.Background())
	assert.ErrorIs(t, err, ErrContentEmpty)

	require.NoError(t, s.Editor().InsertText("The end"))
	w, err := s.Publish(context.Background())
	require.NoError(t, err)
	assert.False(t, w.IsDraft)
	assert.Equal(t, "final-words", w.Slug)
	assert.Equal(t, types.CategoryNovel, w.Category)
	assert.False(t, s.Info().IsDraft)

	recent, err := dao.ListRecentWritings(db, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, w.ID, recent[0].ID)
}

func TestUpdateMetaInvalidCategory(t *testing.T) {
	m, _, _ := newTestManager(t)
	s, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)

	err = s.UpdateMeta(MetaUpdate{Category: ptr(types.Category("poem"))})
	assert.ErrorIs(t, err, dao.ErrInvalidCategory)
	assert.Equal(t, types.DefaultCategory, s.Meta().Category)
}

func TestOpenExistingWriting(t *testing.T) {
	m, db, _ := newTestManager(t)
	w := dao.Writing{
		Title:    "Stored",
		Content:  types.NewRedactorHTML(`<pre><code class="language-go">x := 1</code></pre>`),
		Category: types.CategoryReview,
		Tags:     types.TagList{"go"},
	}
	require.NoError(t, dao.SaveWriting(db, &w))

	s, err := m.Open(context.Background(), w.ID)
	require.NoError(t, err)
	info := s.Info()
	assert.Equal(t, w.ID, *info.WritingID)
	assert.False(t, info.IsDraft)
	assert.Equal(t, Meta{Title: "Stored", Category: types.CategoryReview, Tags: []string{"go"}}, info.Meta)
	assert.Equal(t, `<pre><code class="language-go">x := 1</code></pre>`, info.HTML)

	again, err := m.Open(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, 1, m.Count())

	_, err = m.Open(context.Background(), dao.GenUUID())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOpenSameWritingConcurrently(t *testing.T) {
	m, db, _ := newTestManager(t)
	w := dao.Writing{Title: "Shared", Content: types.NewRedactorHTML("<p>x</p>")}
	require.NoError(t, dao.SaveWriting(db, &w))

	const n = 4
	opened := make([]*Session, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Open(context.Background(), w.ID)
			assert.NoError(t, err)
			opened[i] = s
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, m.Count())
	for _, s := range opened {
		assert.Same(t, opened[0], s)
	}
}

func TestCloseFlushesPendingChanges(t *testing.T) {
	m, db, _ := newTestManager(t)
	s, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, s.UpdateMeta(MetaUpdate{Title: ptr("Unsaved")}))
	require.NoError(t, s.Editor().InsertText("text"))

	events, _ := s.Subscribe()
	require.NoError(t, m.Close(context.Background(), s.ID()))
	assert.EqualValues(t, 1, countWritings(t, db))

	for range events {
	}
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.Editor().InsertText("x"), shell.ErrClosed)
	assert.ErrorIs(t, m.Close(context.Background(), s.ID()), ErrSessionNotFound)
}

func TestCloseIdle(t *testing.T) {
	m, _, clock := newTestManager(t)
	idle, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)
	watched, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)
	_, cancel := watched.Subscribe()
	defer cancel()

	clock.Advance(DefaultIdleTimeout / 2)
	assert.Zero(t, m.CloseIdle(context.Background()))

	clock.Advance(DefaultIdleTimeout)
	assert.Equal(t, 1, m.CloseIdle(context.Background()))

	_, err = m.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(watched.ID())
	assert.NoError(t, err)
}

func TestExec(t *testing.T) {
	m, _, _ := newTestManager(t)
	s, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, s.Editor().InsertText("hello"))
	require.NoError(t, s.Editor().Select(shell.Selection{Path: []int{0}, From: 0, To: 5}))

	tests := []struct {
		name string
		args CommandArgs
		want string
	}{
		{"toggleBold", CommandArgs{}, "<p><strong>hello</strong></p>"},
		{"toggleBold", CommandArgs{}, "<p>hello</p>"},
		{"toggleHeading", CommandArgs{Level: 2}, "<h2>hello</h2>"},
		{"toggleCodeBlock", CommandArgs{Language: "rust"}, `<pre><code class="language-rust">hello</code></pre>`},
		{"toggleCodeBlock", CommandArgs{}, "<p>hello</p>"},
		{"undo", CommandArgs{}, `<pre><code class="language-rust">hello</code></pre>`},
		{"redo", CommandArgs{}, "<p>hello</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Exec(tt.name, tt.args))
			assert.Equal(t, tt.want, s.Editor().HTML())
		})
	}

	assert.ErrorIs(t, s.Exec("dropTable", CommandArgs{}), ErrUnknownCommand)
	assert.Contains(t, Commands(), "toggleOrderedList")
}

func TestAddLink(t *testing.T) {
	m, _, _ := newTestManager(t)
	s, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, s.Editor().InsertText("site"))
	require.NoError(t, s.Editor().Select(shell.Selection{Path: []int{0}, From: 0, To: 4}))

	require.NoError(t, s.AddLink("https://example.com", false))
	assert.Equal(t, "<p>site</p>", s.Editor().HTML())

	require.NoError(t, s.AddLink("https://example.com", true))
	assert.Contains(t, s.Editor().HTML(), `href="https://example.com"`)

	require.NoError(t, s.AddLink("", true))
	assert.Equal(t, "<p>site</p>", s.Editor().HTML())
}

func TestNotificationsBroadcast(t *testing.T) {
	m, _, _ := newTestManager(t)
	s, err := m.Open(context.Background(), uuid.Nil)
	require.NoError(t, err)
	events, cancel := s.Subscribe()
	defer cancel()

	err = s.Editor().AddImage(context.Background(), uploads.File{Name: "a.txt", Type: "text/plain", Size: 3, Body: strings.NewReader("abc")})
	require.Error(t, err)

	err = s.Editor().AddImage(context.Background(), uploads.File{Name: "a.png", Type: "image/png", Size: 3, Body: strings.NewReader("abc")})
	require.NoError(t, err)
	assert.Contains(t, s.Editor().HTML(), `<img src="/uploads/images/a.png"`)

	var kinds []shell.NotificationKind
	for _, ev := range ofType(drain(events), EventNotification) {
		kinds = append(kinds, ev.Notification.Kind)
	}
	assert.Equal(t, []shell.NotificationKind{shell.NotifyError, shell.NotifyInfo, shell.NotifySuccess}, kinds)
}
