package dao

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.Must(uuid.NewV4()))), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func saveTestWriting(t *testing.T, db *gorm.DB, w Writing) *Writing {
	t.Helper()
	require.NoError(t, SaveWriting(db, &w))
	return &w
}

func TestSaveWriting(t *testing.T) {
	db := newTestDB(t)

	w := saveTestWriting(t, db, Writing{
		Title:   "  Hello World!  ",
		Content: types.NewRedactorHTML(`<p>one two three</p><script>alert(1)</script>`),
		Tags:    types.TagList{" go ", "", "rust", "go"},
	})

	assert.NotEqual(t, uuid.Nil, w.ID)
	assert.Equal(t, "Hello World!", w.Title)
	assert.Equal(t, "<p>one two three</p>", w.Content.Body)
	assert.Equal(t, types.TagList{"go", "rust"}, w.Tags)
	assert.Equal(t, types.DefaultCategory, w.Category)
	assert.Equal(t, "hello-world", w.Slug)
	assert.Equal(t, 3, w.WordCount)
	assert.Equal(t, 1, w.ReadingTime)
	assert.False(t, w.CreatedAt.IsZero())

	t.Run("update", func(t *testing.T) {
		created := w.CreatedAt
		w.Title = "Changed"
		w.IsDraft = true
		w.Tags = types.TagList{"python"}
		require.NoError(t, SaveWriting(db, w))

		got, err := GetWritingByID(db, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "Changed", got.Title)
		assert.True(t, got.IsDraft)
		assert.Equal(t, types.TagList{"python"}, got.Tags)
		assert.WithinDuration(t, created, got.CreatedAt, time.Second)

		var tags []string
		require.NoError(t, db.Model(&WritingTag{}).Where("writing_id = ?", w.ID).Pluck("tag", &tags).Error)
		assert.Equal(t, []string{"python"}, tags)
	})

	t.Run("update missing", func(t *testing.T) {
		err := SaveWriting(db, &Writing{ID: GenUUID(), Title: "x"})
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	})

	t.Run("invalid category", func(t *testing.T) {
		err := SaveWriting(db, &Writing{Title: "x", Category: "poem"})
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("draft has no slug", func(t *testing.T) {
		d := saveTestWriting(t, db, Writing{Title: "Draft", IsDraft: true})
		assert.Empty(t, d.Slug)
	})
}

func TestListings(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 8 {
		w := saveTestWriting(t, db, Writing{
			Title:    fmt.Sprintf("Post %d", i),
			Category: []types.Category{types.CategoryNovel, types.CategoryReview}[i%2],
			Tags:     types.TagList{fmt.Sprintf("t%d", i%3)},
			IsDraft:  i == 7,
		})
		require.NoError(t, db.Model(&Writing{}).Where("id = ?", w.ID).Update("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	recent, err := ListRecentWritings(db, 0)
	require.NoError(t, err)
	require.Len(t, recent, DefaultRecentLimit)
	assert.Equal(t, "Post 6", recent[0].Title)

	drafts, err := ListUserWritings(db, true)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Post 7", drafts[0].Title)

	published, err := ListUserWritings(db, false)
	require.NoError(t, err)
	assert.Len(t, published, 7)

	novels, err := ListWritingsByCategory(db, types.CategoryNovel, 0)
	require.NoError(t, err)
	assert.Len(t, novels, 4)

	limited, err := ListWritingsByCategory(db, types.CategoryReview, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	tagged, err := ListWritingsByTag(db, "t1", 0)
	require.NoError(t, err)
	assert.Len(t, tagged, 2, "post 7 is a draft")

	tags, err := ListTags(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"t0", "t1", "t2"}, tags)
}

func TestSearchWritings(t *testing.T) {
	db := newTestDB(t)

	saveTestWriting(t, db, Writing{Title: "Go Concurrency", Content: types.NewRedactorHTML("<p>channels</p>"), Tags: types.TagList{"go", "tech"}, Category: types.CategoryThought})
	saveTestWriting(t, db, Writing{Title: "Rust notes", Content: types.NewRedactorHTML("<p>ownership and CHANNELS</p>"), Tags: types.TagList{"rust", "tech"}, Category: types.CategoryReview})
	saveTestWriting(t, db, Writing{Title: "Secret go draft", Tags: types.TagList{"go"}, IsDraft: true})
	saveTestWriting(t, db, Writing{Title: "100% done", Content: types.NewRedactorHTML("<p>x</p>")})

	tests := []struct {
		name   string
		params SearchParams
		want   []string
	}{
		{"case insensitive title", SearchParams{Query: "go"}, []string{"Go Concurrency"}},
		{"content match", SearchParams{Query: "Channels"}, []string{"Go Concurrency", "Rust notes"}},
		{"category", SearchParams{Query: "channels", Category: types.CategoryReview}, []string{"Rust notes"}},
		{"tags superset", SearchParams{Tags: []string{"tech", "go"}}, []string{"Go Concurrency"}},
		{"single tag", SearchParams{Tags: []string{"tech"}}, []string{"Go Concurrency", "Rust notes"}},
		{"unknown tag", SearchParams{Tags: []string{"tech", "java"}}, nil},
		{"like wildcard escaped", SearchParams{Query: "%"}, []string{"100% done"}},
		{"empty returns all published", SearchParams{}, []string{"Go Concurrency", "Rust notes", "100% done"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := SearchWritings(db, tt.params)
			require.NoError(t, err)
			var titles []string
			for _, w := range res {
				titles = append(titles, w.Title)
			}
			assert.ElementsMatch(t, tt.want, titles)
		})
	}
}

func TestDeleteAndStats(t *testing.T) {
	db := newTestDB(t)

	a := saveTestWriting(t, db, Writing{Title: "A", Content: types.NewRedactorHTML("<p>one two</p>"), Tags: types.TagList{"x"}})
	saveTestWriting(t, db, Writing{Title: "B", Content: types.NewRedactorHTML("<p>three</p>"), IsDraft: true})

	stats, err := GetWritingStats(db)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalWritings: 2, TotalWords: 3, TotalReadingTime: 2}, stats)

	require.NoError(t, DeleteWriting(db, a.ID))
	assert.ErrorIs(t, DeleteWriting(db, a.ID), gorm.ErrRecordNotFound)

	_, err = GetWritingByID(db, a.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&WritingTag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAssetStore(t *testing.T) {
	db := newTestDB(t)
	store := NewAssetStore(db)
	now := time.Now()

	asset := uploads.Asset{Result: uploads.Result{Path: "images/a.png", URL: "/u/images/a.png", FileSize: 3, FileType: "image/png"}, CreatedAt: now.Add(-48 * time.Hour)}
	require.NoError(t, store.RecordAsset(context.Background(), asset))
	require.NoError(t, store.RecordAsset(context.Background(), asset))
	require.NoError(t, store.RecordAsset(context.Background(), uploads.Asset{Result: uploads.Result{Path: "images/b.png"}, CreatedAt: now}))

	old, err := ListAssetsBefore(db, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, "images/a.png", old[0].Path)

	require.NoError(t, DeleteAsset(db, old[0].Path))
	old, err = ListAssetsBefore(db, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, old)
}

func TestForEachWritingContent(t *testing.T) {
	db := newTestDB(t)
	saveTestWriting(t, db, Writing{Title: "A", Content: types.NewRedactorHTML(`<p><img src="/u/images/a.png"></p>`), CoverImage: "/u/images/c.png"})

	var contents, covers []string
	require.NoError(t, ForEachWritingContent(db, func(content, cover string) error {
		contents = append(contents, content)
		covers = append(covers, cover)
		return nil
	}))
	assert.Equal(t, []string{`<p><img src="/u/images/a.png"></p>`}, contents)
	assert.Equal(t, []string{"/u/images/c.png"}, covers)
}
