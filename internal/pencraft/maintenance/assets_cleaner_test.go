package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	filestorage "github.com/aisa-it/pencraft/internal/pencraft/file-storage"
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

const publicURL = "http://localhost:8080/uploads"

func TestCleanAssets(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.Must(uuid.NewV4()))), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	dir := t.TempDir()
	storage, err := filestorage.NewLocalStorage(dir, publicURL)
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)
	store := dao.NewAssetStore(db)

	put := func(key string, modTime time.Time, tracked bool) {
		require.NoError(t, storage.Save(ctx, key, []byte("img"), "image/png", nil))
		require.NoError(t, os.Chtimes(filepath.Join(dir, filepath.FromSlash(key)), modTime, modTime))
		if tracked {
			require.NoError(t, store.RecordAsset(ctx, uploads.Asset{Result: uploads.Result{Path: key, URL: storage.PublicURL(key)}, CreatedAt: modTime}))
		}
	}
	put("images/in-content.png", old, true)
	put("images/cover.png", old, true)
	put("images/live.png", old, true)
	put("images/orphan.png", old, true)
	put("images/untracked.png", old, false)
	put("images/fresh.png", now.Add(-time.Hour), true)
	put("thumbnails/t.jpg", old, true)
	require.NoError(t, store.RecordAsset(ctx, uploads.Asset{Result: uploads.Result{Path: "images/gone.png"}, CreatedAt: old}))

	require.NoError(t, dao.SaveWriting(db, &dao.Writing{
		Title:      "Post",
		Content:    types.NewRedactorHTML(`<p><img src="` + storage.PublicURL("images/in-content.png") + `"></p>`),
		CoverImage: storage.PublicURL("images/cover.png"),
	}))

	live := func() []string {
		return []string{`<p><img src="/uploads/images/live.png"></p>`, "<p>text</p>"}
	}
	cleaner := NewAssetCleaner(db, storage, uploads.NewService(storage, store), 0, live)
	cleaner.clock = utils.NewFakeClock(now)

	report, err := cleaner.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Scanned)
	assert.Equal(t, 3, report.Deleted)

	for key, want := range map[string]bool{
		"images/in-content.png": true,
		"images/cover.png":      true,
		"images/live.png":       true,
		"images/fresh.png":      true,
		"thumbnails/t.jpg":      true,
		"images/orphan.png":     false,
		"images/untracked.png":  false,
	} {
		exists, err := storage.Exist(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, exists, key)
	}

	var paths []string
	require.NoError(t, db.Model(&dao.ImageAsset{}).Order("path").Pluck("path", &paths).Error)
	assert.Equal(t, []string{"images/cover.png", "images/fresh.png", "images/in-content.png", "images/live.png", "thumbnails/t.jpg"}, paths)
}

func TestCollectImages(t *testing.T) {
	var got []string
	require.NoError(t, collectImages(`<p>a<img src="x"><img></p><img src="y">`, func(s string) { got = append(got, s) }))
	assert.Equal(t, []string{"x", "y"}, got)
}
