// Пакет для очистки неиспользуемых изображений в хранилище. Изображение удаляется, если оно старше
// заданного возраста и на него не ссылается ни одна статья и ни одна открытая сессия редактирования.
//
// Основные возможности:
//   - Сбор ссылок на изображения из содержимого и обложек статей.
//   - Удаление объектов хранилища и записей о них, включая объекты без записей.
//   - Параллельное удаление с ограничением числа одновременных запросов.
package maintenance

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	filestorage "github.com/aisa-it/pencraft/internal/pencraft/file-storage"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultMinAge = 24 * time.Hour

	deleteWorkers = 4
)

var assetsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "pencraft_assets_deleted_total",
	Help: "Total count of deleted unreferenced images",
})

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{assetsDeleted}
}

// ImageDeleter удаляет объект изображения, uploads.Service удовлетворяет интерфейсу.
type ImageDeleter interface {
	DeleteImage(ctx context.Context, key string) error
}

// LiveContent содержимое открытых, еще не сохраненных документов.
type LiveContent func() []string

type Report struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
}

type AssetsCleaner struct {
	db     *gorm.DB
	si     filestorage.FileStorage
	images ImageDeleter
	clock  utils.Clock
	minAge time.Duration
	live   LiveContent
}

func NewAssetCleaner(db *gorm.DB, si filestorage.FileStorage, images ImageDeleter, minAge time.Duration, live LiveContent) *AssetsCleaner {
	if minAge <= 0 {
		minAge = DefaultMinAge
	}
	return &AssetsCleaner{db: db, si: si, images: images, clock: utils.RealClock, minAge: minAge, live: live}
}

// CleanAssets задача планировщика.
func (ac *AssetsCleaner) CleanAssets() {
	slog.Info("Start assets cleaning")
	report, err := ac.Clean(context.Background())
	if err != nil {
		slog.Error("Clean assets fail", "err", err)
	}
	slog.Info("Finish assets cleaning", "scanned", report.Scanned, "deleted", report.Deleted)
}

// Clean удаляет изображения из images/, на которые нет ссылок.
func (ac *AssetsCleaner) Clean(ctx context.Context) (Report, error) {
	var report Report

	refs, err := ac.referenced(ctx)
	if err != nil {
		return report, err
	}
	cutoff := ac.clock.Now().Add(-ac.minAge)

	orphans := make(map[string]struct{})
	if err := ac.si.ListRoot(ctx, func(fi filestorage.FileInfo) error {
		if !strings.HasPrefix(fi.Name, uploads.ImagesPrefix) {
			return nil
		}
		report.Scanned++
		if _, ok := refs[fi.Name]; ok || !fi.CreatedAt.Before(cutoff) {
			return nil
		}
		orphans[fi.Name] = struct{}{}
		return nil
	}); err != nil {
		return report, err
	}

	// Записи, объекты которых уже пропали из хранилища.
	assets, err := dao.ListAssetsBefore(ac.db.WithContext(ctx), cutoff)
	if err != nil {
		return report, err
	}
	for _, asset := range assets {
		if !strings.HasPrefix(asset.Path, uploads.ImagesPrefix) {
			continue
		}
		if _, ok := refs[asset.Path]; !ok {
			orphans[asset.Path] = struct{}{}
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteWorkers)
	for key := range orphans {
		g.Go(func() error {
			if err := ac.images.DeleteImage(gctx, key); err != nil {
				return err
			}
			if err := dao.DeleteAsset(ac.db.WithContext(gctx), key); err != nil {
				return err
			}
			assetsDeleted.Inc()
			mu.Lock()
			report.Deleted++
			mu.Unlock()
			slog.Debug("Delete unreferenced image", "path", key)
			return nil
		})
	}
	return report, g.Wait()
}

// referenced ключи изображений, на которые ссылаются статьи и открытые сессии.
func (ac *AssetsCleaner) referenced(ctx context.Context) (map[string]struct{}, error) {
	refs := make(map[string]struct{})
	add := func(rawURL string) {
		if key := uploads.PathFromURL(rawURL); key != "" {
			refs[key] = struct{}{}
		}
	}

	err := dao.ForEachWritingContent(ac.db.WithContext(ctx), func(content string, cover string) error {
		add(cover)
		return collectImages(content, add)
	})
	if err != nil {
		return nil, err
	}

	if ac.live != nil {
		for _, content := range ac.live() {
			if err := collectImages(content, add); err != nil {
				return nil, err
			}
		}
	}
	return refs, nil
}

func collectImages(content string, add func(string)) error {
	if !strings.Contains(content, "<img") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return err
	}
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""))
	})
	return nil
}
