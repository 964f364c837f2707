package dao

import (
	"context"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssetStore учет загруженных изображений, реализует uploads.AssetRecorder.
type AssetStore struct {
	db *gorm.DB
}

func NewAssetStore(db *gorm.DB) *AssetStore {
	return &AssetStore{db: db}
}

func (s *AssetStore) RecordAsset(ctx context.Context, asset uploads.Asset) error {
	row := ImageAsset{
		ID:        GenUUID(),
		Path:      asset.Path,
		URL:       asset.URL,
		FileSize:  asset.FileSize,
		FileType:  asset.FileType,
		CreatedAt: asset.CreatedAt,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "path"}}, DoNothing: true}).
		Create(&row).Error
}

// ListAssetsBefore изображения, загруженные раньше указанного времени.
func ListAssetsBefore(db *gorm.DB, before time.Time) ([]ImageAsset, error) {
	var res []ImageAsset
	err := db.Where("created_at < ?", before).
		Order("created_at").
		Find(&res).Error
	return res, err
}

// DeleteAsset удаляет запись об объекте по ключу в хранилище.
func DeleteAsset(db *gorm.DB, path string) error {
	return db.Where("path = ?", path).Delete(&ImageAsset{}).Error
}
