// DAO (Data Access Object) - предоставляет методы для работы со статьями и загруженными изображениями в базе данных.
//
// Основные возможности:
//   - Сохранение статей: вставка новой или обновление существующей по ID.
//   - Выборки: черновики и опубликованные, по категории, по тегу, последние публикации.
//   - Поиск по заголовку и тексту без учета регистра с фильтрами категории и тегов.
//   - Статистика автора: количество статей, слов и минут чтения.
//   - Учет загруженных изображений для очистки неиспользуемых файлов.
package dao

import (
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/dto"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// DefaultRecentLimit количество последних публикаций по умолчанию.
const DefaultRecentLimit = 6

// Writing статья или черновик.
type Writing struct {
	ID          uuid.UUID          `json:"id" gorm:"column:id;primaryKey;type:uuid"`
	Title       string             `json:"title"`
	Content     types.RedactorHTML `json:"content"`
	CoverImage  string             `json:"cover_image"`
	Category    types.Category     `json:"category" gorm:"index"`
	Tags        types.TagList      `json:"tags"`
	Slug        string             `json:"slug" gorm:"index"`
	IsDraft     bool               `json:"is_draft" gorm:"index"`
	WordCount   int                `json:"word_count"`
	ReadingTime int                `json:"reading_time"`
	CreatedAt   time.Time          `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time          `json:"updated_at"`

	TagRows []WritingTag `json:"-" gorm:"foreignKey:WritingId;constraint:OnDelete:CASCADE"`
}

func (Writing) TableName() string { return "writings" }

// WritingTag связь статьи с тегом для выборок по тегам.
type WritingTag struct {
	WritingId uuid.UUID `gorm:"primaryKey;type:uuid"`
	Tag       string    `gorm:"primaryKey;index"`
}

func (WritingTag) TableName() string { return "writing_tags" }

// ImageAsset загруженное изображение.
type ImageAsset struct {
	ID        uuid.UUID `json:"id" gorm:"column:id;primaryKey;type:uuid"`
	Path      string    `json:"path" gorm:"uniqueIndex"`
	URL       string    `json:"url"`
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (ImageAsset) TableName() string { return "image_assets" }

// Stats сводка по статьям автора.
type Stats struct {
	TotalWritings    int64 `json:"totalWritings"`
	TotalWords       int64 `json:"totalWords"`
	TotalReadingTime int64 `json:"totalReadingTime"`
}

// SearchParams параметры поиска. Пустые поля не ограничивают выборку.
type SearchParams struct {
	Query    string
	Category types.Category
	Tags     []string
}

// Migrate создает или обновляет таблицы.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Writing{}, &WritingTag{}, &ImageAsset{})
}

func GenUUID() uuid.UUID {
	u, _ := uuid.NewV4()
	return u
}

func (w *Writing) ToLightDTO() *dto.WritingLight {
	if w == nil {
		return nil
	}
	tags := []string(w.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &dto.WritingLight{
		ID:          w.ID,
		Title:       w.Title,
		Slug:        w.Slug,
		Category:    w.Category,
		Tags:        tags,
		CoverImage:  w.CoverImage,
		IsDraft:     w.IsDraft,
		Excerpt:     utils.Excerpt(w.Content.Body),
		WordCount:   w.WordCount,
		ReadingTime: w.ReadingTime,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func (w *Writing) ToDTO() *dto.Writing {
	if w == nil {
		return nil
	}
	return &dto.Writing{
		WritingLight: *w.ToLightDTO(),
		Content:      w.Content,
	}
}
