package dao

import (
	"errors"
	"strings"

	policy "github.com/aisa-it/pencraft/internal/pencraft/redactor-policy"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidCategory = errors.New("unknown category")

// SaveWriting вставляет статью без ID или обновляет существующую.
// Обновление несуществующей статьи возвращает gorm.ErrRecordNotFound.
// Теги нормализуются, HTML очищается, для публикации заполняется slug.
func SaveWriting(tx *gorm.DB, w *Writing) error {
	if err := prepareWriting(w); err != nil {
		return err
	}

	return tx.Transaction(func(tx *gorm.DB) error {
		if w.ID == uuid.Nil {
			w.ID = GenUUID()
			if err := tx.Omit(clause.Associations).Create(w).Error; err != nil {
				return err
			}
		} else {
			res := tx.Model(w).Select("*").Omit("id", "created_at", "TagRows").Updates(w)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		if err := tx.Where("writing_id = ?", w.ID).Delete(&WritingTag{}).Error; err != nil {
			return err
		}
		if len(w.Tags) > 0 {
			rows := make([]WritingTag, len(w.Tags))
			for i, tag := range w.Tags {
				rows[i] = WritingTag{WritingId: w.ID, Tag: tag}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		return tx.First(w, "id = ?", w.ID).Error
	})
}

func prepareWriting(w *Writing) error {
	switch {
	case w.Category == "":
		w.Category = types.DefaultCategory
	case !w.Category.IsValid():
		return ErrInvalidCategory
	}

	w.Title = strings.TrimSpace(w.Title)
	w.Tags = types.TagList(utils.NormalizeTags(w.Tags))
	if w.Tags == nil {
		w.Tags = types.TagList{}
	}

	if !w.Content.AlreadySanitized {
		w.Content.Body = policy.Sanitize(w.Content.Body)
		w.Content.AlreadySanitized = true
	}
	w.WordCount = utils.WordCount(w.Content.Body)
	w.ReadingTime = utils.ReadingTime(w.Content.Body)

	if !w.IsDraft && w.Slug == "" {
		w.Slug = utils.GenerateSlug(w.Title)
	}
	return nil
}

func GetWritingByID(db *gorm.DB, id uuid.UUID) (*Writing, error) {
	var w Writing
	if err := db.First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// ListUserWritings черновики или опубликованные статьи, новые первыми.
func ListUserWritings(db *gorm.DB, isDraft bool) ([]Writing, error) {
	var res []Writing
	err := db.Where("is_draft = ?", isDraft).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}

// ListRecentWritings последние опубликованные статьи. limit <= 0 означает DefaultRecentLimit.
func ListRecentWritings(db *gorm.DB, limit int) ([]Writing, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	var res []Writing
	err := published(db).
		Limit(limit).
		Find(&res).Error
	return res, err
}

// ListWritingsByCategory опубликованные статьи категории. limit <= 0 без ограничения.
func ListWritingsByCategory(db *gorm.DB, category types.Category, limit int) ([]Writing, error) {
	var res []Writing
	err := withLimit(published(db).Where("category = ?", category), limit).
		Find(&res).Error
	return res, err
}

// ListWritingsByTag опубликованные статьи с тегом.
func ListWritingsByTag(db *gorm.DB, tag string, limit int) ([]Writing, error) {
	tag = strings.TrimSpace(tag)
	var res []Writing
	err := withLimit(published(db).Where("id IN (?)", db.Model(&WritingTag{}).Select("writing_id").Where("tag = ?", tag)), limit).
		Find(&res).Error
	return res, err
}

// SearchWritings поиск среди опубликованных статей. Запрос ищется в заголовке или тексте
// без учета регистра, статья должна содержать все указанные теги.
func SearchWritings(db *gorm.DB, params SearchParams) ([]Writing, error) {
	query := published(db)

	if q := strings.TrimSpace(params.Query); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, like, like)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if tags := utils.NormalizeTags(params.Tags); len(tags) > 0 {
		query = query.Where("id IN (?)", db.Model(&WritingTag{}).
			Select("writing_id").
			Where("tag IN ?", tags).
			Group("writing_id").
			Having("COUNT(DISTINCT tag) = ?", len(tags)))
	}

	var res []Writing
	err := query.Find(&res).Error
	return res, err
}

// DeleteWriting удаляет статью и ее теги.
func DeleteWriting(tx *gorm.DB, id uuid.UUID) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("writing_id = ?", id).Delete(&WritingTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Writing{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetWritingStats количество статей, слов и минут чтения по всем статьям, включая черновики.
func GetWritingStats(db *gorm.DB) (Stats, error) {
	var stats Stats
	err := db.Model(&Writing{}).
		Select("COUNT(*) AS total_writings, COALESCE(SUM(word_count), 0) AS total_words, COALESCE(SUM(reading_time), 0) AS total_reading_time").
		Scan(&stats).Error
	return stats, err
}

func ListCategories() []types.Category {
	return types.Categories
}

// ListTags теги опубликованных статей по алфавиту. Пока тегов нет, возвращаются предлагаемые.
func ListTags(db *gorm.DB) ([]string, error) {
	var tags []string
	err := db.Model(&WritingTag{}).
		Distinct("tag").
		Where("writing_id IN (?)", db.Model(&Writing{}).Select("id").Where("is_draft = ?", false)).
		Order("tag").
		Pluck("tag", &tags).Error
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return types.SuggestedTags, nil
	}
	return tags, nil
}

// ForEachWritingContent обходит содержимое и обложки всех статей пачками.
func ForEachWritingContent(db *gorm.DB, fn func(content string, cover string) error) error {
	var batch []Writing
	return db.Select("id", "content", "cover_image").
		FindInBatches(&batch, 100, func(tx *gorm.DB, _ int) error {
			for _, w := range batch {
				if err := fn(w.Content.Body, w.CoverImage); err != nil {
					return err
				}
			}
			return nil
		}).Error
}

func published(db *gorm.DB) *gorm.DB {
	return db.Where("is_draft = ?", false).Order("created_at DESC")
}

func withLimit(db *gorm.DB, limit int) *gorm.DB {
	if limit > 0 {
		return db.Limit(limit)
	}
	return db
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
