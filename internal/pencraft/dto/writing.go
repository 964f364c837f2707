// Содержит структуры данных (DTO) для передачи статей между слоями приложения.
//
// Основные возможности:
//   - Краткое представление статьи для карточек и списков.
//   - Полное представление статьи с HTML содержимым.
//   - Подготовленная к чтению статья с оглавлением.
package dto

import (
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/gofrs/uuid"
)

type WritingLight struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug,omitempty"`
	Category    types.Category `json:"category"`
	Tags        []string       `json:"tags"`
	CoverImage  string         `json:"cover_image,omitempty"`
	IsDraft     bool           `json:"is_draft"`
	Excerpt     string         `json:"excerpt"`
	WordCount   int            `json:"word_count"`
	ReadingTime int            `json:"reading_time"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Writing struct {
	WritingLight
	Content types.RedactorHTML `json:"content" swaggertype:"string"`
}

type TOCHeading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// WritingRendered статья для чтения: HTML с подсветкой кода и оглавление.
type WritingRendered struct {
	WritingLight
	HTML string       `json:"html"`
	TOC  []TOCHeading `json:"toc"`
}
