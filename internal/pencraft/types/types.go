// Содержит типы данных, хранимые в базе: очищенный HTML статьи, список тегов и категории.
//
// Основные возможности:
//   - RedactorHTML: очистка HTML при записи в базу и при разборе JSON.
//   - TagList: список тегов в JSON колонке, одинаково работает в Postgres и SQLite.
//   - Фиксированный набор категорий.
package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	policy "github.com/aisa-it/pencraft/internal/pencraft/redactor-policy"
)

// RedactorHTML содержимое статьи в формате редактора.
type RedactorHTML struct {
	Body             string
	stripped         string
	AlreadySanitized bool
}

func (r RedactorHTML) Value() (driver.Value, error) {
	if !r.AlreadySanitized {
		return policy.Sanitize(r.Body), nil
	}
	return r.Body, nil
}

func (r *RedactorHTML) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		r.Body = ""
	case string:
		r.Body = v
	case []byte:
		r.Body = string(v)
	default:
		return fmt.Errorf("unsupported content type %T", value)
	}
	r.stripped = ""
	r.AlreadySanitized = true
	return nil
}

func (r RedactorHTML) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(r.Body); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

func (r *RedactorHTML) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Body); err != nil {
		return err
	}
	r.Body = RemoveInvisibleChars(policy.Sanitize(r.Body))
	r.stripped = ""
	r.AlreadySanitized = true
	return nil
}

// StripTags текст статьи без разметки.
func (r *RedactorHTML) StripTags() string {
	if r.stripped == "" {
		r.stripped = policy.PlainText(r.Body)
	}
	return r.stripped
}

func (r RedactorHTML) String() string {
	return r.Body
}

func (r RedactorHTML) IsEmpty() bool {
	return strings.TrimSpace(r.Body) == ""
}

func (RedactorHTML) GormDataType() string {
	return "text"
}

func NewRedactorHTML(body string) RedactorHTML {
	return RedactorHTML{Body: body}
}

func RemoveInvisibleChars(s string) string {
	for _, ch := range []string{"\u200B", "\u200C", "\u200D", "\uFEFF"} {
		s = strings.ReplaceAll(s, ch, "")
	}
	return s
}

// TagList теги статьи.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *TagList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*t = TagList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported tags type %T", value)
	}
	if len(raw) == 0 {
		*t = TagList{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(t))
}

func (TagList) GormDataType() string {
	return "text"
}

func (t TagList) Contains(tag string) bool {
	return slices.Contains(t, tag)
}

type Category string

const (
	CategoryNovel   Category = "novel"
	CategoryThought Category = "thought"
	CategoryReview  Category = "review"

	DefaultCategory = CategoryThought
)

// Categories фиксированный список категорий.
var Categories = []Category{CategoryNovel, CategoryThought, CategoryReview}

func (c Category) IsValid() bool {
	return slices.Contains(Categories, c)
}

func (c Category) String() string {
	return string(c)
}

// SuggestedTags теги, предлагаемые до появления собственных.
var SuggestedTags = []string{
	"fiction",
	"non-fiction",
	"technology",
	"science",
	"philosophy",
	"history",
	"art",
	"music",
	"travel",
	"food",
	"health",
	"business",
	"politics",
	"education",
}
