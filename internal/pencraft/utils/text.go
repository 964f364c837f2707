package utils

import (
	"math"
	"regexp"
	"strings"
)

const (
	WordsPerMinute = 200
	ExcerptLength  = 150
)

var (
	slugForbiddenRegexp = regexp.MustCompile(`[^\w\s-]`)
	slugSpacesRegexp    = regexp.MustCompile(`\s+`)
	slugDashesRegexp    = regexp.MustCompile(`-+`)
	tagsRegexp          = regexp.MustCompile(`<[^>]*>`)
	spacesRegexp        = regexp.MustCompile(`\s+`)
)

// GenerateSlug строит URL-идентификатор из заголовка: нижний регистр, без спецсимволов,
// пробелы заменяются дефисами, повторные дефисы схлопываются.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugForbiddenRegexp.ReplaceAllString(slug, "")
	slug = slugSpacesRegexp.ReplaceAllString(slug, "-")
	slug = slugDashesRegexp.ReplaceAllString(slug, "-")
	return strings.TrimSpace(slug)
}

// StripTags удаляет HTML теги, не трогая сущности.
func StripTags(html string) string {
	return tagsRegexp.ReplaceAllString(html, "")
}

// WordCount считает слова в HTML контенте.
func WordCount(html string) int {
	return len(strings.Fields(StripTags(html)))
}

// ReadingTime возвращает время чтения в минутах, не меньше одной.
func ReadingTime(html string) int {
	minutes := int(math.Ceil(float64(WordCount(html)) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Excerpt начало текста статьи для карточек: теги заменяются пробелами, текст обрезается до ExcerptLength символов.
func Excerpt(html string) string {
	text := strings.TrimSpace(spacesRegexp.ReplaceAllString(tagsRegexp.ReplaceAllString(html, " "), " "))
	if runes := []rune(text); len(runes) > ExcerptLength {
		text = string(runes[:ExcerptLength])
	}
	return text + "..."
}
