package editor

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

const (
	DefaultLanguage            = "plain"
	DefaultLanguageClassPrefix = "language-"
)

// Language язык подсветки, доступный в выпадающем списке блока кода.
type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Languages фиксированный список языков селектора.
var Languages = []Language{
	{ID: "plain", Name: "Plain Text"},
	{ID: "typescript", Name: "TypeScript"},
	{ID: "python", Name: "Python"},
	{ID: "rust", Name: "Rust"},
	{ID: "go", Name: "Go"},
	{ID: "sql", Name: "SQL"},
}

func IsSupportedLanguage(id string) bool {
	return slices.ContainsFunc(Languages, func(l Language) bool { return l.ID == id })
}

// CodeBlockOptions настройки расширения блока кода.
type CodeBlockOptions struct {
	// Атрибуты, добавляемые к внешнему элементу <pre>.
	HTMLAttributes map[string]string
	// Префикс класса с языком на внутреннем элементе <code>.
	LanguageClassPrefix string
}

func DefaultCodeBlockOptions() CodeBlockOptions {
	return CodeBlockOptions{
		HTMLAttributes:      map[string]string{},
		LanguageClassPrefix: DefaultLanguageClassPrefix,
	}
}

// ParseLanguage читает язык из классов первого дочернего элемента <pre>.
// Берется первый класс с префиксом, при его отсутствии возвращается plain.
func (o CodeBlockOptions) ParseLanguage(pre *html.Node) string {
	var code *html.Node
	for el := pre.FirstChild; el != nil; el = el.NextSibling {
		if el.Type == html.ElementNode {
			code = el
			break
		}
	}
	if code == nil {
		return DefaultLanguage
	}

	for _, class := range strings.Fields(getAttrValue("class", code.Attr)) {
		if !strings.HasPrefix(class, o.LanguageClassPrefix) {
			continue
		}
		if lang := strings.TrimPrefix(class, o.LanguageClassPrefix); lang != "" {
			return lang
		}
		break
	}
	return DefaultLanguage
}

// LanguageClass класс для внутреннего элемента, пустая строка если язык не задан.
func (o CodeBlockOptions) LanguageClass(language string) string {
	if language == "" {
		return ""
	}
	return o.LanguageClassPrefix + language
}

func (o CodeBlockOptions) renderOpen(b *strings.Builder, language string) {
	b.WriteString("<pre")
	for _, k := range slices.Sorted(maps.Keys(o.HTMLAttributes)) {
		writeAttr(b, k, o.HTMLAttributes[k])
	}
	b.WriteString("><code")
	if class := o.LanguageClass(language); class != "" {
		writeAttr(b, "class", class)
	}
	b.WriteString(">")
}
