// Политики очистки HTML содержимого статей перед сохранением и отображением.
//
// Основные возможности:
//   - UgcPolicy: разметка редактора (заголовки, списки, цитаты, блоки кода с классом языка, изображения, ссылки).
//   - StripTagsPolicy: удаление всей разметки для поиска и подсчета слов.
//   - Встроенные base64 изображения и относительные ссылки на загруженные файлы.
package policy

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var UgcPolicy *bluemonday.Policy = bluemonday.UGCPolicy()

func init() {
	languageClassRegexp := regexp.MustCompile(`^language-[\w+#-]+$`)
	highlightClassRegexp := regexp.MustCompile(`^(chroma|language-[\w+#-]+)$`)

	UgcPolicy.AllowAttrs("class").Matching(languageClassRegexp).OnElements("code")
	UgcPolicy.AllowAttrs("class").Matching(highlightClassRegexp).OnElements("pre")
	UgcPolicy.AllowAttrs("spellcheck").Matching(regexp.MustCompile(`^(true|false)$`)).OnElements("pre")
	UgcPolicy.AllowAttrs("start").Matching(regexp.MustCompile(`^\d+$`)).OnElements("ol")
	UgcPolicy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")

	UgcPolicy.AllowDataURIImages()
	UgcPolicy.AddTargetBlankToFullyQualifiedLinks(true)
}

// Sanitize очищает HTML статьи.
func Sanitize(content string) string {
	if content == "" {
		return ""
	}
	return UgcPolicy.Sanitize(content)
}

// PlainText текст без разметки.
func PlainText(content string) string {
	return StripTagsPolicy.Sanitize(content)
}
