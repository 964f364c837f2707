// Пакет publish готовит опубликованную статью к показу читателю.
//
// Основные возможности:
//   - Идентификаторы заголовков h1-h3 и оглавление.
//   - Подсветка блоков кода по языку из класса language-*.
//   - Минификация итогового HTML.
//   - Время чтения и краткое описание.
//   - Кеш результатов по статье и времени ее изменения.
package publish

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

const (
	DefaultCacheSize = 256

	highlightStyle = "github"
)

var renderCache = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pencraft_render_cache_total",
	Help: "Published writing render cache lookups by result",
}, []string{"result"})

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{renderCache}
}

// Heading пункт оглавления.
type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Rendered статья, подготовленная к показу.
type Rendered struct {
	HTML        string    `json:"html"`
	TOC         []Heading `json:"toc"`
	WordCount   int       `json:"word_count"`
	ReadingTime int       `json:"reading_time"`
	Excerpt     string    `json:"excerpt"`
}

type Renderer struct {
	cache     *lru.Cache[string, *Rendered]
	minifier  *minify.M
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func NewRenderer(cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *Rendered](cacheSize)
	if err != nil {
		return nil, err
	}

	m := minify.New()
	m.Add("text/html", &html.Minifier{KeepEndTags: true, KeepQuotes: true})

	return &Renderer{
		cache:     cache,
		minifier:  m,
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true)),
		style:     styles.Get(highlightStyle),
	}, nil
}

func cacheKey(w *dao.Writing) string {
	return w.ID.String() + ":" + strconv.FormatInt(w.UpdatedAt.UnixNano(), 10)
}

// Render возвращает подготовленную статью. Результат кешируется до изменения статьи.
func (r *Renderer) Render(w *dao.Writing) (*Rendered, error) {
	key := cacheKey(w)
	if res, ok := r.cache.Get(key); ok {
		renderCache.WithLabelValues("hit").Inc()
		return res, nil
	}
	renderCache.WithLabelValues("miss").Inc()

	res, err := r.render(w.Content.Body)
	if err != nil {
		return nil, fmt.Errorf("render writing %s: %w", w.ID, err)
	}
	r.cache.Add(key, res)
	return res, nil
}

// Invalidate удаляет из кеша все версии статьи.
func (r *Renderer) Invalidate(w *dao.Writing) {
	prefix := w.ID.String() + ":"
	for _, key := range r.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			r.cache.Remove(key)
		}
	}
}

func (r *Renderer) render(content string) (*Rendered, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	res := &Rendered{
		TOC:         headings(doc),
		WordCount:   utils.WordCount(content),
		ReadingTime: utils.ReadingTime(content),
		Excerpt:     utils.Excerpt(content),
	}

	var hlErr error
	doc.Find("pre > code").EachWithBreak(func(_ int, code *goquery.Selection) bool {
		highlighted, err := r.highlight(language(code), code.Text())
		if err != nil {
			hlErr = err
			return false
		}
		code.SetHtml(highlighted)
		code.Parent().AddClass("chroma")
		return true
	})
	if hlErr != nil {
		return nil, hlErr
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return nil, err
	}
	if res.HTML, err = r.minifier.String("text/html", body); err != nil {
		return nil, err
	}
	return res, nil
}

// headings проставляет идентификаторы заголовкам h1-h3 и собирает оглавление.
// Существующий id сохраняется, иначе используется heading-<номер>.
func headings(doc *goquery.Document) []Heading {
	toc := []Heading{}
	doc.Find("h1, h2, h3").Each(func(i int, s *goquery.Selection) {
		id, ok := s.Attr("id")
		if !ok || id == "" {
			id = "heading-" + strconv.Itoa(i)
			s.SetAttr("id", id)
		}
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		toc = append(toc, Heading{ID: id, Text: strings.TrimSpace(s.Text()), Level: level})
	})
	return toc
}

func language(code *goquery.Selection) string {
	for _, class := range strings.Fields(code.AttrOr("class", "")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok && lang != "" {
			return lang
		}
	}
	return "plain"
}

func (r *Renderer) highlight(lang string, code string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StyleCSS стили подсветки для классов chroma.
func (r *Renderer) StyleCSS() (string, error) {
	var buf bytes.Buffer
	if err := r.formatter.WriteCSS(&buf, r.style); err != nil {
		return "", err
	}
	return buf.String(), nil
}
