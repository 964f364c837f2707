package pencraft

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aisa-it/pencraft/internal/pencraft/apierrors"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/dto"
	"github.com/aisa-it/pencraft/internal/pencraft/editor"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/tiptap"
	"github.com/aisa-it/pencraft/internal/pencraft/export"
	errStack "github.com/aisa-it/pencraft/internal/pencraft/stack-error"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/aisa-it/pencraft/internal/pencraft/utils"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type WritingContext struct {
	echo.Context
	Writing dao.Writing
}

func (s *Services) WritingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.FromString(c.Param("writingId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidID)
		}

		writing, err := dao.GetWritingByID(s.db, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return EErrorDefined(c, apierrors.ErrWritingNotFound)
			}
			return EError(c, err)
		}
		return next(WritingContext{c, *writing})
	}
}

func (s *Services) AddWritingServices(g *echo.Group) {
	writingGroup := g.Group("writings/:writingId", s.WritingMiddleware)

	g.GET("writings/", s.getWritingList)
	g.POST("writings/", s.createWriting)
	g.GET("writings/recent/", s.getRecentWritings)
	g.GET("writings/search/", s.searchWritings)
	g.GET("writings/stats/", s.getWritingStats)

	g.GET("categories/", s.getCategoryList)
	g.GET("categories/:category/writings/", s.getCategoryWritings)
	g.GET("tags/", s.getTagList)
	g.GET("tags/:tag/writings/", s.getTagWritings)

	g.GET("languages/", s.getLanguageList)
	g.GET("highlight.css/", s.getHighlightStyle)

	writingGroup.GET("/", s.getWriting)
	writingGroup.PATCH("/", s.updateWriting)
	writingGroup.DELETE("/", s.deleteWriting)
	writingGroup.GET("/rendered/", s.getRenderedWriting)
	writingGroup.GET("/markdown/", s.exportWritingMarkdown)
	writingGroup.GET("/document/", s.getWritingDocument)
}

func writingsLight(writings []dao.Writing) []dto.WritingLight {
	return utils.SliceToSlice(&writings, func(w *dao.Writing) dto.WritingLight { return *w.ToLightDTO() })
}

// limitParam читает необязательный параметр limit. Отсутствие или 0 означает значение по умолчанию.
func limitParam(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, apierrors.ErrInvalidRequest.WithFormattedMessage("limit")
	}
	return limit, nil
}

// getWritingList godoc
// @id getWritingList
// @Summary Статьи: список опубликованных статей или черновиков
// @Description Возвращает статьи автора, новые первыми. Параметр draft=true возвращает черновики.
// @Tags Writings
// @Produce json
// @Param draft query bool false "Черновики" default(false)
// @Success 200 {array} dto.WritingLight "Список статей"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/ [get]
func (s *Services) getWritingList(c echo.Context) error {
	isDraft := false
	if err := echo.QueryParamsBinder(c).Bool("draft", &isDraft).BindError(); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage("draft"))
	}

	writings, err := dao.ListUserWritings(s.db, isDraft)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, writingsLight(writings))
}

// getRecentWritings godoc
// @id getRecentWritings
// @Summary Статьи: последние публикации
// @Tags Writings
// @Produce json
// @Param limit query int false "Количество" default(6)
// @Success 200 {array} dto.WritingLight "Последние публикации"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/recent/ [get]
func (s *Services) getRecentWritings(c echo.Context) error {
	limit, err := limitParam(c)
	if err != nil {
		return EError(c, err)
	}

	writings, err := dao.ListRecentWritings(s.db, limit)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, writingsLight(writings))
}

// searchWritings godoc
// @id searchWritings
// @Summary Статьи: поиск
// @Description Ищет опубликованные статьи по заголовку и тексту без учета регистра. Статья должна содержать все переданные теги.
// @Tags Writings
// @Produce json
// @Param q query string false "Поисковый запрос"
// @Param category query string false "Категория"
// @Param tags query string false "Теги через запятую"
// @Success 200 {array} dto.WritingLight "Найденные статьи"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/search/ [get]
func (s *Services) searchWritings(c echo.Context) error {
	params := dao.SearchParams{
		Query:    c.QueryParam("q"),
		Category: types.Category(c.QueryParam("category")),
		Tags:     utils.SplitTags(c.QueryParam("tags")),
	}

	if utf8.RuneCountInString(params.Query) > maxSearchQueryLength {
		return EErrorDefined(c, apierrors.ErrWritingSearchTooLong)
	}
	if params.Category != "" && !params.Category.IsValid() {
		return EErrorDefined(c, apierrors.ErrInvalidCategory)
	}

	writings, err := dao.SearchWritings(s.db, params)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, writingsLight(writings))
}

// getWritingStats godoc
// @id getWritingStats
// @Summary Статьи: статистика автора
// @Description Количество статей, слов и минут чтения по всем статьям, включая черновики.
// @Tags Writings
// @Produce json
// @Success 200 {object} dao.Stats "Статистика"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/stats/ [get]
func (s *Services) getWritingStats(c echo.Context) error {
	stats, err := dao.GetWritingStats(s.db)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// getCategoryList godoc
// @id getCategoryList
// @Summary Категории: список категорий
// @Tags Writings
// @Produce json
// @Success 200 {array} string "Категории"
// @Router /api/categories/ [get]
func (s *Services) getCategoryList(c echo.Context) error {
	return c.JSON(http.StatusOK, dao.ListCategories())
}

// getCategoryWritings godoc
// @id getCategoryWritings
// @Summary Категории: опубликованные статьи категории
// @Tags Writings
// @Produce json
// @Param category path string true "Категория"
// @Param limit query int false "Количество"
// @Success 200 {array} dto.WritingLight "Статьи категории"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/categories/{category}/writings/ [get]
func (s *Services) getCategoryWritings(c echo.Context) error {
	category := types.Category(c.Param("category"))
	if !category.IsValid() {
		return EErrorDefined(c, apierrors.ErrInvalidCategory)
	}
	limit, err := limitParam(c)
	if err != nil {
		return EError(c, err)
	}

	writings, err := dao.ListWritingsByCategory(s.db, category, limit)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, writingsLight(writings))
}

// getTagList godoc
// @id getTagList
// @Summary Теги: список тегов
// @Description Теги опубликованных статей по алфавиту. Пока публикаций с тегами нет, возвращаются предлагаемые теги.
// @Tags Writings
// @Produce json
// @Success 200 {array} string "Теги"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/tags/ [get]
func (s *Services) getTagList(c echo.Context) error {
	tags, err := dao.ListTags(s.db)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, tags)
}

// getTagWritings godoc
// @id getTagWritings
// @Summary Теги: опубликованные статьи с тегом
// @Tags Writings
// @Produce json
// @Param tag path string true "Тег"
// @Param limit query int false "Количество"
// @Success 200 {array} dto.WritingLight "Статьи с тегом"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/tags/{tag}/writings/ [get]
func (s *Services) getTagWritings(c echo.Context) error {
	limit, err := limitParam(c)
	if err != nil {
		return EError(c, err)
	}

	writings, err := dao.ListWritingsByTag(s.db, c.Param("tag"), limit)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, writingsLight(writings))
}

// createWriting godoc
// @id createWriting
// @Summary Статьи: создание статьи
// @Description Сохраняет новую статью или черновик. Для публикации обязательны заголовок и текст.
// @Tags Writings
// @Accept json
// @Produce json
// @Param request body CreateWritingRequest true "Статья"
// @Success 201 {object} dto.Writing "Созданная статья"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/ [post]
func (s *Services) createWriting(c echo.Context) error {
	var req CreateWritingRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}

	var writing dao.Writing
	req.Bind(&writing)
	if err := checkPublishable(&writing); err != nil {
		return EErrorDefined(c, *err)
	}

	if err := dao.SaveWriting(s.db, &writing); err != nil {
		return s.saveError(c, err)
	}
	return c.JSON(http.StatusCreated, writing.ToDTO())
}

// getWriting godoc
// @id getWriting
// @Summary Статьи: получение статьи
// @Tags Writings
// @Produce json
// @Param writingId path string true "ID статьи"
// @Success 200 {object} dto.Writing "Статья"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 404 {object} apierrors.DefinedError "Статья не найдена"
// @Router /api/writings/{writingId}/ [get]
func (s *Services) getWriting(c echo.Context) error {
	writing := c.(WritingContext).Writing
	return c.JSON(http.StatusOK, writing.ToDTO())
}

// updateWriting godoc
// @id updateWriting
// @Summary Статьи: изменение статьи
// @Description Частично обновляет статью. Переданные поля заменяют текущие значения.
// @Tags Writings
// @Accept json
// @Produce json
// @Param writingId path string true "ID статьи"
// @Param request body UpdateWritingRequest true "Изменяемые поля"
// @Success 200 {object} dto.Writing "Обновленная статья"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 404 {object} apierrors.DefinedError "Статья не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/{writingId}/ [patch]
func (s *Services) updateWriting(c echo.Context) error {
	writing := c.(WritingContext).Writing

	var req UpdateWritingRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if req.Tags != nil && !validTags(*req.Tags) {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage("tags"))
	}

	req.Bind(&writing)
	if err := checkPublishable(&writing); err != nil {
		return EErrorDefined(c, *err)
	}

	if err := dao.SaveWriting(s.db, &writing); err != nil {
		return s.saveError(c, err)
	}
	s.renderer.Invalidate(&writing)
	return c.JSON(http.StatusOK, writing.ToDTO())
}

// deleteWriting godoc
// @id deleteWriting
// @Summary Статьи: удаление статьи
// @Tags Writings
// @Param writingId path string true "ID статьи"
// @Success 204 "Статья удалена"
// @Failure 404 {object} apierrors.DefinedError "Статья не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/{writingId}/ [delete]
func (s *Services) deleteWriting(c echo.Context) error {
	writing := c.(WritingContext).Writing

	if err := dao.DeleteWriting(s.db, writing.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EErrorDefined(c, apierrors.ErrWritingNotFound)
		}
		return EError(c, errStack.TrackErrorStack(err).AddContext("writing_id", writing.ID))
	}
	s.renderer.Invalidate(&writing)
	return c.NoContent(http.StatusNoContent)
}

// getRenderedWriting godoc
// @id getRenderedWriting
// @Summary Статьи: статья для чтения
// @Description Возвращает опубликованную статью с подсветкой кода и оглавлением.
// @Tags Writings
// @Produce json
// @Param writingId path string true "ID статьи"
// @Success 200 {object} dto.WritingRendered "Статья для чтения"
// @Failure 404 {object} apierrors.DefinedError "Статья не найдена или не опубликована"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/{writingId}/rendered/ [get]
func (s *Services) getRenderedWriting(c echo.Context) error {
	writing := c.(WritingContext).Writing
	if writing.IsDraft {
		return EErrorDefined(c, apierrors.ErrWritingNotPublished)
	}

	rendered, err := s.renderer.Render(&writing)
	if err != nil {
		errStack.LogError(c, errStack.TrackErrorStack(err).AddContext("writing_id", writing.ID))
		return EErrorDefined(c, apierrors.ErrWritingRenderFailed)
	}

	resp := dto.WritingRendered{
		WritingLight: *writing.ToLightDTO(),
		HTML:         rendered.HTML,
		TOC:          make([]dto.TOCHeading, len(rendered.TOC)),
	}
	resp.ReadingTime = rendered.ReadingTime
	for i, h := range rendered.TOC {
		resp.TOC[i] = dto.TOCHeading{ID: h.ID, Text: h.Text, Level: h.Level}
	}
	return c.JSON(http.StatusOK, resp)
}

// exportWritingMarkdown godoc
// @id exportWritingMarkdown
// @Summary Статьи: выгрузка в Markdown
// @Tags Writings
// @Produce text/markdown
// @Param writingId path string true "ID статьи"
// @Success 200 {file} file "Файл Markdown"
// @Failure 404 {object} apierrors.DefinedError "Статья не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/{writingId}/markdown/ [get]
func (s *Services) exportWritingMarkdown(c echo.Context) error {
	writing := c.(WritingContext).Writing

	var buf bytes.Buffer
	if err := export.WritingToMarkdown(&buf, &writing); err != nil {
		return EError(c, errStack.TrackErrorStack(err).AddContext("writing_id", writing.ID))
	}

	name := writing.Slug
	if name == "" {
		name = utils.GenerateSlug(writing.Title)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name+".md"))
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
}

// getWritingDocument godoc
// @id getWritingDocument
// @Summary Статьи: содержимое в формате TipTap JSON
// @Tags Writings
// @Produce json
// @Param writingId path string true "ID статьи"
// @Success 200 {object} tiptap.TipTapDocument "Документ"
// @Failure 404 {object} apierrors.DefinedError "Статья не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/writings/{writingId}/document/ [get]
func (s *Services) getWritingDocument(c echo.Context) error {
	writing := c.(WritingContext).Writing

	doc, err := editor.ParseString(writing.Content.Body)
	if err != nil {
		return EError(c, errStack.TrackErrorStack(err).AddContext("writing_id", writing.ID))
	}
	return c.JSON(http.StatusOK, tiptap.ToTipTap(doc))
}

// getLanguageList godoc
// @id getLanguageList
// @Summary Редактор: языки блока кода
// @Tags Editor
// @Produce json
// @Success 200 {array} editor.Language "Языки"
// @Router /api/languages/ [get]
func (s *Services) getLanguageList(c echo.Context) error {
	return c.JSON(http.StatusOK, editor.Languages)
}

// getHighlightStyle godoc
// @id getHighlightStyle
// @Summary Статьи: стили подсветки кода
// @Tags Writings
// @Produce text/css
// @Success 200 {string} string "CSS"
// @Router /api/highlight.css/ [get]
func (s *Services) getHighlightStyle(c echo.Context) error {
	css, err := s.renderer.StyleCSS()
	if err != nil {
		return EError(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(css))
}

// checkPublishable для публикации нужны заголовок и текст, черновик сохраняется в любом виде.
func checkPublishable(w *dao.Writing) *apierrors.DefinedError {
	if w.IsDraft {
		return nil
	}
	if strings.TrimSpace(w.Title) == "" {
		return &apierrors.ErrWritingTitleRequired
	}
	if strings.TrimSpace(w.Content.StripTags()) == "" && !strings.Contains(w.Content.Body, "<img") {
		return &apierrors.ErrWritingContentEmpty
	}
	return nil
}

func (s *Services) saveError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, dao.ErrInvalidCategory):
		return EErrorDefined(c, apierrors.ErrInvalidCategory)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return EErrorDefined(c, apierrors.ErrWritingNotFound)
	}
	errStack.LogError(c, errStack.TrackErrorStack(err))
	return EErrorDefined(c, apierrors.ErrWritingSaveFailed)
}

func validTags(tags []string) bool {
	if len(tags) > maxTags {
		return false
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > maxTagLength {
			return false
		}
	}
	return true
}
