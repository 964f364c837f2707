package pencraft

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/aisa-it/pencraft/internal/pencraft/apierrors"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/editor"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/shell"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/tiptap"
	"github.com/aisa-it/pencraft/internal/pencraft/sessions"
	errStack "github.com/aisa-it/pencraft/internal/pencraft/stack-error"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// activeStates кнопки панели инструментов, состояние которых возвращает getSessionActive.
var activeStates = []string{"bold", "italic", "code", "link", "paragraph", "bulletList", "orderedList", "blockquote", "codeBlock"}

type SessionContext struct {
	echo.Context
	Session *sessions.Session
}

type OpenSessionRequest struct {
	WritingID uuid.UUID `json:"writing_id"`
}

type InsertTextRequest struct {
	Text string `json:"text"`
}

type SetContentRequest struct {
	HTML string `json:"html"`
}

// LinkRequest ответ на диалог ссылки. Cancel закрывает диалог без изменений, пустой URL удаляет ссылку.
type LinkRequest struct {
	URL    string `json:"url"`
	Cancel bool   `json:"cancel"`
}

type CodeBlockLanguageRequest struct {
	Language string `json:"language" validate:"required,language"`
}

type CodeBlockResponse struct {
	Language  string            `json:"language"`
	Languages []editor.Language `json:"languages"`
	Copied    bool              `json:"copied"`
}

func (s *Services) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.FromString(c.Param("sessionId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidID)
		}

		sess, err := s.sessions.Get(id)
		if err != nil {
			return sessionError(c, err)
		}
		return next(SessionContext{c, sess})
	}
}

func (s *Services) AddSessionServices(g *echo.Group) {
	sessionGroup := g.Group("sessions/:sessionId", s.SessionMiddleware)

	g.POST("sessions/", s.openSession)
	g.GET("sessions/commands/", s.getCommandList)

	sessionGroup.GET("/", s.getSession)
	sessionGroup.DELETE("/", s.closeSession)
	sessionGroup.GET("/ws/", s.sessionEvents)

	sessionGroup.POST("/commands/:command/", s.execSessionCommand)
	sessionGroup.POST("/text/", s.insertSessionText)
	sessionGroup.POST("/selection/", s.setSessionSelection)
	sessionGroup.PUT("/content/", s.setSessionContent)
	sessionGroup.GET("/document/", s.getSessionDocument)
	sessionGroup.PUT("/document/", s.setSessionDocument)
	sessionGroup.POST("/paste/", s.pasteToSession)
	sessionGroup.POST("/images/", s.addSessionImage)
	sessionGroup.POST("/link/", s.setSessionLink)
	sessionGroup.PATCH("/meta/", s.updateSessionMeta)
	sessionGroup.GET("/active/", s.getSessionActive)

	sessionGroup.GET("/codeblocks/:path/", s.getSessionCodeBlock)
	sessionGroup.PUT("/codeblocks/:path/language/", s.setCodeBlockLanguage)
	sessionGroup.POST("/codeblocks/:path/copy/", s.copyCodeBlock)

	sessionGroup.POST("/draft/", s.saveSessionDraft)
	sessionGroup.POST("/publish/", s.publishSession)
}

// openSession godoc
// @id openSession
// @Summary Редактор: открытие сессии редактирования
// @Description Создает сессию для новой статьи или открывает существующую. Для статьи с открытой сессией возвращается она же.
// @Tags Editor
// @Accept json
// @Produce json
// @Param request body OpenSessionRequest false "ID статьи"
// @Success 201 {object} sessions.Info "Сессия"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 404 {object} apierrors.DefinedError "Статья не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sessions/ [post]
func (s *Services) openSession(c echo.Context) error {
	var req OpenSessionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
		}
	}

	sess, err := s.sessions.Open(c.Request().Context(), req.WritingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EErrorDefined(c, apierrors.ErrWritingNotFound)
		}
		return EError(c, errStack.TrackErrorStack(err).AddContext("writing_id", req.WritingID))
	}
	return c.JSON(http.StatusCreated, sess.Info())
}

// getCommandList godoc
// @id getCommandList
// @Summary Редактор: список команд
// @Tags Editor
// @Produce json
// @Success 200 {array} string "Команды"
// @Router /api/sessions/commands/ [get]
func (s *Services) getCommandList(c echo.Context) error {
	return c.JSON(http.StatusOK, sessions.Commands())
}

// getSession godoc
// @id getSession
// @Summary Редактор: состояние сессии
// @Tags Editor
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/ [get]
func (s *Services) getSession(c echo.Context) error {
	return c.JSON(http.StatusOK, c.(SessionContext).Session.Info())
}

// closeSession godoc
// @id closeSession
// @Summary Редактор: закрытие сессии
// @Description Сохраняет ожидающие изменения и закрывает сессию.
// @Tags Editor
// @Param sessionId path string true "ID сессии"
// @Success 204 "Сессия закрыта"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/ [delete]
func (s *Services) closeSession(c echo.Context) error {
	sess := c.(SessionContext).Session
	if err := s.sessions.Close(c.Request().Context(), sess.ID()); err != nil {
		return sessionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// execSessionCommand godoc
// @id execSessionCommand
// @Summary Редактор: выполнение команды
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param command path string true "Имя команды"
// @Param request body sessions.CommandArgs false "Параметры команды"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 400 {object} apierrors.DefinedError "Неизвестная команда"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Failure 422 {object} apierrors.DefinedError "Команда не выполнена"
// @Router /api/sessions/{sessionId}/commands/{command}/ [post]
func (s *Services) execSessionCommand(c echo.Context) error {
	sess := c.(SessionContext).Session
	name := c.Param("command")

	var args sessions.CommandArgs
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&args); err != nil {
			return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
		}
	}

	if err := sess.Exec(name, args); err != nil {
		if errors.Is(err, sessions.ErrUnknownCommand) {
			return EErrorDefined(c, apierrors.ErrUnknownCommand.WithFormattedMessage(name))
		}
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// insertSessionText godoc
// @id insertSessionText
// @Summary Редактор: ввод текста
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param request body InsertTextRequest true "Текст"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/text/ [post]
func (s *Services) insertSessionText(c echo.Context) error {
	sess := c.(SessionContext).Session

	var req InsertTextRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := sess.Editor().InsertText(req.Text); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// setSessionSelection godoc
// @id setSessionSelection
// @Summary Редактор: выделение
// @Description Устанавливает курсор или выделение внутри текстового блока.
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param request body shell.Selection true "Выделение"
// @Success 200 {object} shell.Selection "Итоговое выделение"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Failure 422 {object} apierrors.DefinedError "Путь не указывает на текстовый блок"
// @Router /api/sessions/{sessionId}/selection/ [post]
func (s *Services) setSessionSelection(c echo.Context) error {
	sess := c.(SessionContext).Session

	var sel shell.Selection
	if err := c.Bind(&sel); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := sess.Editor().Select(sel); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Editor().Selection())
}

// setSessionContent godoc
// @id setSessionContent
// @Summary Редактор: замена содержимого
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param request body SetContentRequest true "HTML документа"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/content/ [put]
func (s *Services) setSessionContent(c echo.Context) error {
	sess := c.(SessionContext).Session

	var req SetContentRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := sess.Editor().SetContent(req.HTML); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// getSessionDocument godoc
// @id getSessionDocument
// @Summary Редактор: документ в формате TipTap JSON
// @Tags Editor
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Success 200 {object} tiptap.TipTapDocument "Документ"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/document/ [get]
func (s *Services) getSessionDocument(c echo.Context) error {
	sess := c.(SessionContext).Session
	return c.JSON(http.StatusOK, tiptap.ToTipTap(sess.Editor().Document()))
}

// setSessionDocument godoc
// @id setSessionDocument
// @Summary Редактор: замена содержимого документом TipTap JSON
// @Description Неизвестные типы узлов и меток пропускаются.
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param request body tiptap.TipTapDocument true "Документ"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 400 {object} apierrors.DefinedError "Некорректный документ"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/document/ [put]
func (s *Services) setSessionDocument(c echo.Context) error {
	sess := c.(SessionContext).Session

	doc, err := tiptap.ParseJSON(c.Request().Body)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := sess.Editor().SetDocument(doc); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// pasteToSession godoc
// @id pasteToSession
// @Summary Редактор: вставка из буфера обмена
// @Description Изображения из поля files загружаются асинхронно и вставляются по завершении, о ходе загрузки сообщают уведомления. Если изображений нет, вставляется HTML из поля html.
// @Tags Editor
// @Accept multipart/form-data
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param files formData file false "Файлы буфера обмена"
// @Param html formData string false "HTML буфера обмена"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/paste/ [post]
func (s *Services) pasteToSession(c echo.Context) error {
	sess := c.(SessionContext).Session

	var ev shell.PasteEvent
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["files"] {
			item, err := pasteItem(fh)
			if err != nil {
				return EError(c, err)
			}
			ev.Items = append(ev.Items, item)
		}
	}

	if !sess.Editor().HandlePaste(ev) {
		if html := c.FormValue("html"); html != "" {
			if err := sess.Editor().PasteHTML(html); err != nil {
				return sessionError(c, err)
			}
		}
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// pasteItem элемент буфера обмена из файла формы. Файлы изображений читаются в память сразу,
// так как загрузка продолжается после ответа на запрос.
func pasteItem(fh *multipart.FileHeader) (shell.DataTransferItem, error) {
	item := shell.DataTransferItem{
		Kind: "file",
		Type: fh.Header.Get(echo.HeaderContentType),
		Name: fh.Filename,
		Size: fh.Size,
	}
	if !uploads.IsImageType(item.Type) || fh.Size > uploads.MaxImageSize {
		return item, nil
	}

	file, err := fh.Open()
	if err != nil {
		return item, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, uploads.MaxImageSize+1))
	if err != nil {
		return item, err
	}
	item.Open = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return item, nil
}

// addSessionImage godoc
// @id addSessionImage
// @Summary Редактор: добавление изображения
// @Description Загружает выбранный файл и вставляет изображение в позицию курсора.
// @Tags Editor
// @Accept multipart/form-data
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param asset formData file true "Изображение"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 400 {object} apierrors.DefinedError "Не передан файл"
// @Failure 413 {object} apierrors.DefinedError "Большой объем файла"
// @Failure 415 {object} apierrors.DefinedError "Файл не является изображением"
// @Failure 502 {object} apierrors.DefinedError "Ошибка хранилища"
// @Router /api/sessions/{sessionId}/images/ [post]
func (s *Services) addSessionImage(c echo.Context) error {
	sess := c.(SessionContext).Session

	fh, err := c.FormFile(assetField)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrImageMissing)
	}

	_, err = withFormFile(fh, func(f uploads.File) (struct{}, error) {
		return struct{}{}, sess.Editor().AddImage(c.Request().Context(), f)
	})
	if err != nil {
		if errors.Is(err, shell.ErrClosed) || errors.Is(err, shell.ErrNoSelection) {
			return sessionError(c, err)
		}
		return uploadError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// setSessionLink godoc
// @id setSessionLink
// @Summary Редактор: ссылка на выделении
// @Description Ответ на диалог ссылки. Отмена ничего не меняет, пустой адрес удаляет ссылку.
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param request body LinkRequest true "Адрес ссылки"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/link/ [post]
func (s *Services) setSessionLink(c echo.Context) error {
	sess := c.(SessionContext).Session

	var req LinkRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := sess.AddLink(req.URL, !req.Cancel); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// updateSessionMeta godoc
// @id updateSessionMeta
// @Summary Редактор: заголовок, категория, теги и обложка
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param request body sessions.MetaUpdate true "Изменяемые поля"
// @Success 200 {object} sessions.Info "Сессия"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/meta/ [patch]
func (s *Services) updateSessionMeta(c echo.Context) error {
	sess := c.(SessionContext).Session

	var req sessions.MetaUpdate
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if req.Tags != nil && !validTags(*req.Tags) {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage("tags"))
	}

	if err := sess.UpdateMeta(req); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// getSessionActive godoc
// @id getSessionActive
// @Summary Редактор: состояние кнопок панели инструментов
// @Description Для каждой метки и типа блока возвращает, активен ли он под курсором. Для заголовков ключи heading1..heading6.
// @Tags Editor
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Success 200 {object} map[string]bool "Состояние кнопок"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/active/ [get]
func (s *Services) getSessionActive(c echo.Context) error {
	ed := c.(SessionContext).Session.Editor()

	resp := make(map[string]bool, len(activeStates)+6)
	for _, name := range activeStates {
		resp[name] = ed.IsActive(name, nil)
	}
	for level := 1; level <= 6; level++ {
		resp["heading"+strconv.Itoa(level)] = ed.IsActive("heading", map[string]any{"level": level})
	}
	return c.JSON(http.StatusOK, resp)
}

// getSessionCodeBlock godoc
// @id getSessionCodeBlock
// @Summary Редактор: блок кода
// @Description Язык блока, список языков селектора и отметка о копировании. Путь к блоку задается индексами через точку.
// @Tags Editor
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param path path string true "Путь к блоку, например 0.2"
// @Success 200 {object} CodeBlockResponse "Блок кода"
// @Failure 400 {object} apierrors.DefinedError "Узел не является блоком кода"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/codeblocks/{path}/ [get]
func (s *Services) getSessionCodeBlock(c echo.Context) error {
	view, err := codeBlockView(c)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, codeBlockResponse(view))
}

// setCodeBlockLanguage godoc
// @id setCodeBlockLanguage
// @Summary Редактор: язык блока кода
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param path path string true "Путь к блоку, например 0.2"
// @Param request body CodeBlockLanguageRequest true "Язык"
// @Success 200 {object} CodeBlockResponse "Блок кода"
// @Failure 400 {object} apierrors.DefinedError "Неизвестный язык"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/codeblocks/{path}/language/ [put]
func (s *Services) setCodeBlockLanguage(c echo.Context) error {
	var req CodeBlockLanguageRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrUnknownLanguage)
	}

	view, err := codeBlockView(c)
	if err != nil {
		return sessionError(c, err)
	}
	if err := view.SetLanguage(req.Language); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, codeBlockResponse(view))
}

// copyCodeBlock godoc
// @id copyCodeBlock
// @Summary Редактор: копирование блока кода
// @Description Копирует текст блока в буфер обмена. Отметка copied сбрасывается через 2 секунды.
// @Tags Editor
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param path path string true "Путь к блоку, например 0.2"
// @Success 200 {object} CodeBlockResponse "Блок кода"
// @Failure 400 {object} apierrors.DefinedError "Узел не является блоком кода"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/codeblocks/{path}/copy/ [post]
func (s *Services) copyCodeBlock(c echo.Context) error {
	view, err := codeBlockView(c)
	if err != nil {
		return sessionError(c, err)
	}
	if err := view.Copy(); err != nil {
		return EError(c, errStack.TrackErrorStack(err).AddContext("path", c.Param("path")))
	}
	return c.JSON(http.StatusOK, codeBlockResponse(view))
}

func codeBlockView(c echo.Context) (shell.CodeBlockControls, error) {
	path, err := parseNodePath(c.Param("path"))
	if err != nil {
		return nil, apierrors.ErrInvalidRequest.WithFormattedMessage("path")
	}
	return c.(SessionContext).Session.Editor().CodeBlockView(path)
}

func codeBlockResponse(view shell.CodeBlockControls) CodeBlockResponse {
	return CodeBlockResponse{
		Language:  view.Language(),
		Languages: view.Languages(),
		Copied:    view.Copied(),
	}
}

// parseNodePath разбирает путь к узлу документа вида "0.2.1".
func parseNodePath(raw string) ([]int, error) {
	parts := strings.Split(raw, ".")
	path := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, errors.New("invalid node path")
		}
		path[i] = n
	}
	return path, nil
}

// saveSessionDraft godoc
// @id saveSessionDraft
// @Summary Редактор: сохранение черновика
// @Tags Editor
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Success 200 {object} dto.Writing "Сохраненный черновик"
// @Failure 400 {object} apierrors.DefinedError "Нет заголовка или текста"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sessions/{sessionId}/draft/ [post]
func (s *Services) saveSessionDraft(c echo.Context) error {
	sess := c.(SessionContext).Session

	writing, err := sess.SaveDraft(c.Request().Context())
	if err != nil {
		return s.sessionSaveError(c, err)
	}
	return c.JSON(http.StatusOK, writing.ToDTO())
}

// publishSession godoc
// @id publishSession
// @Summary Редактор: публикация статьи
// @Tags Editor
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Success 200 {object} dto.Writing "Опубликованная статья"
// @Failure 400 {object} apierrors.DefinedError "Нет заголовка или текста"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sessions/{sessionId}/publish/ [post]
func (s *Services) publishSession(c echo.Context) error {
	sess := c.(SessionContext).Session

	writing, err := sess.Publish(c.Request().Context())
	if err != nil {
		return s.sessionSaveError(c, err)
	}
	s.renderer.Invalidate(writing)
	return c.JSON(http.StatusOK, writing.ToDTO())
}

func (s *Services) sessionSaveError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, sessions.ErrTitleRequired):
		return EErrorDefined(c, apierrors.ErrWritingTitleRequired)
	case errors.Is(err, sessions.ErrContentEmpty):
		return EErrorDefined(c, apierrors.ErrWritingContentEmpty)
	}
	return s.saveError(c, err)
}

// sessionError ошибки сессии и редактора в ответ API.
func sessionError(c echo.Context, err error) error {
	var defined apierrors.DefinedError
	switch {
	case errors.As(err, &defined):
		return EErrorDefined(c, defined)
	case errors.Is(err, sessions.ErrSessionNotFound):
		return EErrorDefined(c, apierrors.ErrSessionNotFound)
	case errors.Is(err, shell.ErrClosed), errors.Is(err, context.Canceled):
		return EErrorDefined(c, apierrors.ErrSessionClosed)
	case errors.Is(err, shell.ErrNotCodeBlock):
		return EErrorDefined(c, apierrors.ErrNotCodeBlock)
	case errors.Is(err, shell.ErrInvalidDocument):
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	case errors.Is(err, shell.ErrUnknownLanguage):
		return EErrorDefined(c, apierrors.ErrUnknownLanguage)
	case errors.Is(err, dao.ErrInvalidCategory):
		return EErrorDefined(c, apierrors.ErrInvalidCategory)
	case errors.Is(err, shell.ErrNoSelection),
		errors.Is(err, shell.ErrInvalidHeadingLevel),
		errors.Is(err, shell.ErrEmptyImageSource),
		errors.Is(err, shell.ErrNoUploader):
		return EErrorDefined(c, apierrors.ErrCommandFailed.WithFormattedMessage(err.Error()))
	}
	return EError(c, err)
}
