// Пакет содержит каталог ошибок API. Каждая ошибка имеет код, статус HTTP и описание на английском и русском языках.
//
// Основные возможности:
//   - Ошибки статей, загрузки изображений, сессий редактора и общих проверок запроса.
//   - Форматирование сообщений с аргументами.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - общие ошибки запроса
	ErrGeneric         = DefinedError{Code: 1000, StatusCode: http.StatusInternalServerError, Err: "internal error", RuErr: "Внутренняя ошибка сервера"}
	ErrInvalidRequest  = DefinedError{Code: 1001, StatusCode: http.StatusBadRequest, Err: "invalid request: %s", RuErr: "Некорректный запрос: %s"}
	ErrInvalidID       = DefinedError{Code: 1002, StatusCode: http.StatusBadRequest, Err: "invalid ID", RuErr: "Указан неверный ID"}
	ErrInvalidCategory = DefinedError{Code: 1003, StatusCode: http.StatusBadRequest, Err: "unknown category", RuErr: "Неизвестная категория"}

	// 2*** - ошибки статей
	ErrWritingNotFound       = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "writing not found", RuErr: "Статья не найдена"}
	ErrWritingTitleRequired  = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "please add a title to your writing", RuErr: "Добавьте заголовок статьи"}
	ErrWritingContentEmpty   = DefinedError{Code: 2003, StatusCode: http.StatusBadRequest, Err: "please add some content to your writing", RuErr: "Добавьте текст статьи"}
	ErrWritingSaveFailed     = DefinedError{Code: 2004, StatusCode: http.StatusInternalServerError, Err: "there was an error saving your writing", RuErr: "Не удалось сохранить статью"}
	ErrWritingNotPublished   = DefinedError{Code: 2005, StatusCode: http.StatusNotFound, Err: "writing is not published", RuErr: "Статья не опубликована"}
	ErrWritingRenderFailed   = DefinedError{Code: 2006, StatusCode: http.StatusInternalServerError, Err: "failed to render writing", RuErr: "Не удалось подготовить статью к просмотру"}
	ErrWritingDeleteFailed   = DefinedError{Code: 2007, StatusCode: http.StatusInternalServerError, Err: "there was an error deleting your writing", RuErr: "Не удалось удалить статью"}
	ErrWritingSearchTooLong  = DefinedError{Code: 2008, StatusCode: http.StatusBadRequest, Err: "search query is too long", RuErr: "Слишком длинный поисковый запрос"}

	// 3*** - ошибки изображений
	ErrImageNotImage     = DefinedError{Code: 3001, StatusCode: http.StatusUnsupportedMediaType, Err: "File must be an image", RuErr: "Файл должен быть изображением"}
	ErrImageTooLarge     = DefinedError{Code: 3002, StatusCode: http.StatusRequestEntityTooLarge, Err: "File size must be less than 5MB", RuErr: "Размер файла должен быть меньше 5 МБ"}
	ErrImageUploadFailed = DefinedError{Code: 3003, StatusCode: http.StatusBadGateway, Err: "There was an error uploading your image.", RuErr: "Не удалось загрузить изображение"}
	ErrImageMissing      = DefinedError{Code: 3004, StatusCode: http.StatusBadRequest, Err: "asset form field is required", RuErr: "Не передан файл изображения"}

	// 4*** - ошибки сессий редактора
	ErrSessionNotFound     = DefinedError{Code: 4001, StatusCode: http.StatusNotFound, Err: "editing session not found", RuErr: "Сессия редактирования не найдена"}
	ErrSessionClosed       = DefinedError{Code: 4002, StatusCode: http.StatusGone, Err: "editing session closed", RuErr: "Сессия редактирования закрыта"}
	ErrUnknownCommand      = DefinedError{Code: 4003, StatusCode: http.StatusBadRequest, Err: "unknown editor command %s", RuErr: "Неизвестная команда редактора %s"}
	ErrCommandFailed       = DefinedError{Code: 4004, StatusCode: http.StatusUnprocessableEntity, Err: "editor command failed: %s", RuErr: "Команда редактора не выполнена: %s"}
	ErrUnknownLanguage     = DefinedError{Code: 4005, StatusCode: http.StatusBadRequest, Err: "unknown code block language", RuErr: "Неизвестный язык блока кода"}
	ErrNotCodeBlock        = DefinedError{Code: 4006, StatusCode: http.StatusBadRequest, Err: "node is not a code block", RuErr: "Узел не является блоком кода"}
	ErrSessionPublishEmpty = DefinedError{Code: 4007, StatusCode: http.StatusBadRequest, Err: "title and content are required to publish", RuErr: "Для публикации нужны заголовок и текст"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
