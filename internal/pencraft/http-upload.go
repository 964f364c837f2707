package pencraft

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/aisa-it/pencraft/internal/pencraft/apierrors"
	errStack "github.com/aisa-it/pencraft/internal/pencraft/stack-error"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"github.com/labstack/echo/v4"
)

// assetField имя поля multipart формы с файлом.
const assetField = "asset"

func (s *Services) AddUploadServices(g *echo.Group) {
	g.POST("images/", s.uploadImage)
	g.POST("covers/", s.uploadCover)
}

// uploadImage godoc
// @id uploadImage
// @Summary Изображения: загрузка изображения для статьи
// @Description Загружает изображение не больше 5 МБ и возвращает его публичный адрес.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param asset formData file true "Изображение"
// @Success 201 {object} uploads.Result "Загруженное изображение"
// @Failure 400 {object} apierrors.DefinedError "Не передан файл"
// @Failure 413 {object} apierrors.DefinedError "Большой объем файла"
// @Failure 415 {object} apierrors.DefinedError "Файл не является изображением"
// @Failure 502 {object} apierrors.DefinedError "Ошибка хранилища"
// @Router /api/images/ [post]
func (s *Services) uploadImage(c echo.Context) error {
	fh, err := c.FormFile(assetField)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrImageMissing)
	}

	res, err := withFormFile(fh, func(f uploads.File) (*uploads.Result, error) {
		return s.uploads.UploadImage(c.Request().Context(), f)
	})
	if err != nil {
		return uploadError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// uploadCover godoc
// @id uploadCover
// @Summary Изображения: загрузка обложки
// @Description Загружает обложку статьи и создает ее миниатюру.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param asset formData file true "Обложка"
// @Success 201 {object} uploads.CoverResult "Загруженная обложка"
// @Failure 400 {object} apierrors.DefinedError "Не передан файл"
// @Failure 413 {object} apierrors.DefinedError "Большой объем файла"
// @Failure 415 {object} apierrors.DefinedError "Файл не является изображением"
// @Failure 502 {object} apierrors.DefinedError "Ошибка хранилища"
// @Router /api/covers/ [post]
func (s *Services) uploadCover(c echo.Context) error {
	fh, err := c.FormFile(assetField)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrImageMissing)
	}

	res, err := withFormFile(fh, func(f uploads.File) (*uploads.CoverResult, error) {
		return s.uploads.UploadCover(c.Request().Context(), f)
	})
	if err != nil {
		return uploadError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// withFormFile открывает файл формы на время загрузки.
func withFormFile[T any](fh *multipart.FileHeader, upload func(uploads.File) (T, error)) (T, error) {
	var zero T
	file, err := fh.Open()
	if err != nil {
		return zero, err
	}
	defer file.Close()

	return upload(formFile(fh, file))
}

func formFile(fh *multipart.FileHeader, body multipart.File) uploads.File {
	return uploads.File{
		Name: fh.Filename,
		Type: fh.Header.Get(echo.HeaderContentType),
		Size: fh.Size,
		Body: body,
	}
}

// uploadError ошибки проверки возвращаются клиенту, ошибки хранилища логируются.
func uploadError(c echo.Context, err error) error {
	var ve *uploads.ValidationError
	if errors.As(err, &ve) {
		if ve == uploads.ErrTooLarge {
			return EErrorDefined(c, apierrors.ErrImageTooLarge)
		}
		return EErrorDefined(c, apierrors.ErrImageNotImage)
	}

	errStack.LogError(c, errStack.TrackErrorStack(err))
	return EErrorDefined(c, apierrors.ErrImageUploadFailed)
}
