// Пакет uploads реализует загрузку изображений для редактора и обложек публикаций.
//
// Основные возможности:
//   - Проверка файла до загрузки: только image/*, не больше 5 МиБ.
//   - Уникальные ключи объектов вида images/<uuid>.<ext>.
//   - Определение типа содержимого по сигнатуре, если тип не передан.
//   - Миниатюры обложек.
//   - Учет загруженных объектов для последующей очистки.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	filestorage "github.com/aisa-it/pencraft/internal/pencraft/file-storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MaxImageSize = 5 * 1024 * 1024

	ImagesPrefix     = "images/"
	ThumbnailsPrefix = "thumbnails/"
)

var ErrEmptyPath = errors.New("empty image path")

// File загружаемый файл. Size обязателен, Type может быть пустым.
type File struct {
	Name string
	Type string
	Size int64
	Body io.Reader
}

// Result описание загруженного объекта.
type Result struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

// Asset запись о загруженном объекте для учета в базе.
type Asset struct {
	Result
	CreatedAt time.Time
}

// AssetRecorder сохраняет сведения о загруженных объектах.
type AssetRecorder interface {
	RecordAsset(ctx context.Context, asset Asset) error
}

// UploadError ошибка сохранения объекта в хранилище.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

type Service struct {
	storage  filestorage.FileStorage
	recorder AssetRecorder

	uploads *prometheus.CounterVec
}

func NewService(storage filestorage.FileStorage, recorder AssetRecorder) *Service {
	return &Service{
		storage:  storage,
		recorder: recorder,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pencraft",
			Name:      "image_uploads_total",
			Help:      "Image uploads by result",
		}, []string{"result"}),
	}
}

// Collectors метрики сервиса для регистрации.
func (s *Service) Collectors() []prometheus.Collector {
	return []prometheus.Collector{s.uploads}
}

// UploadImage проверяет файл и сохраняет его под уникальным ключом.
// При ошибке проверки хранилище не вызывается.
func (s *Service) UploadImage(ctx context.Context, file File) (*Result, error) {
	res, _, err := s.upload(ctx, file, &filestorage.Metadata{Kind: "image"})
	return res, err
}

func (s *Service) upload(ctx context.Context, file File, meta *filestorage.Metadata) (*Result, []byte, error) {
	body := file.Body
	if file.Type == "" {
		file.Type, body = sniffType(file.Body)
	}

	if err := ValidateImage(file.Type, file.Size); err != nil {
		s.uploads.WithLabelValues("invalid").Inc()
		return nil, nil, err
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxImageSize+1))
	if err != nil {
		s.uploads.WithLabelValues("failed").Inc()
		return nil, nil, &UploadError{Err: err}
	}
	if int64(len(data)) > MaxImageSize {
		s.uploads.WithLabelValues("invalid").Inc()
		return nil, nil, ErrTooLarge
	}

	key := ImagesPrefix + GenUUID().String() + "." + fileExtension(file.Name, file.Type)
	if err := s.storage.Save(ctx, key, data, file.Type, meta); err != nil {
		s.uploads.WithLabelValues("failed").Inc()
		return nil, nil, &UploadError{Path: key, Err: err}
	}
	s.uploads.WithLabelValues("ok").Inc()

	res := &Result{
		Path:     key,
		URL:      s.storage.PublicURL(key),
		FileSize: int64(len(data)),
		FileType: file.Type,
	}
	s.record(ctx, *res)
	return res, data, nil
}

func (s *Service) record(ctx context.Context, res Result) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordAsset(ctx, Asset{Result: res, CreatedAt: time.Now()}); err != nil {
		slog.Warn("Record uploaded asset", "path", res.Path, "err", err)
	}
}

// DeleteImage удаляет объект из хранилища. Отсутствующий объект не считается ошибкой.
func (s *Service) DeleteImage(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyPath
	}
	if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, filestorage.ErrNotFound) {
		return err
	}
	return nil
}

// GenUUID генерирует случайный UUID v4.
func GenUUID() uuid.UUID {
	u, _ := uuid.NewV4()
	return u
}

// PathFromURL извлекает ключ объекта из публичной ссылки.
// Возвращает пустую строку, если ссылка не указывает на загруженное изображение.
func PathFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, prefix := range []string{ImagesPrefix, ThumbnailsPrefix} {
		if idx := strings.Index(u.Path, "/"+prefix); idx >= 0 {
			return u.Path[idx+1:]
		}
	}
	return ""
}

var extRegexp = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func fileExtension(name string, contentType string) string {
	if ext := strings.TrimPrefix(path.Ext(name), "."); ext != "" && extRegexp.MatchString(ext) {
		return ext
	}
	if mt := mimetype.Lookup(contentType); mt != nil && mt.Extension() != "" {
		return strings.TrimPrefix(mt.Extension(), ".")
	}
	sub := contentType[strings.Index(contentType, "/")+1:]
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	if sub == "" {
		return "bin"
	}
	return sub
}

func sniffType(r io.Reader) (string, io.Reader) {
	head := make([]byte, 3072)
	n, _ := io.ReadFull(r, head)
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r)
}
