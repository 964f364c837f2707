// Пакет предоставляет интерфейс и реализации для работы с файловым хранилищем изображений: локальная директория, Minio и S3-совместимые хранилища.
// Он обеспечивает операции сохранения, загрузки, удаления и обхода объектов, а также построение публичных ссылок.
//
// Основные возможности:
//   - Единый интерфейс FileStorage с ключами вида images/<uuid>.<ext>.
//   - Повторные попытки загрузки для сетевых хранилищ.
//   - Метаданные объектов (тип ресурса, публикация).
//   - Публичные URL для встраивания изображений в контент.
package filestorage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	UploadTries = 3
)

var ErrNotFound = errors.New("file not found")

type Metadata struct {
	Kind      string
	WritingId string
}

type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
	CreatedAt   time.Time
}

func (m Metadata) GetMap() map[string]string {
	meta := make(map[string]string)
	if m.Kind != "" {
		meta["kind"] = m.Kind
	}
	if m.WritingId != "" {
		meta["writingId"] = m.WritingId
	}
	return meta
}

type FileStorage interface {
	Save(ctx context.Context, key string, data []byte, contentType string, metadata *Metadata) error
	SaveReader(ctx context.Context, key string, reader io.Reader, fileSize int64, contentType string, metadata *Metadata) error
	LoadReader(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exist(ctx context.Context, key string) (bool, error)
	ListRoot(ctx context.Context, fn func(FileInfo) error) error
	GetFileInfo(ctx context.Context, key string) (*FileInfo, error)
	PublicURL(key string) string
}

// LocalStorage хранит файлы в директории на диске, ссылки строятся от publicURL.
type LocalStorage struct {
	rootDir   string
	publicURL string
}

func NewLocalStorage(rootPath string, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, err
	}
	return &LocalStorage{rootDir: rootPath, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (s *LocalStorage) filePath(key string) string {
	return filepath.Join(s.rootDir, filepath.FromSlash(path.Clean("/"+key)))
}

func (s *LocalStorage) Save(ctx context.Context, key string, data []byte, contentType string, metadata *Metadata) error {
	p := s.filePath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0644)
}

func (s *LocalStorage) SaveReader(ctx context.Context, key string, reader io.Reader, fileSize int64, contentType string, metadata *Metadata) error {
	p := s.filePath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		os.Remove(p)
		return err
	}
	return nil
}

func (s *LocalStorage) LoadReader(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.filePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.filePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStorage) Exist(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.filePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *LocalStorage) ListRoot(ctx context.Context, fn func(FileInfo) error) error {
	return filepath.WalkDir(s.rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return ctx.Err()
		}
		rel, err := filepath.Rel(s.rootDir, p)
		if err != nil {
			return err
		}
		info, err := s.GetFileInfo(ctx, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		return fn(*info)
	})
}

func (s *LocalStorage) GetFileInfo(ctx context.Context, key string) (*FileInfo, error) {
	p := s.filePath(key)
	stat, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var contentType string
	if mt, err := mimetype.DetectFile(p); err == nil {
		contentType = mt.String()
	}

	return &FileInfo{
		Name:        key,
		Size:        stat.Size(),
		ContentType: contentType,
		CreatedAt:   stat.ModTime(),
	}, nil
}

func (s *LocalStorage) PublicURL(key string) string {
	return s.publicURL + "/" + strings.TrimPrefix(key, "/")
}

// rewind возвращает reader к началу перед повторной попыткой загрузки.
func rewind(reader io.Reader) bool {
	seeker, ok := reader.(io.Seeker)
	if !ok {
		return false
	}
	_, err := seeker.Seek(0, io.SeekStart)
	return err == nil
}

func waitRetry(ctx context.Context, try int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(try) * time.Second):
		return nil
	}
}
