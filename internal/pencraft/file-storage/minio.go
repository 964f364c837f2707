package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

type MinioStorage struct {
	client     *minio.Client
	bucketName string
	publicURL  string
}

func (s *MinioStorage) Save(ctx context.Context, key string, data []byte, contentType string, metadata *Metadata) error {
	return s.SaveReader(ctx, key, bytes.NewReader(data), int64(len(data)), contentType, metadata)
}

func (s *MinioStorage) SaveReader(ctx context.Context, key string, reader io.Reader, fileSize int64, contentType string, metadata *Metadata) error {
	putOptions := minio.PutObjectOptions{ContentType: contentType}
	if metadata != nil {
		putOptions.UserMetadata = metadata.GetMap()
	}

	var err error
	for i := range UploadTries {
		_, err = s.client.PutObject(ctx,
			s.bucketName,
			key,
			reader,
			fileSize,
			putOptions,
		)
		if err == nil {
			return nil
		}

		resp := minio.ToErrorResponse(err)
		slog.Error("Upload file to minio", "name", key, "try", i+1, "code", resp.StatusCode, "msg", resp.Message, "err", err)
		if !rewind(reader) {
			return err
		}
		if werr := waitRetry(ctx, i+1); werr != nil {
			return werr
		}
	}
	return err
}

func (s *MinioStorage) LoadReader(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx,
		s.bucketName,
		key,
		minio.GetObjectOptions{},
	)
}

func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(
		ctx,
		s.bucketName,
		key,
		minio.RemoveObjectOptions{},
	)
}

func (s *MinioStorage) Exist(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(
		ctx,
		s.bucketName,
		key,
		minio.StatObjectOptions{},
	)
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MinioStorage) ListRoot(ctx context.Context, fn func(info FileInfo) error) error {
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := fn(FileInfo{
			Name:        obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			CreatedAt:   obj.LastModified,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *MinioStorage) GetFileInfo(ctx context.Context, key string) (*FileInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &FileInfo{
		Name:        key,
		Size:        stat.Size,
		ContentType: stat.ContentType,
		CreatedAt:   stat.LastModified,
	}, nil
}

func (s *MinioStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucketName, strings.TrimPrefix(key, "/"))
}

// NewMinioStorage подключается к Minio и создает публично читаемый бакет, если его нет.
// publicURL адрес, по которому объекты доступны читателям, по умолчанию endpoint.
func NewMinioStorage(ctx context.Context, endpoint string, accessKeyID string, secretAccessKey string, useSSL bool, bucketName string, publicURL string) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, err
	}

	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		if err := client.SetBucketPolicy(ctx, bucketName, fmt.Sprintf(publicReadPolicy, bucketName)); err != nil {
			slog.Warn("Set public bucket policy", "bucket", bucketName, "err", err)
		}
	}

	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint
	}

	return &MinioStorage{client: client, bucketName: bucketName, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}
