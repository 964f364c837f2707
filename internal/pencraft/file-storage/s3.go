package filestorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage хранилище поверх AWS S3 или совместимого сервиса.
type S3Storage struct {
	client     *s3.Client
	bucketName string
	publicURL  string
}

func (s *S3Storage) Save(ctx context.Context, key string, data []byte, contentType string, metadata *Metadata) error {
	return s.SaveReader(ctx, key, bytes.NewReader(data), int64(len(data)), contentType, metadata)
}

func (s *S3Storage) SaveReader(ctx context.Context, key string, reader io.Reader, fileSize int64, contentType string, metadata *Metadata) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(fileSize),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("max-age=3600"),
	}
	if metadata != nil {
		input.Metadata = metadata.GetMap()
	}

	var err error
	for i := range UploadTries {
		if _, err = s.client.PutObject(ctx, input); err == nil {
			return nil
		}
		slog.Error("Upload file to s3", "name", key, "try", i+1, "err", err)
		if !rewind(reader) {
			return err
		}
		if werr := waitRetry(ctx, i+1); werr != nil {
			return werr
		}
	}
	return err
}

func (s *S3Storage) LoadReader(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Storage) Exist(ctx context.Context, key string) (bool, error) {
	_, err := s.GetFileInfo(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *S3Storage) ListRoot(ctx context.Context, fn func(FileInfo) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			if err := fn(FileInfo{
				Name:      aws.ToString(obj.Key),
				Size:      aws.ToInt64(obj.Size),
				CreatedAt: aws.ToTime(obj.LastModified),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *S3Storage) GetFileInfo(ctx context.Context, key string) (*FileInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &FileInfo{
		Name:        key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		CreatedAt:   aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucketName, strings.TrimPrefix(key, "/"))
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}

// NewS3Storage создает клиент S3. Пустой endpoint означает AWS, ключи берутся из окружения, если не заданы явно.
func NewS3Storage(ctx context.Context, endpoint, region, accessKeyID, secretAccessKey, bucketName, publicURL string) (*S3Storage, error) {
	var opts []func(*s3config.LoadOptions) error
	if region != "" {
		opts = append(opts, s3config.WithRegion(region))
	}
	if accessKeyID != "" {
		opts = append(opts, s3config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")))
	}

	s3cfg, err := s3config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(s3cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	if publicURL == "" {
		if endpoint != "" {
			publicURL = endpoint
		} else {
			publicURL = fmt.Sprintf("https://s3.%s.amazonaws.com", s3cfg.Region)
		}
	}

	return &S3Storage{client: client, bucketName: bucketName, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}
