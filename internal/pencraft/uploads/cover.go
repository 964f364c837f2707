package uploads

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"

	_ "image/gif"
	_ "image/png"

	filestorage "github.com/aisa-it/pencraft/internal/pencraft/file-storage"
	"github.com/nfnt/resize"
)

const thumbnailSize = 512

// CoverResult загруженная обложка и ее миниатюра.
type CoverResult struct {
	Result
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
}

// UploadCover загружает обложку публикации и сохраняет JPEG миниатюру.
// Если формат не декодируется, обложка сохраняется без миниатюры.
func (s *Service) UploadCover(ctx context.Context, file File) (*CoverResult, error) {
	res, data, err := s.upload(ctx, file, &filestorage.Metadata{Kind: "cover"})
	if err != nil {
		return nil, err
	}
	cover := &CoverResult{Result: *res}

	thumb, err := imageThumbnail(data)
	if err != nil {
		slog.Warn("Cover thumbnail", "path", res.Path, "err", err)
		return cover, nil
	}

	key := ThumbnailsPrefix + GenUUID().String() + ".jpg"
	if err := s.storage.Save(ctx, key, thumb, "image/jpeg", &filestorage.Metadata{Kind: "thumbnail"}); err != nil {
		slog.Warn("Save cover thumbnail", "path", key, "err", err)
		return cover, nil
	}
	cover.ThumbnailPath = key
	cover.ThumbnailURL = s.storage.PublicURL(key)
	s.record(ctx, Result{Path: key, URL: cover.ThumbnailURL, FileSize: int64(len(thumb)), FileType: "image/jpeg"})
	return cover, nil
}

func imageThumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	thumb := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Lanczos3)
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
