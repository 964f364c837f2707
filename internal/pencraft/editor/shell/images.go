package shell

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
)

var ErrEmptyImageSource = errors.New("image source is empty")

// InsertImage вставляет изображение в позицию курсора, курсор встает после него.
// В блоке кода изображение добавляется новым параграфом после блока.
func (e *Editor) InsertImage(src string) error {
	if src == "" {
		return ErrEmptyImageSource
	}
	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		img := edtypes.Image(src, "")

		if block.Type == edtypes.CodeBlockNode {
			insertAfter(st.doc, st.sel.Path, edtypes.Paragraph(img))
			st.sel = collapsed(sibling(st.sel.Path, 1), 1)
			return nil
		}

		sel := st.sel.ordered()
		units := explode(block)
		block.Content = implode(slices.Concat(units[:sel.From], []unit{{leaf: img}}, units[sel.To:]))
		st.sel = collapsed(sel.Path, sel.From+1)
		st.keepMarks = true
		return nil
	})
}

// AddImage сценарий выбора файла: проверка, синхронная загрузка и вставка
// с теми же уведомлениями, что и при вставке из буфера.
func (e *Editor) AddImage(ctx context.Context, f uploads.File) error {
	if err := uploads.ValidateImage(f.Type, f.Size); err != nil {
		e.notifier.Notify(uploadFailedNotification(err))
		return err
	}
	e.notifier.Notify(uploadingNotification)

	res, err := e.uploadImage(ctx, f)
	if err != nil {
		slog.Error("Upload image", "name", f.Name, "err", err)
		e.notifier.Notify(uploadFailedNotification(err))
		return err
	}
	if err := e.InsertImage(res.URL); err != nil {
		return err
	}
	e.notifier.Notify(uploadedNotification)
	return nil
}

func (e *Editor) uploadImage(ctx context.Context, f uploads.File) (*uploads.Result, error) {
	if e.uploader == nil {
		return nil, ErrNoUploader
	}
	if strings.TrimSpace(f.Name) == "" {
		f.Name = "image"
	}
	return e.uploader.UploadImage(ctx, f)
}
