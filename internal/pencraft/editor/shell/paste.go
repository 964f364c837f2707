package shell

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
)

// DataTransferItem элемент буфера обмена при вставке.
type DataTransferItem struct {
	Kind string
	Type string
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type PasteEvent struct {
	Items []DataTransferItem
}

func (ev PasteEvent) images() []DataTransferItem {
	var res []DataTransferItem
	for _, item := range ev.Items {
		if uploads.IsImageType(item.Type) {
			res = append(res, item)
		}
	}
	return res
}

// HandlePaste перехватывает вставку изображений. Если изображений нет или редактор закрыт,
// возвращает false и документ не меняется. Каждое изображение загружается независимо,
// вставка происходит в порядке завершения загрузок.
func (e *Editor) HandlePaste(ev PasteEvent) bool {
	images := ev.images()
	if len(images) == 0 {
		return false
	}

	valid := 0
	errs := make([]error, len(images))
	for i, item := range images {
		if errs[i] = uploads.ValidateImage(item.Type, item.Size); errs[i] == nil {
			valid++
		}
	}

	// Запуск загрузок и Close упорядочены через e.mu.
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.wg.Add(valid)
	e.mu.Unlock()

	for i, item := range images {
		if errs[i] != nil {
			e.notifier.Notify(uploadFailedNotification(errs[i]))
			continue
		}
		e.notifier.Notify(uploadingNotification)
		go e.pasteImage(item)
	}
	return true
}

func (e *Editor) pasteImage(item DataTransferItem) {
	defer e.wg.Done()

	if item.Open == nil {
		e.notifier.Notify(uploadFailedNotification(nil))
		return
	}
	body, err := item.Open()
	if err != nil {
		slog.Error("Open pasted image", "name", item.Name, "err", err)
		e.notifier.Notify(uploadFailedNotification(nil))
		return
	}
	defer body.Close()

	res, err := e.uploadImage(e.ctx, uploads.File{Name: item.Name, Type: item.Type, Size: item.Size, Body: body})
	if e.ctx.Err() != nil {
		return
	}
	if err != nil {
		slog.Error("Upload pasted image", "name", item.Name, "err", err)
		e.notifier.Notify(uploadFailedNotification(err))
		return
	}

	if err := e.InsertImage(res.URL); err != nil {
		return
	}
	e.notifier.Notify(uploadedNotification)
}

// PasteHTML вставка HTML фрагмента. Один параграф вставляется в текущий блок,
// несколько блоков разбивают текущий блок в позиции курсора.
func (e *Editor) PasteHTML(content string) error {
	frag, err := e.schema.ParseHTML(strings.NewReader(content))
	if err != nil {
		return err
	}
	if frag.IsEmpty() {
		return nil
	}

	return e.update(func(st *state) error {
		block := st.block()
		if block == nil {
			return ErrNoSelection
		}
		units := deleteRange(st, block)
		path, pos := st.sel.Path, st.sel.From
		blocks := frag.Content

		if block.Type == edtypes.CodeBlockNode {
			lines := make([]string, len(blocks))
			for i, b := range blocks {
				lines[i] = b.TextContent()
			}
			ins := textUnits(strings.Join(lines, "\n"), nil)
			block.Content = implode(slices.Concat(units[:pos], ins, units[pos:]))
			st.sel = collapsed(path, pos+len(ins))
			return nil
		}

		if len(blocks) == 1 && blocks[0].Type == edtypes.ParagraphNode {
			ins := explode(blocks[0])
			block.Content = implode(slices.Concat(units[:pos], ins, units[pos:]))
			st.sel = collapsed(path, pos+len(ins))
			return nil
		}

		var nodes []*edtypes.Node
		offset := 0
		if pos > 0 {
			nodes = append(nodes, &edtypes.Node{Type: block.Type, Attrs: block.Attrs, Content: implode(units[:pos])})
			offset = 1
		}
		nodes = append(nodes, blocks...)
		if pos < len(units) {
			nodes = append(nodes, &edtypes.Node{Type: block.Type, Attrs: block.Attrs, Content: implode(units[pos:])})
		}
		replaceAt(st.doc, path, nodes...)

		lastPath := sibling(path, offset+len(blocks)-1)
		if p := lastTextblock(nodeAt(st.doc, lastPath), lastPath); p != nil {
			st.sel = collapsed(p, len(explode(nodeAt(st.doc, p))))
		}
		return nil
	})
}
