package shell

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadResult struct {
	url string
	err error
}

// fakeUploader завершает загрузку файла только после resolve с его именем.
type fakeUploader struct {
	mu      sync.Mutex
	pending map[string]chan uploadResult
	calls   atomic.Int32
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{pending: make(map[string]chan uploadResult)}
}

func (u *fakeUploader) ch(name string) chan uploadResult {
	u.mu.Lock()
	defer u.mu.Unlock()
	c, ok := u.pending[name]
	if !ok {
		c = make(chan uploadResult, 1)
		u.pending[name] = c
	}
	return c
}

func (u *fakeUploader) resolve(name string, res uploadResult) {
	u.ch(name) <- res
}

func (u *fakeUploader) UploadImage(ctx context.Context, f uploads.File) (*uploads.Result, error) {
	u.calls.Add(1)
	select {
	case r := <-u.ch(f.Name):
		if r.err != nil {
			return nil, r.err
		}
		return &uploads.Result{URL: r.url}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func imageItem(name string, size int64) DataTransferItem {
	return DataTransferItem{
		Kind: "file",
		Type: "image/png",
		Name: name,
		Size: size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("png")), nil
		},
	}
}

func newPasteEditor(t *testing.T) (*Editor, *fakeUploader, chan Notification) {
	t.Helper()
	uploader := newFakeUploader()
	notes := make(chan Notification, 16)
	e := newTestEditor(t, "", func(o *Options) {
		o.Uploader = uploader
		o.Notifier = NotifierFunc(func(n Notification) { notes <- n })
	})
	return e, uploader, notes
}

func nextNotification(t *testing.T, notes chan Notification) Notification {
	t.Helper()
	select {
	case n := <-notes:
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("notification timeout")
		return Notification{}
	}
}

func TestPasteWithoutImages(t *testing.T) {
	e, uploader, notes := newPasteEditor(t)
	require.NoError(t, e.InsertText("x"))

	handled := e.HandlePaste(PasteEvent{Items: []DataTransferItem{
		{Kind: "string", Type: "text/plain"},
		{Kind: "string", Type: "text/html"},
	}})

	assert.False(t, handled)
	assert.Equal(t, "<p>x</p>", e.HTML())
	assert.Empty(t, notes)
	assert.Zero(t, uploader.calls.Load())
}

func TestPasteInsertsInCompletionOrder(t *testing.T) {
	e, uploader, notes := newPasteEditor(t)

	require.True(t, e.HandlePaste(PasteEvent{Items: []DataTransferItem{
		imageItem("a.png", 10),
		imageItem("b.png", 10),
	}}))
	assert.Equal(t, uploadingNotification, nextNotification(t, notes))
	assert.Equal(t, uploadingNotification, nextNotification(t, notes))

	uploader.resolve("b.png", uploadResult{url: "/images/b.png"})
	assert.Equal(t, uploadedNotification, nextNotification(t, notes))

	uploader.resolve("a.png", uploadResult{url: "/images/a.png"})
	assert.Equal(t, uploadedNotification, nextNotification(t, notes))

	e.Wait()
	assert.Equal(t, `<p><img src="/images/b.png"><img src="/images/a.png"></p>`, e.HTML())
	assert.Equal(t, 2, e.Selection().From)
}

func TestPasteValidation(t *testing.T) {
	e, uploader, notes := newPasteEditor(t)

	require.True(t, e.HandlePaste(PasteEvent{Items: []DataTransferItem{
		imageItem("big.png", uploads.MaxImageSize+1),
	}}))

	n := nextNotification(t, notes)
	assert.Equal(t, NotifyError, n.Kind)
	assert.Equal(t, "Upload failed", n.Title)
	assert.Equal(t, "File size must be less than 5MB", n.Description)

	e.Wait()
	assert.Zero(t, uploader.calls.Load())
	assert.Equal(t, "<p></p>", e.HTML())
}

func TestPasteUploadFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain error", errors.New("bucket unavailable"), "bucket unavailable"},
		{"storage error", &uploads.UploadError{Path: "images/x.png", Err: errors.New("bucket unavailable")}, "upload images/x.png: bucket unavailable"},
		{"empty message", errors.New(""), genericUploadError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, uploader, notes := newPasteEditor(t)

			require.True(t, e.HandlePaste(PasteEvent{Items: []DataTransferItem{imageItem("a.png", 10)}}))
			nextNotification(t, notes)

			uploader.resolve("a.png", uploadResult{err: tt.err})
			n := nextNotification(t, notes)
			assert.Equal(t, NotifyError, n.Kind)
			assert.Equal(t, "Upload failed", n.Title)
			assert.Equal(t, tt.want, n.Description)

			e.Wait()
			assert.Equal(t, "<p></p>", e.HTML())
			assert.False(t, e.CanUndo())
		})
	}
}

func TestPasteOnClosedEditor(t *testing.T) {
	e, uploader, notes := newPasteEditor(t)
	e.Close()
	e.Wait()

	handled := e.HandlePaste(PasteEvent{Items: []DataTransferItem{imageItem("a.png", 10)}})
	e.Wait()

	assert.False(t, handled)
	assert.Empty(t, notes)
	assert.Zero(t, uploader.calls.Load())
	assert.Equal(t, "<p></p>", e.HTML())
}

func TestPasteAfterClose(t *testing.T) {
	e, uploader, notes := newPasteEditor(t)

	require.True(t, e.HandlePaste(PasteEvent{Items: []DataTransferItem{imageItem("a.png", 10)}}))
	nextNotification(t, notes)

	e.Close()
	uploader.resolve("a.png", uploadResult{url: "/images/a.png"})
	e.Wait()

	assert.Equal(t, "<p></p>", e.HTML())
	assert.Empty(t, notes)
}

func TestAddImage(t *testing.T) {
	e, uploader, notes := newPasteEditor(t)
	uploader.resolve("a.png", uploadResult{url: "/images/a.png"})

	err := e.AddImage(context.Background(), uploads.File{Name: "a.png", Type: "image/png", Size: 3, Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, `<p><img src="/images/a.png"></p>`, e.HTML())
	assert.Equal(t, uploadingNotification, nextNotification(t, notes))
	assert.Equal(t, uploadedNotification, nextNotification(t, notes))

	t.Run("storage failure keeps message", func(t *testing.T) {
		uploader.resolve("b.png", uploadResult{err: &uploads.UploadError{Path: "images/b.png", Err: errors.New("timeout")}})
		err := e.AddImage(context.Background(), uploads.File{Name: "b.png", Type: "image/png", Size: 3, Body: strings.NewReader("png")})
		require.Error(t, err)
		assert.Equal(t, uploadingNotification, nextNotification(t, notes))

		n := nextNotification(t, notes)
		assert.Equal(t, "upload images/b.png: timeout", n.Description)
	})

	t.Run("invalid type", func(t *testing.T) {
		err := e.AddImage(context.Background(), uploads.File{Name: "a.txt", Type: "text/plain", Size: 3})
		assert.ErrorIs(t, err, uploads.ErrNotImage)

		n := nextNotification(t, notes)
		assert.Equal(t, "File must be an image", n.Description)
	})
}

func TestInsertImageInCodeBlock(t *testing.T) {
	e := newTestEditor(t, `<pre><code class="language-go">x</code></pre>`)
	require.NoError(t, e.InsertImage("/images/a.png"))
	assert.Equal(t, `<pre><code class="language-go">x</code></pre><p><img src="/images/a.png"></p>`, e.HTML())
	assert.ErrorIs(t, e.InsertImage(""), ErrEmptyImageSource)
}
