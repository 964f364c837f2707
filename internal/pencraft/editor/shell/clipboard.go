package shell

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard приемник текста для кнопки копирования блока кода.
type Clipboard interface {
	WriteText(text string) error
}

// SystemClipboard системный буфер обмена.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}

// MemoryClipboard буфер обмена сессии, содержимое забирает клиент.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *MemoryClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *MemoryClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}
