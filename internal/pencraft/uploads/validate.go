package uploads

import "strings"

// ValidationError файл не прошел проверку перед загрузкой.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrNotImage = &ValidationError{Message: "File must be an image"}
	ErrTooLarge = &ValidationError{Message: "File size must be less than 5MB"}
)

// ValidateImage проверяет тип и размер. Размер ровно 5 МиБ допустим.
func ValidateImage(contentType string, size int64) error {
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotImage
	}
	if size > MaxImageSize {
		return ErrTooLarge
	}
	return nil
}

// IsImageType true для MIME типов изображений.
func IsImageType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
