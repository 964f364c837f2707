// Валидация запросов API на основе go-playground/validator.
//
// Основные возможности:
//   - Проверка категории статьи.
//   - Ограничения на количество и длину тегов.
//   - Проверка языка блока кода.
package pencraft

import (
	"reflect"
	"unicode/utf8"

	"github.com/aisa-it/pencraft/internal/pencraft/editor"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/go-playground/validator"
)

const (
	maxTags      = 20
	maxTagLength = 50
)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	if err := v.RegisterValidation("category", categoryValidator); err != nil {
		return nil
	}
	if err := v.RegisterValidation("tags", tagsValidator); err != nil {
		return nil
	}
	if err := v.RegisterValidation("language", languageValidator); err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		if _, ok := err.(validator.ValidationErrors); !ok {
			return nil
		}
		return err
	}
	return nil
}

func categoryValidator(fl validator.FieldLevel) bool {
	return types.Category(fl.Field().String()).IsValid()
}

func tagsValidator(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	if field.Len() > maxTags {
		return false
	}
	for i := 0; i < field.Len(); i++ {
		if utf8.RuneCountInString(field.Index(i).String()) > maxTagLength {
			return false
		}
	}
	return true
}

func languageValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || editor.IsSupportedLanguage(value)
}
