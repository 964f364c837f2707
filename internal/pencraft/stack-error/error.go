// Пакет накапливает контекст и точки прохождения ошибки по слоям приложения
// и выводит их одной записью лога при ответе на запрос.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/labstack/echo/v4"
)

type TrackerError struct {
	Context map[string]any
	Trace   []string
	cause   error
}

// TrackErrorStack добавляет к ошибке место вызова. Повторный вызов дополняет существующий след.
func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if !errors.As(err, &te) {
		te = &TrackerError{Context: make(map[string]any), cause: err}
	}
	te.Trace = append(te.Trace, callerLine(err))
	return te
}

// AddContext добавляет значение, если ключ еще не задан.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

func (te *TrackerError) AddErr(err error) *TrackerError {
	te.Trace = append(te.Trace, callerLine(err))
	return te
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

// LogError пишет ошибку со всем накопленным контекстом и данными запроса.
func LogError(c echo.Context, err error) {
	var attrs []any

	var te *TrackerError
	if errors.As(err, &te) {
		for _, k := range slices.Sorted(maps.Keys(te.Context)) {
			attrs = append(attrs, slog.Any(k, te.Context[k]))
		}
		attrs = append(attrs, slog.Any("trace", te.Trace))
	} else {
		attrs = append(attrs, slog.String("raw_error", err.Error()))
	}

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
	}

	slog.With(attrs...).Error("stack error")
}

func callerLine(err error) string {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	_, file := filepath.Split(path)
	return fmt.Sprintf("%s:%d %s", file, no, err.Error())
}
