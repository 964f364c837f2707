// Вспомогательные функции для работы с данными, часто используемые в различных частях приложения.
//
// Основные возможности:
//   - Преобразование слайсов в множества (map[T]struct{}) и слайсов в слайсы другого типа.
//   - Нормализация списков тегов.
//   - Подготовка текста публикаций: slug, подсчет слов, время чтения.
package utils

import (
	"strings"
)

func SliceToSet[T comparable](ids []T) map[T]struct{} {
	res := make(map[T]struct{})
	for _, id := range ids {
		res[id] = struct{}{}
	}
	return res
}

func CheckInSet[T comparable](set map[T]struct{}, all ...T) bool {
	for _, el := range all {
		if _, ok := set[el]; ok {
			return true
		}
	}
	return false
}

func CheckInSlice[T comparable](in []T, all ...T) bool {
	set := SliceToSet(in)
	return CheckInSet(set, all...)
}

func SliceToSlice[T any, U any](in *[]T, f func(*T) U) []U {
	if in == nil {
		return make([]U, 0)
	}
	out := make([]U, len(*in))
	for i, v := range *in {
		out[i] = f(&v)
	}
	return out
}

// NormalizeTags обрезает пробелы, отбрасывает пустые значения и повторы, сохраняя порядок.
func NormalizeTags(tags []string) []string {
	res := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		res = append(res, tag)
	}
	return res
}

// SplitTags разбирает строку тегов через запятую.
func SplitTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}
