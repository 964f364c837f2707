package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// lookupEnv значение переменной окружения без пробелов по краям. Пустое значение считается отсутствующим.
func lookupEnv(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}

func parseIntEnv(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return v, nil
}

func parseBoolEnv(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return v, nil
}
