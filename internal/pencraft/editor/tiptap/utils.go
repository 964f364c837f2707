package tiptap

// attrOf атрибут узла указанного типа или нулевое значение.
func attrOf[T any](attrs map[string]interface{}, key string) T {
	v, _ := attrs[key].(T)
	return v
}

// attrNumber числовой атрибут. После декодирования JSON числа приходят как float64.
func attrNumber(attrs map[string]interface{}, key string) int {
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
