package forms

import (
	"encoding/json"
	"fmt"
)

// FromServer раскладывает тело ответа сервера с ошибкой.
//
// Объект без ключей message и error считается ошибками полей: у массивов
// берётся первый элемент, строки идут как есть. Иначе общая ошибка берётся из
// message, error или detail, а при их отсутствии подставляется fallback.
// Пустое или нечитаемое тело даёт fallback.
func FromServer(body []byte, fallback string) Errors {
	var raw any
	if len(body) == 0 || json.Unmarshal(body, &raw) != nil {
		return Errors{General: fallback}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return Errors{General: fallback}
	}

	if !truthy(obj["message"]) && !truthy(obj["error"]) {
		fields := make(map[string]string, len(obj))
		for k, v := range obj {
			switch vv := v.(type) {
			case []any:
				if len(vv) > 0 {
					fields[k] = text(vv[0])
				}
			case string:
				fields[k] = vv
			}
		}

		if len(fields) == 0 {
			return Errors{General: fallback}
		}

		return Errors{Fields: fields}
	}

	return Errors{General: GeneralMessage(body, fallback)}
}

// GeneralMessage — первое непустое строковое значение из message, error,
// detail; иначе fallback.
func GeneralMessage(body []byte, fallback string) string {
	var obj map[string]any
	if len(body) == 0 || json.Unmarshal(body, &obj) != nil {
		return fallback
	}

	for _, key := range []string{"message", "error", "detail"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}

	return fallback
}

func truthy(v any) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case string:
		return vv != ""
	case bool:
		return vv
	case float64:
		return vv != 0
	default:
		return true
	}
}

func text(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}
