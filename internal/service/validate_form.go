package service

import (
	"strconv"
	"strings"
)

// ValidationError es un error de campo reportado por el validador.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateOnboardingForm revisa el payload crudo del wizard y devuelve todos
// los errores de campo encontrados, en orden estable. Una lista vacía
// significa que el submission puede pasar a persistencia.
func ValidateOnboardingForm(data map[string]any) []ValidationError {
	var errs []ValidationError

	if !hasText(data["name"]) {
		errs = append(errs, ValidationError{Field: "name", Message: "Name is required"})
	}
	if !hasText(data["occupation"]) {
		errs = append(errs, ValidationError{Field: "occupation", Message: "Occupation is required"})
	}
	if !hasText(data["timezone"]) {
		errs = append(errs, ValidationError{Field: "timezone", Message: "Timezone is required"})
	}
	if age, ok := numericValue(data["age"]); !ok || age < 13 {
		errs = append(errs, ValidationError{Field: "age", Message: "Valid age is required"})
	}

	return errs
}

func hasText(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// numericValue acepta números JSON y strings numéricos, como hace Number()
// en el cliente.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
