package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinLocationLength  = 3
	MaxLocationLength  = 500
	MinWasteTypeLength = 2
	MaxWasteTypeLength = 255
	MaxAmountLength    = 255
	MaxNameLength      = 255
	MinConfidence      = 0
	MaxConfidence      = 100
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}
	if strings.HasPrefix(domainPart, ".") || strings.HasSuffix(domainPart, ".") {
		return fmt.Errorf("некорректный домен email")
	}

	return nil
}

// ValidateConfidence проверяет границы уверенности классификатора.
func ValidateConfidence(confidence int) error {
	if confidence < MinConfidence || confidence > MaxConfidence {
		return fmt.Errorf("уверенность классификации должна быть в диапазоне %d..%d", MinConfidence, MaxConfidence)
	}
	return nil
}
