package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength    = 1
	MaxNameLength    = 200
	MaxCommentLength = 5000
	MinPasswordLen   = 8
	MaxUnitNameLen   = 50
)

var (
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
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

// ValidateEntityName проверяет название сущности (заказчика, проекта,
// заказа, этапа, опции).
func ValidateEntityName(fieldName, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s обязательно", fieldName)
	}
	return ValidateLength(fieldName, name, MinNameLength, MaxNameLength)
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("email некорректен")
	}
	return nil
}

// ValidatePassword проверяет минимальные требования к паролю.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLen)
	}
	return nil
}

// ValidateHexColor проверяет, что строка — hex-цвет вида #RGB или #RRGGBB.
// Цвета статусов уходят прямо в стили UI, поэтому формат строгий.
func ValidateHexColor(fieldName, value string) error {
	if !hexColorRe.MatchString(value) {
		return fmt.Errorf("%s должен быть hex-цветом вида #RRGGBB", fieldName)
	}
	return nil
}

// ValidateSequence проверяет, что позиция этапа положительна.
func ValidateSequence(sequence int) error {
	if sequence <= 0 {
		return fmt.Errorf("sequence должен быть положительным числом")
	}
	return nil
}
