package common

import "errors"

// Сквозные ошибки слоя хранения. Репозитории оборачивают их через %w,
// error-middleware сопоставляет статусам HTTP.
var (
	// ErrAlreadyExists — нарушение уникальности: код валюты, имена
	// единиц измерения, пара kind+code статуса, email сотрудника.
	ErrAlreadyExists = errors.New("duplicate record")

	// ErrInvalidInput помечает значения, отвергаемые до обращения к базе.
	ErrInvalidInput = errors.New("invalid input")
)
