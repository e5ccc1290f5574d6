package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound возвращается, когда целевая строка больше не существует
	ErrNotFound = errors.New("запись не найдена")

	// ErrStale помечает ответ, устаревший относительно текущего токена сессии
	ErrStale = errors.New("устаревший ответ")

	// ErrInvalidState возвращается при операции, недопустимой в текущем состоянии
	ErrInvalidState = errors.New("операция недоступна в текущем состоянии")
)

// ValidationError - ошибка входных данных, обнаруженная до сетевого запроса
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation создает ошибку валидации
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NetworkError - сбой запроса: транспорт, таймаут или неуспешный статус
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Network оборачивает ошибку сетевого вызова
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Op: op, Err: err}
}

// IsValidation проверяет, является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNetwork проверяет, является ли ошибка сетевой
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Message возвращает одно человекочитаемое сообщение для пользователя
func Message(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrNotFound):
		return "Голос не найден. Каталог обновлён."
	case errors.Is(err, context.DeadlineExceeded):
		return "Сервис не ответил вовремя. Попробуйте ещё раз."
	case errors.Is(err, ErrInvalidState):
		return ErrInvalidState.Error()
	case IsNetwork(err):
		var ne *NetworkError
		errors.As(err, &ne)
		return fmt.Sprintf("Ошибка запроса (%s). Попробуйте ещё раз.", ne.Op)
	default:
		return "Внутренняя ошибка сервера"
	}
}

// HTTPStatus сопоставляет ошибку HTTP статусу
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case IsNetwork(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
