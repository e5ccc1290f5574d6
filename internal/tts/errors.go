package tts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"voicefy/internal/apperr"
)

// APIError - неуспешный ответ API провайдера синтеза
type APIError struct {
	StatusCode int
	Message    string
	Provider   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tts [%s]: статус %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsNotFound проверяет, что ресурс не найден (HTTP 404)
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized проверяет ошибку аутентификации (HTTP 401)
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// parseError читает тело неуспешного ответа
func parseError(provider string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Detail.Message != "" {
		message = errResp.Detail.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   provider,
	}
}

// classify переводит ошибку запроса в таксономию apperr
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrNotFound, apiErr)
	}
	return apperr.Network(op, err)
}
