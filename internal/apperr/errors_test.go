package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("text", "пустой текст"), http.StatusBadRequest},
		{"not found", fmt.Errorf("обновление: %w", ErrNotFound), http.StatusNotFound},
		{"invalid state", ErrInvalidState, http.StatusConflict},
		{"network", Network("synthesize", errors.New("connection refused")), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "пустой текст", Message(Validation("text", "пустой текст")))
	assert.Contains(t, Message(Network("synthesize", errors.New("x"))), "synthesize")
	assert.Contains(t, Message(Network("synthesize", context.DeadlineExceeded)), "вовремя")
}

func TestNetworkNil(t *testing.T) {
	assert.NoError(t, Network("op", nil))
}
