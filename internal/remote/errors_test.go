package remote

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/billed-dev/billed/internal/receipt"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"404 message", errors.New("Erreur 404"), KindNotFound},
		{"500 message", errors.New("Erreur 500"), KindServerError},
		{"503 message", errors.New("Erreur 503"), KindServerError},
		{"401 message", errors.New("Erreur 401"), KindUnauthorized},
		{"wrapped", fmt.Errorf("list bills: %w", errors.New("Erreur 404")), KindNotFound},
		{"structured", NewError(502), KindServerError},
		{"structured status with other text", &Error{Status: 401, Message: "denied"}, KindUnauthorized},
		{"bad request", errors.New("Erreur 400"), KindUnknown},
		{"no token", errors.New("connection refused"), KindUnknown},
		{"digits inside word", errors.New("bill a404b missing"), KindUnknown},
		{"wrapper text before status", fmt.Errorf("updating bill %s: %w", "404", NewError(500)), KindServerError},
		{"port in transport error", errors.New("GET /bills: dial tcp 10.0.0.5:401: connect: connection refused"), KindUnknown},
		{"bare number without token", errors.New("bill 404 missing"), KindUnknown},
		{"token after other numbers", errors.New("request 123 failed: Erreur 401"), KindUnauthorized},
		{"invalid extension", receipt.Validate("x.pdf"), KindInvalidExtension},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Erreur 404", UserMessage(KindNotFound, errors.New("Erreur 404")))
	assert.Equal(t, "Erreur 500", UserMessage(KindServerError, errors.New("Erreur 503")))
	assert.Equal(t, "Erreur 401", UserMessage(KindUnauthorized, nil))
	assert.Equal(t, "boom", UserMessage(KindUnknown, errors.New("boom")))
	assert.Equal(t, "Erreur", UserMessage(KindUnknown, nil))
}

func TestNewError(t *testing.T) {
	err := NewError(404)
	assert.Equal(t, "Erreur 404", err.Error())
	assert.Equal(t, 404, err.Status)
}
