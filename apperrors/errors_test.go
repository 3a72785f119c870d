package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("restock", "%s is not registered", "Garlic"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Garlic is not registered", Message(err))
}

func TestStore_KeepsExistingKind(t *testing.T) {
	orig := Conflict("register", "already registered")
	assert.Same(t, orig, Store("register", orig))

	wrapped := Store("list", errors.New("connection reset"))
	assert.True(t, errors.Is(wrapped, ErrTransientStore))
	assert.Contains(t, wrapped.Error(), "connection reset")
	assert.Nil(t, Store("list", nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Validation("op", "bad"):         http.StatusBadRequest,
		Conflict("op", "dup"):           http.StatusConflict,
		NotFound("op", "gone"):          http.StatusNotFound,
		ServiceUnavailable("op", "x"):   http.StatusServiceUnavailable,
		Timeout("op", "slow"):           http.StatusGatewayTimeout,
		Store("op", errors.New("boom")): http.StatusBadGateway,
		Unauthorized("op", "token"):     http.StatusUnauthorized,
		Forbidden("op", "role"):         http.StatusForbidden,
		errors.New("plain"):             http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}
