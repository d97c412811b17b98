package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetPagination(t *testing.T) {
	e := newTestEcho()
	tests := []struct {
		query         string
		offset, limit int
	}{
		{"", 0, defaultPageLimit},
		{"?offset=40&limit=10", 40, 10},
		{"?offset=-1&limit=0", 0, defaultPageLimit},
		{"?limit=1000", 0, maxPageLimit},
		{"?offset=abc&limit=x", 0, defaultPageLimit},
	}

	for _, tt := range tests {
		c, _ := newRequestContext(e, http.MethodGet, "/events"+tt.query, nil, nil)
		offset, limit := getPagination(c)
		assert.Equal(t, tt.offset, offset, tt.query)
		assert.Equal(t, tt.limit, limit, tt.query)
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	e := newTestEcho()
	id := uuid.New()

	c, _ := newRequestContext(e, http.MethodGet, "/", nil, &id)
	got, err := getUserIDFromContext(c)
	assert.NoError(t, err)
	assert.Equal(t, id, got)

	c, _ = newRequestContext(e, http.MethodGet, "/", nil, nil)
	_, err = getUserIDFromContext(c)
	assert.ErrorIs(t, err, ErrUnauthorized)

	SetPrincipal(c, Principal{Email: "nobody@example.com"})
	_, err = getUserIDFromContext(c)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetClientIP(t *testing.T) {
	e := newTestEcho()
	c, _ := newRequestContext(e, http.MethodGet, "/", nil, nil)
	c.Request().Header.Set("X-Forwarded-For", "203.0.113.4, 10.0.0.2")
	assert.Equal(t, "203.0.113.4", getClientIP(c))

	c, _ = newRequestContext(e, http.MethodGet, "/", nil, nil)
	c.Request().Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getClientIP(c))
}
