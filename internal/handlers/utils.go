package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	PrincipalContextKey = "principal"
)

// ErrUnauthorized is returned when user context is invalid
var ErrUnauthorized = fmt.Errorf("unauthorized")

// Principal is the caller an access token speaks for
type Principal struct {
	UserID  uuid.UUID
	Email   string
	Role    string
	TokenID string
}

// SetPrincipal stores the authenticated caller on the context
func SetPrincipal(c echo.Context, p Principal) {
	c.Set(PrincipalContextKey, p)
}

// PrincipalFrom returns the caller RequireAuth stored, if any
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(PrincipalContextKey).(Principal)
	return p, ok && p.UserID != uuid.Nil
}

func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	p, ok := PrincipalFrom(c)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	return p.UserID, nil
}

func getIntParam(c echo.Context, name string, defaultValue int) int {
	param := c.QueryParam(name)
	if param == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(param)
	if err != nil {
		return defaultValue
	}
	return value
}

// getPagination reads offset and limit, clamping them to sane bounds
func getPagination(c echo.Context) (offset, limit int) {
	offset = getIntParam(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	limit = getIntParam(c, "limit", defaultPageLimit)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}

func getClientIP(c echo.Context) string {
	if xff := c.Request().Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := c.Request().Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return c.Request().RemoteAddr
}
