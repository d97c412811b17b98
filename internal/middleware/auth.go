package middleware

import (
	stderrors "errors"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// RequireAuth admits requests carrying a valid, unrevoked access token and stores the caller
// as a handlers.Principal
func RequireAuth(tokenService services.TokenServiceInterface, blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, code, detail := authenticate(c.Request().Header.Get(echo.HeaderAuthorization), tokenService, blacklistedTokenRepo)
			if code != "" {
				if detail != "" {
					return handlers.SendError(c, code, errors.WithDetails(detail))
				}
				return handlers.SendError(c, code)
			}

			handlers.SetPrincipal(c, principal)
			return next(c)
		}
	}
}

func authenticate(header string, tokenService services.TokenServiceInterface, blacklist repositories.BlacklistedTokenRepositoryInterface) (handlers.Principal, errors.ErrorCode, string) {
	if header == "" {
		return handlers.Principal{}, errors.AuthMissingToken, ""
	}

	raw, err := tokenService.ExtractTokenFromHeader(header)
	if err != nil {
		return handlers.Principal{}, errors.AuthInvalidTokenFormat, ""
	}

	claims, err := tokenService.ValidateAccessToken(raw)
	switch {
	case stderrors.Is(err, services.ErrExpiredToken):
		return handlers.Principal{}, errors.AuthExpiredToken, ""
	case err != nil:
		return handlers.Principal{}, errors.AuthInvalidTokenFormat, ""
	}

	// only a positive blacklist hit rejects; lookup errors fall through
	if revoked, err := blacklist.GetByJTI(claims.ID); err == nil && revoked != nil {
		return handlers.Principal{}, errors.AuthInvalidTokenFormat, "Token has been revoked"
	}

	userID, err := claims.OwnerID()
	if err != nil {
		return handlers.Principal{}, errors.AuthInvalidTokenFormat, "Invalid user ID in token"
	}

	return handlers.Principal{UserID: userID, Email: claims.Email, Role: claims.Role, TokenID: claims.ID}, "", ""
}
