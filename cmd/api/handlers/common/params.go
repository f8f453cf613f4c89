package common

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// OwnerHeader carries the authenticated user id. It is set by the auth proxy
// in front of this service and trusted as-is.
const OwnerHeader = "X-User-ID"

// RequireUUIDParam extracts a UUID route parameter or returns a 400 error.
func RequireUUIDParam(c echo.Context, param string) (uuid.UUID, error) {
	u, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
	}
	return u, nil
}

// RequireOwner extracts the caller's user id from OwnerHeader.
// Returns 401 if the header is missing or not a UUID.
func RequireOwner(c echo.Context) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(OwnerHeader))
	if raw == "" {
		return uuid.Nil, ErrUnauthorized()
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrUnauthorized()
	}
	return u, nil
}
