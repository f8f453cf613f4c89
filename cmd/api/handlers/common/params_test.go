package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireOwner(t *testing.T) {
	e := echo.New()
	id := uuid.New()

	tests := []struct {
		name   string
		header string
		want   uuid.UUID
		status int
	}{
		{"valid", id.String(), id, 0},
		{"padded", "  " + id.String() + " ", id, 0},
		{"missing", "", uuid.Nil, http.StatusUnauthorized},
		{"garbage", "user-42", uuid.Nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(OwnerHeader, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			got, err := RequireOwner(c)
			if tt.status == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.status, he.Code)
		})
	}
}

func TestRequireUUIDParam(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	_, err := RequireUUIDParam(c, "id")
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "invalid id", he.Message)

	id := uuid.New()
	c.SetParamValues(id.String())
	got, err := RequireUUIDParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
