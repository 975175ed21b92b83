package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheduleshare/event-manager/internal/errdef"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad request", errdef.NewBadRequest("bad"), http.StatusBadRequest},
		{"unauthorized", errdef.NewUnauthorized("unauthorized"), http.StatusUnauthorized},
		{"forbidden", errdef.NewForbidden("forbidden"), http.StatusForbidden},
		{"not found", errdef.NewNotFound("missing"), http.StatusNotFound},
		{"duplicated", errdef.NewDuplicated("duplicated"), http.StatusConflict},
		{"conflict", errdef.NewConflict("conflict"), http.StatusConflict},
		{"concurrent modification", errdef.NewConcurrentModification("raced"), http.StatusConflict},
		{"unsupported media type", errdef.NewUnsupportedMediaType("unsupported"), http.StatusUnsupportedMediaType},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/", func(c *gin.Context) {
				_ = c.Error(test.err)
			})

			w := httptest.NewRecorder()
			request, err := http.NewRequest(http.MethodGet, "/", nil)
			require.NoError(t, err)
			r.ServeHTTP(w, request)

			assert.Equal(t, test.wantStatus, w.Code)
			assert.Equal(t, test.err.Error(), w.Body.String())
		})
	}
}

func TestErrorHandler_UnknownErrorsAreMasked(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	w := httptest.NewRecorder()
	request, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	r.ServeHTTP(w, request)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
