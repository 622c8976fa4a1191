package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/billing/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedEngine(limit int64) *gin.Engine {
	engine := gin.New()
	engine.Use(BodyLimit(limit))
	engine.POST("/api/v1/bills", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})
	return engine
}

func TestBodyLimit(t *testing.T) {
	t.Run("passes a body under the limit", func(t *testing.T) {
		engine := newLimitedEngine(64)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/bills", bytes.NewBufferString(`{"items":[]}`))
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "12", w.Body.String())
	})

	t.Run("rejects a declared oversized body with the error envelope", func(t *testing.T) {
		engine := newLimitedEngine(16)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/bills", bytes.NewBufferString(strings.Repeat("x", 32)))
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, resp.Error.Code)
	})

	t.Run("cuts off a streamed body with no declared length", func(t *testing.T) {
		engine := newLimitedEngine(16)

		// Reader with unknown length: ContentLength is -1, so the limit is
		// enforced by MaxBytesReader when the handler reads.
		oversized := io.NopCloser(strings.NewReader(strings.Repeat("x", 64)))
		req := httptest.NewRequest("POST", "/api/v1/bills", nil)
		req.Body = oversized
		req.ContentLength = -1

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
