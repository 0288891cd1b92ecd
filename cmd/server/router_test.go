package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	apperrors "warmpath/pkg/errors"
)

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"person not found", apperrors.NewPersonNotFound("ghost@nowhere.com"), http.StatusNotFound},
		{"edge not found", apperrors.NewEdgeNotFound("a@x.com", "b@x.com"), http.StatusNotFound},
		{"malformed input", apperrors.NewMalformedMessage("m1", "no sender"), http.StatusBadRequest},
		{"store failure", apperrors.NewQueryFailed("stats", errors.New("connection reset")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/test", func(c *gin.Context) {
				respondError(c, log, tt.err, "request failed")
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/test", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		respondError(c, zap.NewNop(), errors.New("bolt handshake failed at 10.0.0.5"), "Failed to fetch stats")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Failed to fetch stats", response["error"])
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
