package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestRequestLoggerOmitsQuery(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token=secret-jwt", nil))

	out := buf.String()
	if strings.Contains(out, "secret-jwt") {
		t.Errorf("log leaks query string: %s", out)
	}
	if !strings.Contains(out, `"status":401`) || !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("log line = %s", out)
	}
}
