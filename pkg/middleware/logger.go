package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// bodyRecorder keeps a copy of the response body for debug logging.
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Logger logs one line per request once the handler finished. Response
// bodies are only logged in debug mode.
func Logger(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec *bodyRecorder
		if debug {
			rec = &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
			c.Writer = rec
		}

		t0 := time.Now()
		c.Next()

		request := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"duration_ms", time.Since(t0).Milliseconds(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			request = append(request, "query", q)
		}
		if id := c.Param("id"); id != "" {
			request = append(request, "viewer_id", id)
		}

		response := []any{
			"status", c.Writer.Status(),
			"size", c.Writer.Size(),
		}
		if rec != nil {
			response = append(response, "body", rec.body.String())
		}

		fields := []any{slog.Group("http", slog.Group("request", request...), slog.Group("response", response...))}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.Errors())
		}

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		slog.Log(c.Request.Context(), level, "inbound request", fields...)
	}
}
