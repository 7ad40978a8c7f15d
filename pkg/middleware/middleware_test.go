package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/manzanit0/storefront/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TraceID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(true))
	r.GET("/", handler)
	return r
}

func TestTraceID(t *testing.T) {
	testCases := []struct {
		desc     string
		incoming string
	}{
		{desc: "when no trace id is sent, one is generated"},
		{desc: "when a trace id is sent, it is reused", incoming: "caller-trace"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			var seen string
			r := newRouter(func(c *gin.Context) {
				seen = middleware.TraceIDFrom(c.Request.Context())
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tC.incoming != "" {
				req.Header.Set(middleware.HeaderTraceID, tC.incoming)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(middleware.HeaderTraceID))
			if tC.incoming != "" {
				assert.Equal(t, tC.incoming, seen)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	b := &bytes.Buffer{}
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(b, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	return b
}

func TestLogger(t *testing.T) {
	testCases := []struct {
		desc      string
		debug     bool
		path      string
		status    int
		wantLevel string
		wantBody  bool
		wantID    string
	}{
		{
			desc:      "when a viewer route is hit, the viewer id and route are logged",
			path:      "/viewers/abc?q=shoe",
			status:    http.StatusOK,
			wantLevel: "INFO",
			wantID:    "abc",
		},
		{
			desc:      "when debug is on, the response body is logged",
			debug:     true,
			path:      "/viewers/abc",
			status:    http.StatusOK,
			wantLevel: "INFO",
			wantBody:  true,
			wantID:    "abc",
		},
		{
			desc:      "when the handler answers 5xx, it is logged as an error",
			path:      "/viewers/abc",
			status:    http.StatusBadGateway,
			wantLevel: "ERROR",
			wantID:    "abc",
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			logs := captureLogs(t)

			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(middleware.Logger(tC.debug))
			r.GET("/viewers/:id", func(c *gin.Context) {
				c.JSON(tC.status, gin.H{"loading": true})
			})

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tC.path, nil))

			var record struct {
				Level string `json:"level"`
				HTTP  struct {
					Request struct {
						Route    string `json:"route"`
						ViewerID string `json:"viewer_id"`
					} `json:"request"`
					Response struct {
						Status int     `json:"status"`
						Body   *string `json:"body"`
					} `json:"response"`
				} `json:"http"`
			}
			require.NoError(t, json.Unmarshal(logs.Bytes(), &record))

			assert.Equal(t, tC.wantLevel, record.Level)
			assert.Equal(t, "/viewers/:id", record.HTTP.Request.Route)
			assert.Equal(t, tC.wantID, record.HTTP.Request.ViewerID)
			assert.Equal(t, tC.status, record.HTTP.Response.Status)
			assert.Equal(t, tC.wantBody, record.HTTP.Response.Body != nil)
		})
	}
}
