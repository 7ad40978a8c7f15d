package whttp

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type LoggingRoundTripper struct {
	Proxied http.RoundTripper

	// Debug includes response bodies in the log record.
	Debug bool
}

func (lrt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	proxied := lrt.Proxied
	if proxied == nil {
		proxied = http.DefaultTransport
	}

	t0 := time.Now()
	res, err := proxied.RoundTrip(req)
	if err != nil {
		slog.ErrorContext(req.Context(), "outbound request failed",
			"http.request.method", req.Method,
			"http.request.url", req.URL.Redacted(),
			"http.request.duration_ms", time.Since(t0).Milliseconds(),
			"error", err.Error())
		return res, err
	}

	logFields := []any{
		"http.request.method", req.Method,
		"http.request.url", req.URL.Redacted(),
		"http.request.duration_ms", time.Since(t0).Milliseconds(),
		"http.response.status_code", res.StatusCode,
	}

	if lrt.Debug {
		b := &bytes.Buffer{}
		_, err := b.ReadFrom(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, err
		}

		res.Body = io.NopCloser(b)
		logFields = append(logFields, "http.response.body", b.String())
	}

	slog.InfoContext(req.Context(), "outbound request", logFields...)

	return res, nil
}

// NewLoggingClient has no client level timeout: deadlines come from the
// Policy wrapped around each call.
func NewLoggingClient(debug bool) *http.Client {
	return &http.Client{
		Transport: LoggingRoundTripper{Proxied: http.DefaultTransport, Debug: debug},
	}
}
