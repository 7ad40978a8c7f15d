package whttp_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/manzanit0/storefront/pkg/whttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingClient_PreservesBody(t *testing.T) {
	testCases := []struct {
		desc  string
		debug bool
	}{
		{desc: "when debug is off, the body is passed through untouched", debug: false},
		{desc: "when debug is on, the body can still be read after logging", debug: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"products":[]}`))
			}))
			defer srv.Close()

			res, err := whttp.NewLoggingClient(tC.debug).Get(srv.URL)
			require.NoError(t, err)
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			assert.Equal(t, `{"products":[]}`, string(body))
		})
	}
}

func TestPolicy_Timeout(t *testing.T) {
	p := whttp.Policy{Timeout: 10 * time.Millisecond}

	_, err := whttp.Call(context.Background(), p, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPolicy_ZeroTimeoutHasNoDeadline(t *testing.T) {
	got, err := whttp.Call(context.Background(), whttp.Policy{}, func(ctx context.Context) (bool, error) {
		_, ok := ctx.Deadline()
		return ok, nil
	})

	require.NoError(t, err)
	assert.False(t, got)
}
