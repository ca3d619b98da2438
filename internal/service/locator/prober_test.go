package locator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestHTTPProber_Status maps response codes to probe outcomes.
func TestHTTPProber_Status(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.UserAgent(), "launcher-manifest/") {
			http.Error(w, "missing user agent", http.StatusBadRequest)

			return
		}

		switch r.URL.Path {
		case "/ok.jar":
			_, _ = w.Write([]byte("jar"))
		case "/moved.jar":
			http.Redirect(w, r, "/ok.jar", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	prober := NewHTTPProber(time.Second)

	require.NoError(t, prober.Probe(context.Background(), server.URL+"/ok.jar"))
	require.NoError(t, prober.Probe(context.Background(), server.URL+"/moved.jar"))
	require.ErrorIs(t, prober.Probe(context.Background(), server.URL+"/missing.jar"), errBadHTTPStatus)
}

// TestHTTPProber_Timeout ensures a stalled mirror gives up within the configured bound.
func TestHTTPProber_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	prober := NewHTTPProber(100 * time.Millisecond)

	started := time.Now()
	err := prober.Probe(context.Background(), server.URL+"/slow.jar")

	require.Error(t, err)
	require.Less(t, time.Since(started), 2*time.Second)
}

// TestHTTPProber_Unreachable covers connection errors.
func TestHTTPProber_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	require.Error(t, NewHTTPProber(time.Second).Probe(context.Background(), url+"/gone.jar"))
}
