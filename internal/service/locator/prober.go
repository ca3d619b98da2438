package locator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oshokin/launcher-manifest/internal/version"
)

// errBadHTTPStatus is returned for any non-2xx probe response.
var errBadHTTPStatus = errors.New("unexpected http status")

// Prober checks that a URL is downloadable.
type Prober interface {
	Probe(ctx context.Context, rawURL string) error
}

// HTTPProber issues GET requests and accepts any 2xx status without reading the body.
type HTTPProber struct {
	// client carries dial and response header limits.
	client *http.Client
	// timeout bounds a whole probe including redirects.
	timeout time.Duration
}

// NewHTTPProber returns a prober whose connect and response waits are bounded by timeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	dialer := &net.Dialer{Timeout: timeout}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // Stdlib default.
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	return &HTTPProber{
		client:  &http.Client{Transport: transport},
		timeout: timeout,
	}
}

// Probe returns nil when rawURL answers with a 2xx status.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := p.client.Do(req)
	if err != nil {
		return err
	}

	// Availability is all we need; the body stays unread.
	_ = response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s, %s: %w", rawURL, response.Status, errBadHTTPStatus)
	}

	return nil
}
