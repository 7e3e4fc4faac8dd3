package health

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPChecker probes a local liveness endpoint. Any 2xx response within the
// timeout is healthy; everything else (network error, timeout, other status)
// is one failure. The timeout must be kept well under the poll interval so a
// slow probe cannot stall the supervision loop past one tick.
type HTTPChecker struct {
	URL    string
	client *http.Client
}

func NewHTTPChecker(url string, timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPChecker{
		URL:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPChecker) Check() error {
	resp, err := c.client.Get(c.URL)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unhealthy status %d from %s", resp.StatusCode, c.URL)
	}
	return nil
}

func (c *HTTPChecker) Describe() string { return "http:" + c.URL }
