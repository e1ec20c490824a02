package notify

import (
	"log/slog"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// newHTTPClient returns the retrying client shared by the HTTP channels.
func newHTTPClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 250 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = 5 * time.Second
	c.Logger = slog.Default()
	return c
}
