// Package index talks to the package search backends: the SUSE Customer
// Center (SCC) and the openSUSE distribution and mirrorcache APIs.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/frederic-klein/susepkg/internal/errs"
	"github.com/frederic-klein/susepkg/internal/logger"
)

// Client performs JSON GET requests against the backends.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client. A zero rps disables rate limiting; debug
// dumps every request and response to the debug log.
func NewClient(timeout time.Duration, rps float64, debug bool) *Client {
	var transport http.RoundTripper = http.DefaultTransport
	if debug {
		transport = dumpTransport{next: transport}
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// getJSON decodes the response body of GET rawURL?params into out. Every
// failure is reported as errs.ErrTransient.
func (c *Client) getJSON(ctx context.Context, rawURL, accept string, params url.Values, out any) error {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	err := c.do(ctx, rawURL, accept, out)
	if err != nil {
		if ctx.Err() == nil {
			logger.Logger().Errorf("%s: %v", rawURL, err)
		}
		return &errs.Error{Op: "index.get", Kind: errs.ErrTransient, Message: rawURL, Inner: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, rawURL, accept string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// envelope is the {"data": ...} wrapper used by SCC and mirrorcache.
type envelope[T any] struct {
	Data T `json:"data"`
}

type dumpTransport struct {
	next http.RoundTripper
}

func (t dumpTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := logger.Logger()
	if b, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debugf("%s", b)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if b, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debugf("%s", b)
	}
	return resp, nil
}

// FlexString decodes JSON values that can be a string or a number.
type FlexString string

func (v *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FlexString(s)
		return nil
	}
	// Numbers keep their literal text, so 16.0 stays "16.0".
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = FlexString(n.String())
		return nil
	}
	return errors.New("index: version is neither string nor number")
}
