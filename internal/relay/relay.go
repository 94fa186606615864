package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// ErrExhausted is returned when every forwarding intermediary failed for
// a single target URL.
var ErrExhausted = errors.New("all relay intermediaries exhausted")

// Intermediary is one forwarding endpoint. EncodeTarget selects whether
// the target URL is percent-encoded as a query value or appended raw to
// the prefix; this is a static property of each endpoint.
type Intermediary struct {
	Name         string `yaml:"name"`
	Prefix       string `yaml:"prefix"`
	EncodeTarget bool   `yaml:"encode_target"`
}

// DefaultIntermediaries is the reference deployment's forwarding chain,
// tried strictly in this order.
func DefaultIntermediaries() []Intermediary {
	return []Intermediary{
		{Name: "allorigins", Prefix: "https://api.allorigins.win/raw?url=", EncodeTarget: true},
		{Name: "corsproxy", Prefix: "https://corsproxy.io/?url=", EncodeTarget: true},
		{Name: "thingproxy", Prefix: "https://thingproxy.freeboard.io/fetch/", EncodeTarget: false},
		{Name: "codetabs", Prefix: "https://api.codetabs.com/v1/proxy?quest=", EncodeTarget: true},
	}
}

// CheckFunc validates that a payload carries the result envelope the
// caller expects. A non-nil error makes the relay fall through to the
// next intermediary.
type CheckFunc func(body []byte) error

// Relay performs HTTP GETs through an ordered chain of forwarding
// intermediaries, returning the first structurally valid JSON payload.
type Relay struct {
	Client         *http.Client
	Intermediaries []Intermediary
}

// New creates a Relay with optional proxy support and a 30-second
// per-attempt timeout.
func New(intermediaries []Intermediary, proxyURL string) *Relay {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if len(intermediaries) == 0 {
		intermediaries = DefaultIntermediaries()
	}
	return &Relay{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Intermediaries: intermediaries,
	}
}

func (r *Relay) forwardURL(in Intermediary, target string) string {
	if in.EncodeTarget {
		return in.Prefix + url.QueryEscape(target)
	}
	return in.Prefix + target
}

// Get fetches the target URL through each intermediary in priority order
// and returns the first payload that parses as JSON and passes check
// (when non-nil). Every attempt failure is logged and falls through;
// only total exhaustion is an error.
func (r *Relay) Get(ctx context.Context, target string, check CheckFunc) ([]byte, error) {
	var lastErr error
	for _, in := range r.Intermediaries {
		body, err := r.attempt(ctx, in, target, check)
		if err != nil {
			lastErr = err
			log.Printf("[WARN] relay %s failed for %s: %v", in.Name, target, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return body, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no intermediaries configured")
	}
	if isTimeout(lastErr) {
		return nil, fmt.Errorf("%w: last attempt timed out: %v", ErrExhausted, lastErr)
	}
	return nil, fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

func (r *Relay) attempt(ctx context.Context, in Intermediary, target string, check CheckFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", r.forwardURL(in, target), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("relay read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("relay: status %d", resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("relay: response is not JSON")
	}
	if check != nil {
		if err := check(body); err != nil {
			return nil, fmt.Errorf("relay: bad payload: %w", err)
		}
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
