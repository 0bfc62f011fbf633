package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind is the closed set of provider failure classes the gateway
// branches on.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindOverloaded
	KindRateLimited
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindOverloaded:
		return "overloaded"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ProviderError is a single backend failure with enough structure for the
// gateway to decide between retry, fallback, and giving up.
type ProviderError struct {
	Kind       ErrorKind
	Model      string
	Status     int
	RetryAfter time.Duration
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s, model=%s, http=%d): %s", e.Kind, e.Model, e.Status, e.Body)
}

// ErrProviderUnavailable is raised once the primary and every fallback have
// been exhausted. It is the only provider error the orchestrator surfaces.
var ErrProviderUnavailable = errors.New("all language model providers unavailable")

// maxAdvisedWait bounds how long we honor a Retry-After header.
const maxAdvisedWait = 10 * time.Second

// classifyStatus maps an HTTP failure to a ProviderError. Anthropic uses 529
// for overloaded; OpenAI-compatible backends use 503.
func classifyStatus(model string, resp *http.Response, body string) *ProviderError {
	pe := &ProviderError{Model: model, Status: resp.StatusCode, Body: body}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		pe.Kind = KindRateLimited
		pe.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case http.StatusNotFound:
		pe.Kind = KindNotFound
	case http.StatusServiceUnavailable, 529:
		pe.Kind = KindOverloaded
	default:
		pe.Kind = KindUnknown
	}
	return pe
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxAdvisedWait {
		d = maxAdvisedWait
	}
	return d
}
