package domain

import (
	"fmt"
	"time"
)

// ValidationError reports bad caller input. It is returned synchronously,
// never retried, and never triggers a fallback payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UpstreamError reports a non-2xx status or malformed payload from the
// weather provider. Status is zero when the request never produced one.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream: %s", e.Message)
	}
	return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.Status)
}

// TimeoutError reports an upstream call exceeding its deadline.
type TimeoutError struct {
	Kind    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream %s request timed out after %s", e.Kind, e.Timeout)
}

// ConfigurationError reports missing or unusable credentials. The server
// binary refuses to start on one; an embedded caller sees it converted into
// the same degraded fallback path as an upstream failure.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Message)
}
