package providers

import (
	"fmt"
	"net/http"
	"strings"
)

// ProviderError wraps an SDK error with the HTTP metadata the retry
// policy classifies on.
type ProviderError struct {
	Provider   string
	HTTPStatus int
	RetryAfter string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Provider, e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func wrapProviderError(provider string, err error, status int, retryAfter string) error {
	return &ProviderError{
		Provider:   provider,
		HTTPStatus: status,
		RetryAfter: retryAfter,
		Err:        err,
	}
}

// extractErrorMetadata pulls an HTTP status code and Retry-After value
// out of an SDK error message. The SDKs do not expose these as fields,
// so this is best-effort string matching.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	errStr := err.Error()

	var httpStatus int
	switch {
	case strings.Contains(errStr, "429"):
		httpStatus = http.StatusTooManyRequests
	case strings.Contains(errStr, "500"):
		httpStatus = http.StatusInternalServerError
	case strings.Contains(errStr, "502"):
		httpStatus = http.StatusBadGateway
	case strings.Contains(errStr, "503"):
		httpStatus = http.StatusServiceUnavailable
	case strings.Contains(errStr, "504"):
		httpStatus = http.StatusGatewayTimeout
	case strings.Contains(errStr, "401"):
		httpStatus = http.StatusUnauthorized
	case strings.Contains(errStr, "403"):
		httpStatus = http.StatusForbidden
	case strings.Contains(errStr, "402"):
		httpStatus = http.StatusPaymentRequired
	case strings.Contains(errStr, "400"):
		httpStatus = http.StatusBadRequest
	}

	var retryAfter string
	lower := strings.ToLower(errStr)
	if idx := strings.Index(lower, "retry-after"); idx != -1 {
		rest := strings.TrimLeft(errStr[idx+len("retry-after"):], ": ")
		parts := strings.Fields(rest)
		if len(parts) > 0 {
			retryAfter = parts[0]
		}
	} else if idx := strings.Index(lower, "retry after"); idx != -1 {
		parts := strings.Fields(errStr[idx+len("retry after"):])
		if len(parts) > 0 {
			retryAfter = parts[0]
		}
	}

	return httpStatus, retryAfter
}
