package connectors

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

// SchwabErrorCodes maps Trader API HTTP statuses to the broker's
// documented meaning, for log and exception messages.
var SchwabErrorCodes = map[int]string{
	400: "VALIDATION_FAILED",     // malformed request or unknown parameter
	401: "UNAUTHORIZED",          // token missing, expired, or revoked
	403: "FORBIDDEN",             // account not entitled for this endpoint
	404: "NOT_FOUND",             // account hash or order id unknown
	429: "RATE_LIMITED",          // per-minute request budget exhausted
	500: "INTERNAL_SERVER_ERROR", // broker-side failure
	503: "SERVICE_UNAVAILABLE",   // maintenance window or overload
}

// GetErrorMsg returns a human-readable tag for a given HTTP status.
// If the status is unknown, returns a generic message including the code.
func GetErrorMsg(code int) string {
	if msg, ok := SchwabErrorCodes[code]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_SCHWAB_ERROR_%d", code)
}

// isRetryableResp decides whether a request should be retried: transport
// errors, 5xx, and the throttling statuses.
func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}

	switch code {
	case 408, 429:
		return true
	}

	return false
}
