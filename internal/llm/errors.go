package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

var (
	// ErrNoStructuredOutput is returned when a response contains no JSON object
	ErrNoStructuredOutput = errors.New("no structured output found in model response")
	// ErrMalformedOutput is returned when the located JSON object does not satisfy the task contract
	ErrMalformedOutput = errors.New("malformed model output")
)

// APIError is a generative backend failure with its HTTP-equivalent status
type APIError struct {
	StatusCode int
	Message    string
	// RetryAfter is the server's retry hint, zero when absent
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generative backend error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("generative backend error (HTTP %d)", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the status signals rate limiting or temporary unavailability
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// IsRetryable reports whether err is a rate-limit or service-unavailable APIError
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

// IsUnavailable reports whether err is an upstream APIError that is retryable or a server error
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Retryable() || apiErr.StatusCode >= http.StatusInternalServerError)
}

// retryHint returns the server-provided delay carried by err, if any
func retryHint(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}

// classifyError maps gax and googleapi errors to *APIError. Other errors (content blocks,
// transport failures, cancellations) are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var ae *apierror.APIError
	if errors.As(err, &ae) {
		code := ae.HTTPCode()
		if code <= 0 {
			code = grpcToHTTP(ae.GRPCStatus().Code())
		}
		out := &APIError{StatusCode: code, Message: ae.Reason(), Err: err}
		if out.Message == "" {
			out.Message = ae.GRPCStatus().Message()
		}
		if ri := ae.Details().RetryInfo; ri != nil && ri.GetRetryDelay() != nil {
			out.RetryAfter = ri.GetRetryDelay().AsDuration()
		}
		var ge *googleapi.Error
		if out.RetryAfter == 0 && errors.As(err, &ge) {
			out.RetryAfter = parseRetryAfter(ge.Header.Get("Retry-After"))
		}
		return out
	}

	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return &APIError{
			StatusCode: ge.Code,
			Message:    ge.Message,
			RetryAfter: parseRetryAfter(ge.Header.Get("Retry-After")),
			Err:        err,
		}
	}
	return err
}

func grpcToHTTP(code codes.Code) int {
	switch code {
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseRetryAfter reads a Retry-After header value in seconds
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return 0
}
