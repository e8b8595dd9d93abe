package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrUnauthenticated is returned for auth-required calls made without a
// session. No request is sent.
var ErrUnauthenticated = errors.New("apiclient: not signed in")

// FieldError is one per-field message from a structured error body.
type FieldError struct {
	Field   string
	Message string
}

// ErrorBody is the parsed body of a failed response. Raw always holds
// the bytes as received.
type ErrorBody struct {
	Message string
	Reason  string
	Errors  []FieldError
	Raw     string
}

// HTTPError reports a response with status 400 or above.
type HTTPError struct {
	Status     int
	StatusText string
	Body       ErrorBody
}

func (e *HTTPError) Error() string {
	msg := e.Body.Message
	if msg == "" {
		msg = strings.TrimSpace(e.Body.Raw)
	}
	if msg == "" {
		return fmt.Sprintf("apiclient: %d %s", e.Status, e.StatusText)
	}
	return fmt.Sprintf("apiclient: %d %s: %s", e.Status, e.StatusText, msg)
}

// ConnectionError reports a request that never produced an HTTP response:
// refused connection, DNS failure, timeout, or an open circuit breaker.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("apiclient: backend unreachable (%s %s): %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsAuthFailure reports whether err is a 401 or 403 response.
func IsAuthFailure(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) {
		return false
	}
	return he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusNotFound
}

// IsConnection reports whether err is a *ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// Describe renders err for a person: connection failures name the
// backend host, HTTP errors list per-field messages when the backend sent
// them and otherwise the status with the server's text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var (
		ce *ConnectionError
		he *HTTPError
	)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "not signed in"
	case errors.As(err, &ce):
		return fmt.Sprintf("backend unreachable at %s (%v)", hostOf(ce.URL), rootCause(ce.Err))
	case errors.As(err, &he):
		if len(he.Body.Errors) > 0 {
			parts := make([]string, len(he.Body.Errors))
			for i, fe := range he.Body.Errors {
				parts[i] = fe.Field + ": " + fe.Message
			}
			return strings.Join(parts, "; ")
		}
		msg := he.Body.Message
		if msg == "" {
			msg = strings.TrimSpace(he.Body.Raw)
		}
		if msg == "" {
			return fmt.Sprintf("request failed: %d %s", he.Status, he.StatusText)
		}
		return fmt.Sprintf("request failed: %d %s: %s", he.Status, he.StatusText, msg)
	default:
		return err.Error()
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// wireError accepts both the backend's own error shape and the Spring
// binding-result aliases (defaultMessage, property).
type wireError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Field          string `json:"field"`
		Property       string `json:"property"`
		Message        string `json:"message"`
		DefaultMessage string `json:"defaultMessage"`
	} `json:"errors"`
}

func parseErrorBody(contentType string, raw []byte) ErrorBody {
	body := ErrorBody{Raw: string(raw)}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return body
	}

	looksJSON := strings.Contains(contentType, "json") || strings.HasPrefix(trimmed, "{")
	var w wireError
	if looksJSON && json.Unmarshal(raw, &w) == nil {
		body.Message = w.Message
		body.Reason = w.Error
		for _, fe := range w.Errors {
			f := FieldError{Field: fe.Field, Message: fe.Message}
			if f.Field == "" {
				f.Field = fe.Property
			}
			if f.Message == "" {
				f.Message = fe.DefaultMessage
			}
			body.Errors = append(body.Errors, f)
		}
		return body
	}

	body.Message = trimmed
	return body
}
