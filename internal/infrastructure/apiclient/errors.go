package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/multipos/console/internal/domain/shared"
)

// APIError is a non-2xx answer from the POS API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Method     string
	Path       string
	// Fields holds per-field validation messages when the server sent an
	// errors array.
	Fields map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// UserMessage is the text shown in a slice's Error.
func (e *APIError) UserMessage() string { return e.Message }

// Is lets callers test API errors against the shared domain sentinels,
// e.g. errors.Is(err, shared.ErrNotFound).
func (e *APIError) Is(target error) bool {
	if d := e.domain(); d != nil {
		return d == target
	}
	return false
}

func (e *APIError) domain() *shared.DomainError {
	switch e.StatusCode {
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case http.StatusForbidden:
		return shared.ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return shared.ErrInvalidInput
	case http.StatusConflict:
		return shared.ErrInvalidState
	}
	return nil
}

// NetworkError means no response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func newAPIError(method, path string, status int, header http.Header, body []byte) *APIError {
	e := &APIError{
		StatusCode: status,
		Method:     method,
		Path:       path,
		RequestID:  header.Get("X-Request-ID"),
	}
	e.Code, e.Message, e.Fields = extractError(body)
	if e.Message == "" {
		e.Message = fmt.Sprintf("Request failed with status %d", status)
	}
	return e
}

// extractError reads the server's error shape. Known forms:
//
//	{"message": "..."}
//	{"error": "..."}
//	{"success": false, "error": {"code": "...", "message": "..."}}
//	{"errors": [{"param": "name", "msg": "..."}]}
func extractError(body []byte) (code, message string, fields map[string]string) {
	f, err := shared.ParseFields(body)
	if err != nil {
		return "", "", nil
	}
	code = f.String("code")
	if raw := f.Raw("error"); raw != nil {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			message = s
		} else if nested, err := shared.ParseFields(raw); err == nil {
			message = nested.String("message")
			if code == "" {
				code = nested.String("code")
			}
		}
	}
	if m := f.String("message"); m != "" {
		message = m
	}
	if raw := f.Raw("errors"); raw != nil {
		var list []shared.Fields
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			fields = make(map[string]string, len(list))
			for _, item := range list {
				msg := firstNonEmpty(item.String("msg"), item.String("message"))
				if name := firstNonEmpty(item.String("param"), item.String("path"), item.String("field")); name != "" {
					fields[name] = msg
				}
				if message == "" {
					message = msg
				}
			}
		}
	}
	return code, strings.TrimSpace(message), fields
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
