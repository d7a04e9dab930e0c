package slice

import (
	"context"
	"errors"
	"strings"
)

// userMessager is implemented by errors that carry a server-provided,
// user-facing message.
type userMessager interface {
	UserMessage() string
}

// ErrorMessage picks the single string a slice surfaces for err: the
// server's message when there is one, the error text otherwise, and
// fallback when both are empty.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
