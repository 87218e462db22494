package logger

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader is the header used to propagate request ids over HTTP
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client supplied ids; a UUID is 36 bytes.
const maxRequestIDLength = 64

// ContextWithRequestID stores id in ctx. An empty or malformed id is replaced by a new UUID.
func ContextWithRequestID(ctx context.Context, id string) (context.Context, string) {
	if !validRequestID(id) {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, RequestIDKey, id), id
}

// validRequestID accepts 1-64 characters from [A-Za-z0-9._-].
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
