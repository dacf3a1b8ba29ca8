package voteclient

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore owns the persisted bearer token. The client and auth service
// never touch durable storage directly; every read and write goes through
// this interface. Get returns an empty string when no token is stored.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// RefreshTokenStore is implemented by stores that also keep the optional
// legacy refresh token.
type RefreshTokenStore interface {
	TokenStore
	GetRefresh() (string, error)
	SetRefresh(token string) error
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetTokenPath() string
	GetDebug() bool
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Name() string
	Email() string
	Role() string
}

// UnauthorizedHandler is invoked when a request fails with 401, after the
// token store has been cleared. Handlers run synchronously on the request
// path and must not block.
type UnauthorizedHandler func(ctx context.Context)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] VOTECLIENT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] VOTECLIENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] VOTECLIENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] VOTECLIENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
