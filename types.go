package accounts

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

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, phone, password string) (string, error)
	TokenService() TokenService
}

// LoginPayload carries the submitted credentials
type LoginPayload interface {
	GetPhone() string
	GetPassword() string
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Phone() string
	Email() string
	Role() string
}

// Config holds auth options. It is an explicit value object handed to the
// components that need it; there is no ambient lookup.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	// GetTokenTTL is the fixed token time to live in seconds.
	GetTokenTTL() int
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// IdentityProvider ensures we have a store to retrieve auth identities
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, phone, password string) (Identity, error)
	FindIdentityByPhone(ctx context.Context, phone string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenService issues and validates the API's bearer tokens.
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *AccessClaims) (string, error)
	Validate(ctx context.Context, tokenString string) (*AccessClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
