package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// ActiveSubjectResolver looks up the live account behind a token subject.
// The Users repository satisfies it.
type ActiveSubjectResolver interface {
	GetActiveByPhone(ctx context.Context, phone string) (*User, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey    []byte
	signingMethod string
	ttl           time.Duration
	users         ActiveSubjectResolver
	logger        Logger
}

// NewTokenService creates a new TokenService instance. The resolver makes
// validation a live check: a token whose subject has been soft deleted stops
// validating immediately, there is no separate revocation list. A nil
// resolver skips the lookup and only verifies the signature and lifetime.
func NewTokenService(config Config, users ActiveSubjectResolver, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}

	method := config.GetSigningMethod()
	if method == "" {
		method = jwt.SigningMethodHS256.Alg()
	}

	return &TokenServiceImpl{
		signingKey:    []byte(config.GetSigningKey()),
		signingMethod: method,
		ttl:           time.Duration(config.GetTokenTTL()) * time.Second,
		users:         users,
		logger:        logger,
	}
}

// Generate creates a JWT for the identity with the fixed configured lifetime
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	claims := NewAccessClaims(identity, time.Now(), ts.ttl)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary access claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *AccessClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and verifies a token string, then resolves the subject
// against the user store. Structural failures and expiry map to 401 grade
// errors, as does a subject that is missing or no longer active.
func (ts *TokenServiceImpl) Validate(ctx context.Context, tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		if alg := t.Method.Alg(); alg != ts.signingMethod {
			ts.logger.Error("TokenService validate rejected signing method %q, want %q", alg, ts.signingMethod)
			return nil, fmt.Errorf("unexpected signing method: %v", alg)
		}
		return ts.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.Phone() == "" {
		return nil, ErrTokenMalformed
	}

	// a missing expiration member would validate forever; the TTL is part
	// of the token contract, not optional
	if claims.Expiration == 0 {
		return nil, ErrTokenMalformed
	}

	if ts.users != nil {
		user, err := ts.resolveSubject(ctx, claims.Phone())
		if err != nil {
			return nil, err
		}
		if err := statusAuthError(user.Status); err != nil {
			return nil, err
		}
	}

	return claims, nil
}

func (ts *TokenServiceImpl) resolveSubject(ctx context.Context, phone string) (*User, error) {
	user, err := ts.users.GetActiveByPhone(ctx, phone)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrSubjectNotActive.WithMetadata(map[string]any{"phone": phone})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve token subject")
	}
	return user, nil
}
