package accounts_test

import (
	"fmt"
	"testing"

	accounts "github.com/OscarMF24/api-restful-codeigniter4"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category errors.Category
		code     int
		textCode string
	}{
		{
			name:     "invalid credentials",
			err:      accounts.ErrInvalidCredentials,
			category: errors.CategoryAuth,
			code:     errors.CodeUnauthorized,
			textCode: "INVALID_CREDENTIALS",
		},
		{
			name:     "missing token",
			err:      accounts.ErrMissingToken,
			category: errors.CategoryAuth,
			code:     errors.CodeUnauthorized,
			textCode: "MISSING_CREDENTIAL",
		},
		{
			name:     "subject not active",
			err:      accounts.ErrSubjectNotActive,
			category: errors.CategoryAuth,
			code:     errors.CodeUnauthorized,
			textCode: "SUBJECT_NOT_ACTIVE",
		},
		{
			name:     "user not found",
			err:      accounts.ErrUserNotFound,
			category: errors.CategoryNotFound,
			code:     errors.CodeNotFound,
			textCode: "USER_NOT_FOUND",
		},
		{
			name: "duplicate identifier maps to 400",
			// uniqueness collisions surface as validation failures, so
			// the HTTP code is 400 even though the category is conflict
			err:      accounts.ErrDuplicateIdentifier,
			category: errors.CategoryConflict,
			code:     errors.CodeBadRequest,
			textCode: "DUPLICATE_IDENTIFIER",
		},
		{
			name:     "invalid role",
			err:      accounts.ErrInvalidRole,
			category: errors.CategoryValidation,
			code:     errors.CodeBadRequest,
			textCode: "INVALID_ROLE",
		},
		{
			name:     "invalid transition maps to 409",
			err:      accounts.ErrInvalidTransition,
			category: errors.CategoryConflict,
			code:     errors.CodeConflict,
			textCode: "INVALID_USER_STATE_TRANSITION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var richErr *errors.Error
			require.True(t, errors.As(tt.err, &richErr))
			assert.Equal(t, tt.category, richErr.Category)
			assert.Equal(t, tt.code, richErr.Code)
			assert.Equal(t, tt.textCode, richErr.TextCode)
		})
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("lifecycle update: %w", accounts.ErrInvalidTransition)
	assert.True(t, errors.Is(wrapped, accounts.ErrInvalidTransition))

	wrapped = fmt.Errorf("lookup: %w", accounts.ErrUserNotFound)
	assert.True(t, errors.IsNotFound(wrapped))
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.False(t, accounts.IsTokenExpiredError(nil))
	assert.True(t, accounts.IsTokenExpiredError(accounts.ErrTokenExpired))
	assert.True(t, accounts.IsTokenExpiredError(fmt.Errorf("validate: %w", accounts.ErrTokenExpired)))
	assert.False(t, accounts.IsTokenExpiredError(accounts.ErrTokenMalformed))

	// rich errors render as "[category:TEXTCODE] ...", not the sentinel
	// message, so the helper must key on the text code
	rendered := errors.New("Authentication failed.", errors.CategoryAuth).
		WithTextCode("TOKEN_EXPIRED")
	assert.True(t, accounts.IsTokenExpiredError(rendered))
}

func TestIsMalformedError(t *testing.T) {
	assert.False(t, accounts.IsMalformedError(nil))
	assert.True(t, accounts.IsMalformedError(accounts.ErrTokenMalformed))
	assert.True(t, accounts.IsMalformedError(fmt.Errorf("missing or malformed JWT")))
	assert.False(t, accounts.IsMalformedError(accounts.ErrTokenExpired))

	wrapped := errors.Wrap(fmt.Errorf("bad segment"), errors.CategoryAuth, "Authentication failed.").
		WithTextCode("TOKEN_MALFORMED")
	assert.True(t, accounts.IsMalformedError(wrapped))
}
