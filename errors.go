package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned when the submitted phone/password pair
// does not resolve to an active account. Lookup misses and hash mismatches
// collapse into this one error so the API does not leak which part failed.
var ErrInvalidCredentials = errors.New("invalid login credentials provided", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch marker.
var ErrMismatchedHashAndPassword = errors.New("password does not match stored hash", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(errors.CodeBadRequest)

// ErrMissingToken is returned when the request carries no bearer credential.
var ErrMissingToken = errors.New("missing or invalid JWT in request", errors.CategoryAuth).
	WithTextCode("MISSING_CREDENTIAL").
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired marks tokens whose expiration claim has passed.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures, wrong algorithms and undecodable
// tokens alike.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrSubjectNotActive is returned by token validation when the subject of an
// otherwise valid token no longer resolves to an active account. This is the
// mechanism by which soft deletion revokes outstanding tokens.
var ErrSubjectNotActive = errors.New("token subject is not an active account", errors.CategoryAuth).
	WithTextCode("SUBJECT_NOT_ACTIVE").
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when no row matches the requested id or phone,
// or the row is not in the state the lookup requires.
var ErrUserNotFound = errors.New("user does not exist for specified identifier", errors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrDuplicateIdentifier is raised when a phone or email collides with any
// existing row, soft deleted rows included. The original API reported
// uniqueness violations as validation failures, so this deliberately carries
// a 400 and not a 409.
var ErrDuplicateIdentifier = errors.New("phone or email is already registered", errors.CategoryConflict).
	WithTextCode("DUPLICATE_IDENTIFIER").
	WithCode(errors.CodeBadRequest)

// ErrInvalidRole rejects roles outside {admin, basic}.
var ErrInvalidRole = errors.New("unknown or invalid user role", errors.CategoryValidation).
	WithTextCode("INVALID_ROLE").
	WithCode(errors.CodeBadRequest)

// ErrInvalidTransition is returned when a requested lifecycle change is not
// allowed, e.g. deleting an already deleted user.
var ErrInvalidTransition = errors.New("invalid user state transition", errors.CategoryConflict).
	WithTextCode("INVALID_USER_STATE_TRANSITION").
	WithCode(errors.CodeConflict)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	var richErr *errors.Error
	return errors.As(err, &richErr) && richErr.TextCode == ErrTokenExpired.TextCode
}

// IsMalformedError will check for structurally bad tokens. The plain string
// check covers the middleware's extraction error, which is not a rich error.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == ErrTokenMalformed.TextCode {
		return true
	}
	return strings.Contains(err.Error(), "missing or malformed JWT")
}
