package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/OscarMF24/api-restful-codeigniter4/middleware/jwtware"
)

// routeTokenValidator bridges the TokenService into the jwtware middleware.
type routeTokenValidator struct {
	ts TokenService
}

func (v routeTokenValidator) Validate(ctx context.Context, tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewRouteTokenValidator wraps a TokenService for use in route middleware.
func NewRouteTokenValidator(ts TokenService) jwtware.TokenValidator {
	return routeTokenValidator{ts: ts}
}

// Protected builds middleware that requires a valid bearer token. Token
// validation includes the live subject lookup, so a soft deleted account is
// rejected here even if its token has not expired.
func Protected(cfg Config, ts TokenService, logger Logger) router.MiddlewareFunc {
	return protectedWithRole(cfg, ts, logger, "")
}

// AdminOnly requires a valid bearer token carrying the admin role. The role
// check reads the claim snapshot, not the database: a demotion takes effect
// when the current token expires.
func AdminOnly(cfg Config, ts TokenService, logger Logger) router.MiddlewareFunc {
	return protectedWithRole(cfg, ts, logger, RoleAdmin)
}

func protectedWithRole(cfg Config, ts TokenService, logger Logger, role string) router.MiddlewareFunc {
	if logger == nil {
		logger = defLogger{}
	}

	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		TokenValidator: NewRouteTokenValidator(ts),
		RequiredRole:   role,
		ErrorHandler:   MakeAuthErrorHandler(logger),
	})
}

// MakeAuthErrorHandler maps middleware failures onto the API's responses:
// 403 when a valid token lacks the required role, 401 for everything else.
func MakeAuthErrorHandler(logger Logger) router.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(ctx router.Context, err error) error {
		if errors.Is(err, jwtware.ErrAccessDenied) {
			richErr := errors.Wrap(err, errors.CategoryAuthz, "insufficient role for this resource").
				WithTextCode("FORBIDDEN").
				WithCode(errors.CodeForbidden)
			return WriteError(ctx, logger, richErr)
		}

		var richErr *errors.Error
		if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
			richErr = ErrMissingToken
		} else if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, "invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if richErr.Code == 0 {
			richErr = richErr.WithCode(errors.CodeUnauthorized)
		}

		return WriteError(ctx, logger, richErr)
	}
}

// GetRouteClaims retrieves the validated claims the middleware stored in the
// request context under the configured key.
func GetRouteClaims(ctx router.Context, key string) (*AccessClaims, error) {
	value := ctx.Locals(key)
	if value == nil {
		return nil, ErrMissingToken
	}

	claims, ok := value.(*AccessClaims)
	if !ok {
		return nil, ErrMissingToken
	}

	return claims, nil
}

// WriteError renders any error as the API's JSON error envelope. Rich errors
// carry their own status code; note that identifier conflicts are built with
// a 400 code, so duplicate phone or email never surfaces as a 409.
func WriteError(ctx router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "an unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusFromCategory(richErr.Category)
	}

	if status >= 500 {
		logger.Error("request failed: %s category=%s metadata=%s",
			richErr.Message, richErr.Category, print.MaybePrettyJSON(richErr.Metadata))
	} else {
		logger.Debug("request rejected: %s category=%s", richErr.Message, richErr.Category)
	}

	body := map[string]any{
		"status": status,
		"error":  richErr.Message,
	}

	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	if fields, ok := richErr.Metadata["fields"]; ok {
		body["messages"] = fields
	}

	return ctx.JSON(status, body)
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return errors.CodeBadRequest
	case errors.CategoryAuth:
		return errors.CodeUnauthorized
	case errors.CategoryAuthz:
		return errors.CodeForbidden
	case errors.CategoryNotFound:
		return errors.CodeNotFound
	case errors.CategoryConflict:
		return errors.CodeConflict
	default:
		return errors.CodeInternal
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a field
// to message map for the JSON error body.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

// ValidationError wraps an ozzo validation failure into a rich 400 error
// carrying the per field messages.
func ValidationError(err error) *errors.Error {
	return errors.New("validation failed", errors.CategoryValidation).
		WithTextCode("VALIDATION_ERROR").
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": FormatValidationErrorToMap(err)})
}
