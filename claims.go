package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims with role checking
type AuthClaims interface {
	Subject() string
	Phone() string
	Role() string
	HasRole(role string) bool
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// AccessClaims is the concrete claim set carried by access tokens. The wire
// format is intentionally flat: no registered claim names, just phone,
// type_user, issued and expiration as top level members with epoch seconds
// for the timestamps.
type AccessClaims struct {
	UserPhone  string `json:"phone"`
	UserRole   string `json:"type_user"`
	Issued     int64  `json:"issued"`
	Expiration int64  `json:"expiration"`
}

// Verify interface compliance
var _ AuthClaims = (*AccessClaims)(nil)
var _ jwt.Claims = (*AccessClaims)(nil)

// NewAccessClaims builds the claim set for an identity with the given
// lifetime, stamping issued and expiration from the provided clock time.
func NewAccessClaims(identity Identity, issued time.Time, ttl time.Duration) *AccessClaims {
	return &AccessClaims{
		UserPhone:  identity.Phone(),
		UserRole:   identity.Role(),
		Issued:     issued.Unix(),
		Expiration: issued.Add(ttl).Unix(),
	}
}

// Subject returns the token subject, which is the account phone number.
func (c *AccessClaims) Subject() string {
	return c.UserPhone
}

// Phone returns the phone number the token was minted for.
func (c *AccessClaims) Phone() string {
	return c.UserPhone
}

// Role returns the role recorded at token issue time.
func (c *AccessClaims) Role() string {
	return c.UserRole
}

// HasRole checks the role recorded in the token. The claim is a snapshot: a
// role change after issuance is not reflected until a new token is minted.
func (c *AccessClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAdmin reports whether the token carries the admin role.
func (c *AccessClaims) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}

// Expires returns the expiration time
func (c *AccessClaims) Expires() time.Time {
	if c.Expiration == 0 {
		return time.Time{}
	}
	return time.Unix(c.Expiration, 0)
}

// IssuedAt returns the issued at time
func (c *AccessClaims) IssuedAt() time.Time {
	if c.Issued == 0 {
		return time.Time{}
	}
	return time.Unix(c.Issued, 0)
}

// GetExpirationTime maps the flat expiration member onto the jwt.Claims
// contract so the parser enforces token lifetime.
func (c *AccessClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Expiration == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Expiration, 0)), nil
}

// GetIssuedAt maps the flat issued member onto the jwt.Claims contract.
func (c *AccessClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.Issued == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Issued, 0)), nil
}

// GetNotBefore is unset, tokens are valid from the moment of issue.
func (c *AccessClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetIssuer is unset for this token format.
func (c *AccessClaims) GetIssuer() (string, error) {
	return "", nil
}

// GetSubject returns the phone number.
func (c *AccessClaims) GetSubject() (string, error) {
	return c.UserPhone, nil
}

// GetAudience is unset for this token format.
func (c *AccessClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}
