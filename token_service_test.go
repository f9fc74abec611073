package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/OscarMF24/api-restful-codeigniter4"
)

func activeUser(id int64, phone string, role accounts.UserRole) *accounts.User {
	return &accounts.User{
		ID:     id,
		Phone:  phone,
		Email:  phone + "@example.com",
		Role:   role,
		Status: accounts.UserStatusActive,
	}
}

func newTestTokenService(resolver accounts.ActiveSubjectResolver) accounts.TokenService {
	return accounts.NewTokenService(testConfig{}, resolver, nil)
}

func TestTokenServiceRoundTrip(t *testing.T) {
	user := activeUser(1, "5613298400", accounts.RoleAdmin)
	resolver := &stubSubjectResolver{users: map[string]*accounts.User{
		user.Phone: user,
	}}

	ts := newTestTokenService(resolver)

	token, err := ts.Generate(accounts.NewIdentityFromUser(user))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "5613298400", claims.Phone())
	assert.Equal(t, "admin", claims.Role())
	assert.True(t, claims.IsAdmin())
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), time.Minute)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	user := activeUser(1, "5613298400", accounts.RoleBasic)
	resolver := &stubSubjectResolver{users: map[string]*accounts.User{
		user.Phone: user,
	}}

	ts := newTestTokenService(resolver)

	issued := time.Now().Add(-2 * time.Hour)
	expired := accounts.NewAccessClaims(accounts.NewIdentityFromUser(user), issued, time.Hour)

	token, err := ts.SignClaims(expired)
	require.NoError(t, err)

	_, err = ts.Validate(context.Background(), token)
	require.Error(t, err)
	assert.True(t, accounts.IsTokenExpiredError(err))
}

func TestTokenServiceRejectsMissingExpiration(t *testing.T) {
	user := activeUser(1, "5613298400", accounts.RoleBasic)
	resolver := &stubSubjectResolver{users: map[string]*accounts.User{
		user.Phone: user,
	}}

	ts := newTestTokenService(resolver)

	claims := &accounts.AccessClaims{
		UserPhone: user.Phone,
		UserRole:  user.Role,
		Issued:    time.Now().Unix(),
	}

	token, err := ts.SignClaims(claims)
	require.NoError(t, err)

	_, err = ts.Validate(context.Background(), token)
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestTokenServiceRejectsTamperedToken(t *testing.T) {
	user := activeUser(1, "5613298400", accounts.RoleBasic)
	resolver := &stubSubjectResolver{users: map[string]*accounts.User{
		user.Phone: user,
	}}

	ts := newTestTokenService(resolver)

	token, err := ts.Generate(accounts.NewIdentityFromUser(user))
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "XXXX"

	_, err = ts.Validate(context.Background(), tampered)
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestTokenServiceRejectsWrongSigningKey(t *testing.T) {
	user := activeUser(1, "5613298400", accounts.RoleBasic)
	resolver := &stubSubjectResolver{users: map[string]*accounts.User{
		user.Phone: user,
	}}

	other := accounts.NewTokenService(testConfig{signingKey: "a-different-key"}, resolver, nil)
	token, err := other.Generate(accounts.NewIdentityFromUser(user))
	require.NoError(t, err)

	ts := newTestTokenService(resolver)
	_, err = ts.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestTokenServiceRejectsForeignAlgorithm(t *testing.T) {
	user := activeUser(1, "5613298400", accounts.RoleBasic)
	resolver := &stubSubjectResolver{users: map[string]*accounts.User{
		user.Phone: user,
	}}

	claims := accounts.NewAccessClaims(accounts.NewIdentityFromUser(user), time.Now(), time.Hour)
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	token, err := foreign.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	ts := newTestTokenService(resolver)
	_, err = ts.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestTokenServiceRevokesDeletedSubject(t *testing.T) {
	user := activeUser(3, "5587654321", accounts.RoleBasic)
	resolver := &stubSubjectResolver{users: map[string]*accounts.User{
		user.Phone: user,
	}}

	ts := newTestTokenService(resolver)

	token, err := ts.Generate(accounts.NewIdentityFromUser(user))
	require.NoError(t, err)

	// token still validates while the subject is live
	_, err = ts.Validate(context.Background(), token)
	require.NoError(t, err)

	// soft deleting the account takes effect on the very next validation
	delete(resolver.users, user.Phone)

	_, err = ts.Validate(context.Background(), token)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, goerrors.CodeUnauthorized, richErr.Code)
}

func TestTokenServiceWithoutResolverSkipsLookup(t *testing.T) {
	user := activeUser(9, "5511122233", accounts.RoleBasic)

	ts := newTestTokenService(nil)

	token, err := ts.Generate(accounts.NewIdentityFromUser(user))
	require.NoError(t, err)

	claims, err := ts.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.Phone, claims.Phone())
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	ts := newTestTokenService(nil)

	_, err := ts.Validate(context.Background(), "not.a.jwt")
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))

	_, err = ts.Validate(context.Background(), "")
	assert.Error(t, err)
}
