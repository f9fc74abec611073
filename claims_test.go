package accounts_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/OscarMF24/api-restful-codeigniter4"
)

func TestAccessClaimsWireFormat(t *testing.T) {
	issued := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	identity := accounts.NewIdentityFromUser(&accounts.User{
		ID:    1,
		Phone: "5613298400",
		Email: "oscar@example.com",
		Role:  accounts.RoleAdmin,
	})

	claims := accounts.NewAccessClaims(identity, issued, time.Hour)

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	// flat members only, no registered claim names
	assert.Equal(t, "5613298400", decoded["phone"])
	assert.Equal(t, "admin", decoded["type_user"])
	assert.EqualValues(t, issued.Unix(), decoded["issued"])
	assert.EqualValues(t, issued.Add(time.Hour).Unix(), decoded["expiration"])

	assert.NotContains(t, decoded, "sub")
	assert.NotContains(t, decoded, "exp")
	assert.NotContains(t, decoded, "iat")
	assert.NotContains(t, decoded, "iss")
}

func TestAccessClaimsRoleChecks(t *testing.T) {
	admin := &accounts.AccessClaims{UserPhone: "5613298400", UserRole: accounts.RoleAdmin}
	basic := &accounts.AccessClaims{UserPhone: "5587654321", UserRole: accounts.RoleBasic}

	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.HasRole("admin"))
	assert.False(t, admin.HasRole("basic"))

	assert.False(t, basic.IsAdmin())
	assert.True(t, basic.HasRole("basic"))

	assert.Equal(t, "5613298400", admin.Subject())
	assert.Equal(t, "5613298400", admin.Phone())
	assert.Equal(t, "admin", admin.Role())
}

func TestAccessClaimsJWTContract(t *testing.T) {
	issued := time.Now().Truncate(time.Second)
	claims := &accounts.AccessClaims{
		UserPhone:  "5613298400",
		UserRole:   accounts.RoleBasic,
		Issued:     issued.Unix(),
		Expiration: issued.Add(30 * time.Minute).Unix(),
	}

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.Equal(t, issued.Add(30*time.Minute).Unix(), exp.Unix())

	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	require.NotNil(t, iat)
	assert.Equal(t, issued.Unix(), iat.Unix())

	sub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "5613298400", sub)

	nbf, err := claims.GetNotBefore()
	require.NoError(t, err)
	assert.Nil(t, nbf)

	iss, err := claims.GetIssuer()
	require.NoError(t, err)
	assert.Empty(t, iss)

	aud, err := claims.GetAudience()
	require.NoError(t, err)
	assert.Empty(t, aud)
}

func TestAccessClaimsZeroTimestamps(t *testing.T) {
	claims := &accounts.AccessClaims{UserPhone: "5613298400"}

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Nil(t, exp)

	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	assert.Nil(t, iat)

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
