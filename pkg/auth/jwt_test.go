package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	// Test roundtrip: generate token -> validate token works
	secret := "test-secret-key-12345"
	issuer := "test-issuer"
	tenantID := uuid.New()
	userID := uuid.New()
	role := "admin"

	tokenString, err := GenerateToken(secret, issuer, tenantID, userID, role, 24)

	require.NoError(t, err, "Should not error when generating token")
	assert.NotEmpty(t, tokenString, "Token should not be empty")

	claims, err := ValidateToken(tokenString, secret)

	require.NoError(t, err, "Should not error when validating token")
	assert.Equal(t, tenantID, claims.TenantID, "Tenant ID should match")
	assert.Equal(t, userID, claims.UserID, "User ID should match")
	assert.Equal(t, role, claims.Role, "Role should match")
	assert.Equal(t, issuer, claims.Issuer, "Issuer should match")
	assert.Equal(t, userID.String(), claims.Subject, "Subject should be user ID")
	assert.NotNil(t, claims.ExpiresAt, "ExpiresAt should be set")
	assert.NotEmpty(t, claims.ID, "Token ID should be set")
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	// Test that expired token returns error
	secret := "test-secret-key-12345"

	tokenString, err := GenerateToken(secret, "test-issuer", uuid.New(), uuid.New(), "viewer", -1)
	require.NoError(t, err, "Should generate token even with past expiry")

	claims, err := ValidateToken(tokenString, secret)

	assert.Error(t, err, "Should error when validating expired token")
	assert.Nil(t, claims, "Claims should be nil for expired token")
}

func TestValidateToken_WrongSecret(t *testing.T) {
	// Test that wrong secret returns error
	tokenString, err := GenerateToken("right-secret", "test-issuer", uuid.New(), uuid.New(), "analyst", 24)
	require.NoError(t, err)

	claims, err := ValidateToken(tokenString, "wrong-secret")

	assert.Error(t, err, "Should error when validating with wrong secret")
	assert.Nil(t, claims)
}

func TestValidateToken_InvalidTokenString(t *testing.T) {
	claims, err := ValidateToken("not.a.valid.token.string", "test-secret")

	assert.Error(t, err, "Should error with invalid token")
	assert.Nil(t, claims)
}

func TestValidateToken_TamperedToken(t *testing.T) {
	// Test that tampered token (modified signature) returns error
	secret := "test-secret-key-12345"
	tokenString, err := GenerateToken(secret, "test-issuer", uuid.New(), uuid.New(), "admin", 24)
	require.NoError(t, err)

	tamperedToken := tokenString[:len(tokenString)-10] + "tampered!!"

	claims, err := ValidateToken(tamperedToken, secret)

	assert.Error(t, err, "Should error when token is tampered")
	assert.Nil(t, claims)
}

func TestGenerateToken_DifferentRoles(t *testing.T) {
	// Every platform role survives the roundtrip intact
	secret := "test-secret-key-12345"
	tenantID := uuid.New()
	userID := uuid.New()

	for _, role := range []string{"admin", "analyst", "viewer"} {
		tokenString, err := GenerateToken(secret, "test-issuer", tenantID, userID, role, 24)
		require.NoError(t, err, "Should generate token for role: %s", role)

		claims, err := ValidateToken(tokenString, secret)
		require.NoError(t, err)
		assert.Equal(t, role, claims.Role)
	}
}

func TestGenerateToken_ExpirySetFromHours(t *testing.T) {
	secret := "test-secret-key-12345"

	tokenString, err := GenerateToken(secret, "test-issuer", uuid.New(), uuid.New(), "admin", 48)
	require.NoError(t, err)

	claims, err := ValidateToken(tokenString, secret)
	require.NoError(t, err)

	expectedExpiry := time.Now().Add(48 * time.Hour)
	assert.WithinDuration(t, expectedExpiry, claims.ExpiresAt.Time, 5*time.Second)
}

func TestGenerateToken_UniqueTokenIDs(t *testing.T) {
	// Two tokens for the same identity still get distinct JTIs
	secret := "test-secret-key-12345"
	tenantID := uuid.New()
	userID := uuid.New()

	token1, err := GenerateToken(secret, "test-issuer", tenantID, userID, "admin", 24)
	require.NoError(t, err)
	token2, err := GenerateToken(secret, "test-issuer", tenantID, userID, "admin", 24)
	require.NoError(t, err)

	claims1, err := ValidateToken(token1, secret)
	require.NoError(t, err)
	claims2, err := ValidateToken(token2, secret)
	require.NoError(t, err)

	assert.NotEqual(t, claims1.ID, claims2.ID, "Each token should have a unique ID")
}

func TestValidateToken_MissingCustomClaims(t *testing.T) {
	// A token with only registered claims parses but carries zero-value
	// tenant and user IDs
	secret := "test-secret-key-12345"
	standardClaims := jwt.RegisteredClaims{
		Issuer:    "test-issuer",
		Subject:   "test-subject",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, standardClaims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	claims, err := ValidateToken(tokenString, secret)

	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, claims.TenantID)
	assert.Equal(t, uuid.Nil, claims.UserID)
	assert.Empty(t, claims.Role)
}
