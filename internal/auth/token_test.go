package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-api/internal/config"
	"todo-api/internal/models"
)

func testConfig() config.TokenConfig {
	return config.TokenConfig{
		Key:          "a-test-signing-key-of-reasonable-length",
		Issuer:       "todo-api",
		Audience:     "todo-web",
		Timeout:      30 * time.Minute,
		RefreshGrace: 2 * time.Hour,
	}
}

func testUser() *models.User {
	return &models.User{ID: "5d1c2c0e-0000-4000-8000-000000000001", Username: "user", Email: "user@Todo.DotNetSix"}
}

func TestNewIssuerRequiresKey(t *testing.T) {
	_, err := NewIssuer(config.TokenConfig{})
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer(testConfig())
	require.NoError(t, err)

	before := time.Now()
	token, exp, err := iss.Issue(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, before.Add(30*time.Minute), exp, 2*time.Second)

	claims, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user@Todo.DotNetSix", claims.Subject)
	assert.Equal(t, "user", claims.UniqueName)
	assert.Equal(t, testUser().ID, claims.NameID)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	iss, err := NewIssuer(testConfig())
	require.NoError(t, err)

	other := testConfig()
	other.Key = "some-other-key"
	foreign, err := NewIssuer(other)
	require.NoError(t, err)
	token, _, err := foreign.Issue(testUser())
	require.NoError(t, err)
	_, err = iss.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other = testConfig()
	other.Audience = "someone-else"
	wrongAud, err := NewIssuer(other)
	require.NoError(t, err)
	token, _, err = wrongAud.Issue(testUser())
	require.NoError(t, err)
	_, err = iss.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = iss.ParseIgnoringLifetime(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UniqueName: "user"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenWithinGrace(t *testing.T) {
	iss, err := NewIssuer(testConfig())
	require.NoError(t, err)
	issued := time.Now().Add(-time.Hour)
	iss.SetClock(func() time.Time { return issued })
	token, _, err := iss.Issue(testUser())
	require.NoError(t, err)
	iss.SetClock(time.Now)

	_, err = iss.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := iss.ParseIgnoringLifetime(token)
	require.NoError(t, err)
	assert.False(t, iss.PastGrace(claims))
}

func TestExpiredTokenPastGrace(t *testing.T) {
	iss, err := NewIssuer(testConfig())
	require.NoError(t, err)
	issued := time.Now().Add(-3 * time.Hour)
	iss.SetClock(func() time.Time { return issued })
	token, _, err := iss.Issue(testUser())
	require.NoError(t, err)
	iss.SetClock(time.Now)

	claims, err := iss.ParseIgnoringLifetime(token)
	require.NoError(t, err)
	assert.True(t, iss.PastGrace(claims))
}

func TestNewRefreshTokenIsUnique(t *testing.T) {
	assert.NotEqual(t, NewRefreshToken(), NewRefreshToken())
}
