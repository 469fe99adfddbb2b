package behaviour

import (
	"context"
	"errors"

	"todo-api/internal/auth"
	"todo-api/internal/identity"
	"todo-api/internal/models"
	"todo-api/pkg/apperror"
	"todo-api/pkg/logger"
)

// Refresh failures. Each maps to 401 with its own message.
var (
	ErrUnauthorized         = apperror.Unauthorized("Unauthorized")
	ErrInvalidToken         = apperror.Unauthorized("Invalid token")
	ErrTokenExpired         = apperror.Unauthorized("Token has expired")
	ErrInvalidUserID        = apperror.Unauthorized("Invalid User ID")
	ErrRefreshTokenNotFound = apperror.Unauthorized("Refresh Token not found")
	ErrInvalidCredentials   = apperror.Unauthorized("Invalid user credentials")
)

// AccountBehaviour implements login, registration and token refresh.
type AccountBehaviour struct {
	users  *identity.Store
	tokens *auth.Issuer
}

// NewAccountBehaviour returns an AccountBehaviour.
func NewAccountBehaviour(users *identity.Store, tokens *auth.Issuer) *AccountBehaviour {
	return &AccountBehaviour{users: users, tokens: tokens}
}

// GetTokenResult issues a bearer token and a fresh refresh token for u, superseding any
// refresh token u held before.
func (b *AccountBehaviour) GetTokenResult(ctx context.Context, u *models.User) (*models.TokenResult, error) {
	token, exp, err := b.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	refresh := auth.NewRefreshToken()
	if err := b.AddUserToken(ctx, u.ID, models.RefreshTokenName, refresh); err != nil {
		return nil, err
	}
	return &models.TokenResult{
		Token:        token,
		RefreshToken: refresh,
		Expiration:   exp,
		User:         u.ID,
	}, nil
}

// AddUserToken clears every token called name for userID and stores value.
func (b *AccountBehaviour) AddUserToken(ctx context.Context, userID, name, value string) error {
	return b.users.ReplaceToken(ctx, userID, models.DefaultProvider, name, value)
}

// RemoveUserToken deletes the matching token; identity.ErrTokenNotFound if there is none.
func (b *AccountBehaviour) RemoveUserToken(ctx context.Context, userID, name, value string) error {
	return b.users.RemoveToken(ctx, userID, name, value)
}

// AddUser registers a new account. It reports false when the username is taken or the
// account could not be created.
func (b *AccountBehaviour) AddUser(ctx context.Context, m *models.LoginViewModel) (bool, error) {
	u := &models.User{
		Username:  m.Username,
		Email:     m.Email,
		FirstName: m.Firstname,
		LastName:  m.Lastname,
	}
	err := b.users.Create(ctx, u, m.Password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, identity.ErrUsernameTaken),
		errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrWeakPassword):
		logger.Info(ctx, "User not created", "username", m.Username, "reason", err.Error())
		return false, nil
	default:
		return false, err
	}
}

// CreateToken checks the credentials and issues tokens.
func (b *AccountBehaviour) CreateToken(ctx context.Context, username, password string) (*models.TokenResult, error) {
	u, err := b.users.FindByName(ctx, username)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !b.users.CheckPassword(u, password) {
		logger.Info(ctx, "Password check failed", "username", username)
		return nil, ErrUnauthorized
	}
	return b.GetTokenResult(ctx, u)
}

// RefreshToken exchanges a possibly expired bearer token and its refresh token for a new
// pair. The presented refresh token is consumed whether or not the exchange succeeds.
func (b *AccountBehaviour) RefreshToken(ctx context.Context, m *models.RefreshTokenViewModel) (*models.TokenResult, error) {
	claims, err := b.tokens.ParseIgnoringLifetime(m.Token)
	if err != nil {
		logger.Debug(ctx, "Refresh token parse failed", "error", err)
		return nil, ErrInvalidToken
	}
	if b.tokens.PastGrace(claims) {
		return nil, ErrTokenExpired
	}

	u, err := b.users.FindByID(ctx, m.UserID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, ErrInvalidUserID
	}
	if err != nil {
		return nil, err
	}

	stored, err := b.users.GetToken(ctx, u.ID, models.DefaultProvider, models.RefreshTokenName)
	if err != nil && !errors.Is(err, identity.ErrTokenNotFound) {
		return nil, err
	}
	isValid := err == nil && stored == m.RefreshToken

	if u.Username != claims.UniqueName {
		return nil, ErrInvalidUserID
	}

	err = b.RemoveUserToken(ctx, u.ID, models.RefreshTokenName, m.RefreshToken)
	if errors.Is(err, identity.ErrTokenNotFound) {
		return nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	if !isValid {
		return nil, ErrInvalidCredentials
	}
	return b.GetTokenResult(ctx, u)
}

// IsUsernameAvailable reports whether no account uses username.
func (b *AccountBehaviour) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := b.users.FindByName(ctx, username)
	if errors.Is(err, identity.ErrUserNotFound) {
		return true, nil
	}
	return false, err
}

// GetUsername returns the username for userID, or nil when there is no such user.
func (b *AccountBehaviour) GetUsername(ctx context.Context, userID string) (*string, error) {
	u, err := b.users.FindByID(ctx, userID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u.Username, nil
}
