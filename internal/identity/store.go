// Package identity stores user accounts, their password hashes and their named tokens.
package identity

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
	ErrWeakPassword  = errors.New("password does not meet requirements")
	ErrTokenNotFound = errors.New("token not found")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Store is the user store. It is safe for concurrent use.
type Store struct {
	db   *gorm.DB
	cost int
}

// NewStore returns a store hashing passwords with the given bcrypt cost.
func NewStore(db *gorm.DB, cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Store{db: db, cost: cost}
}

// WithTx returns a store bound to an open transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, cost: s.cost}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) find(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Error(ctx, "Identity lookup failed", "error", err)
		return nil, err
	}
	return &u, nil
}

// FindByName returns the user with the given username.
func (s *Store) FindByName(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, ErrUserNotFound
	}
	return s.find(ctx, "username = ?", username)
}

// FindByID returns the user with the given id.
func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}
	return s.find(ctx, "id = ?", id)
}

// Create hashes password and inserts u, assigning a new id.
func (s *Store) Create(ctx context.Context, u *models.User, password string) error {
	if err := CheckPasswordPolicy(password); err != nil {
		return err
	}
	if _, err := s.FindByName(ctx, u.Username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if u.Email != "" {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(u.Email)).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.PasswordHash = string(hash)
	err = s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	if err != nil {
		logger.Error(ctx, "Identity create failed", "error", err, "username", u.Username)
		return err
	}
	logger.Info(ctx, "User created", "user_id", u.ID)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (s *Store) CheckPassword(u *models.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CheckPasswordPolicy requires MinPasswordLength characters including an upper case
// letter, a lower case letter, a digit and a symbol.
func CheckPasswordPolicy(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}

// GetToken returns the value stored under (userID, provider, name).
func (s *Store) GetToken(ctx context.Context, userID, provider, name string) (string, error) {
	var t models.UserToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND login_provider = ? AND name = ?", userID, provider, name).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return t.Value, nil
}

// ReplaceToken deletes every token called name for userID and stores value in its place,
// in one transaction. The insert is an upsert so a concurrent replace for the same user
// ends with the last writer's value instead of a duplicate-key failure.
func (s *Store) ReplaceToken(ctx context.Context, userID, provider, name, value string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND name = ?", userID, name).Delete(&models.UserToken{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&models.UserToken{
			UserID:        userID,
			LoginProvider: provider,
			Name:          name,
			Value:         value,
		}).Error
	})
}

// RemoveToken deletes the token called name for userID only if it holds value.
// ErrTokenNotFound is returned when no such token exists.
func (s *Store) RemoveToken(ctx context.Context, userID, name, value string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND value = ?", userID, name, value).
		Delete(&models.UserToken{})
	if res.Error != nil {
		logger.Error(ctx, "Identity remove token failed", "error", res.Error, "user_id", userID)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}
