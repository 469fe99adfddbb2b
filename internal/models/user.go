package models

import "time"

// RefreshTokenName is the user-token name under which refresh tokens are stored.
const RefreshTokenName = "Refresh Token"

// DefaultProvider is the login provider recorded on user tokens issued by this service.
const DefaultProvider = "Default"

// User is an account known to the identity store.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"index"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserToken is a named credential owned by a user. The primary key allows one value per
// (user, provider, name), so writing a new refresh token supersedes the previous one.
type UserToken struct {
	UserID        string    `gorm:"primaryKey;type:varchar(36)"`
	LoginProvider string    `gorm:"primaryKey;type:varchar(64)"`
	Name          string    `gorm:"primaryKey;type:varchar(64)"`
	Value         string    `gorm:"not null"`
	CreatedAt     time.Time
}

// LoginViewModel is the credential payload for token creation and registration.
type LoginViewModel struct {
	Username  string `json:"username" binding:"required,whitelist=USERNAME"`
	Password  string `json:"password" binding:"required,whitelist=PASSWORD"`
	Email     string `json:"email" binding:"whitelist=DESC"`
	Firstname string `json:"firstname" binding:"whitelist=NAME"`
	Lastname  string `json:"lastname" binding:"whitelist=NAME"`
}

// RefreshTokenViewModel carries the triple presented to exchange a refresh token.
type RefreshTokenViewModel struct {
	UserID       string `json:"userId" binding:"whitelist=DESC"`
	Token        string `json:"token" binding:"whitelist=DESC"`
	RefreshToken string `json:"refreshToken" binding:"whitelist=DESC"`
}

// GenericViewModel wraps a single validated string value.
type GenericViewModel struct {
	Value string `json:"value" binding:"required,whitelist=DESC"`
}

// TokenResult is returned by token creation and refresh.
type TokenResult struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	Expiration   time.Time `json:"expiration"`
	User         string    `json:"user"`
}
