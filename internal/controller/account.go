package controller

import (
	"errors"
	"net/http"

	"todo-api/internal/behaviour"
	"todo-api/internal/models"
	"todo-api/internal/pipeline"
	"todo-api/pkg/apperror"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

const msgUserNotCreated = "User could not be created"

// AccountController serves /api/account.
type AccountController struct {
	accounts *behaviour.AccountBehaviour
}

func NewAccountController(accounts *behaviour.AccountBehaviour) *AccountController {
	return &AccountController{accounts: accounts}
}

// CreateToken exchanges a username and password for a token pair.
func (h *AccountController) CreateToken(c *gin.Context) {
	m := pipeline.Model[models.LoginViewModel](c)
	res, err := h.accounts.CreateToken(c.Request.Context(), m.Username, m.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// RefreshToken exchanges a token and its refresh token for a new pair. Every failure is
// reported as 401.
func (h *AccountController) RefreshToken(c *gin.Context) {
	ctx := c.Request.Context()
	m := pipeline.Model[models.RefreshTokenViewModel](c)
	res, err := h.accounts.RefreshToken(ctx, m)
	if err != nil {
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Code != apperror.CodeUnauthorized {
			logger.Error(ctx, "Refresh token failed", "error", err, "user_id", m.UserID)
			appErr = behaviour.ErrUnauthorized
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, apperror.Body{
			StatusCode: http.StatusUnauthorized,
			Message:    appErr.Message,
		})
		return
	}
	c.JSON(http.StatusCreated, res)
}

// NewUser registers an account.
func (h *AccountController) NewUser(c *gin.Context) {
	m := pipeline.Model[models.LoginViewModel](c)
	ok, err := h.accounts.AddUser(c.Request.Context(), m)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, apperror.Body{
			StatusCode: http.StatusBadRequest,
			Message:    msgUserNotCreated,
		})
		return
	}
	c.JSON(http.StatusOK, true)
}

// IsUsernameAvailable reports whether the username in the body is free.
func (h *AccountController) IsUsernameAvailable(c *gin.Context) {
	m := pipeline.Model[models.GenericViewModel](c)
	ok, err := h.accounts.IsUsernameAvailable(c.Request.Context(), m.Value)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ok)
}

// GetUsername returns the username for the user id in the body, or null.
func (h *AccountController) GetUsername(c *gin.Context) {
	m := pipeline.Model[models.GenericViewModel](c)
	name, err := h.accounts.GetUsername(c.Request.Context(), m.Value)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, name)
}
