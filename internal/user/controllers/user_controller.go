package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/user/models"
)

type Accounts interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.AuthResponse, error)
}

type UserController struct {
	accounts Accounts
}

func NewUserController(accounts Accounts) *UserController {
	return &UserController{accounts: accounts}
}

// Register handles POST /api/users/register
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("Please provide name, a valid email and a password of at least 6 characters"))
		return
	}
	res, err := uc.accounts.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login handles POST /api/users/login
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("Email and password are required"))
		return
	}
	res, err := uc.accounts.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetProfile handles GET /api/users/profile
func (uc *UserController) GetProfile(c *gin.Context) {
	claims, ok := auth.CurrentClaims(c)
	if !ok {
		_ = c.Error(apperrors.ErrNoToken)
		return
	}
	user, err := uc.accounts.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile
func (uc *UserController) UpdateProfile(c *gin.Context) {
	claims, ok := auth.CurrentClaims(c)
	if !ok {
		_ = c.Error(apperrors.ErrNoToken)
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("Invalid profile data"))
		return
	}
	res, err := uc.accounts.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
