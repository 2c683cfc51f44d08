// Package session is the shopper-side auth gate. It keeps the signed-in user
// and bearer token in the client store and attaches the token to calls that
// need it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/cart"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/storage"
	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
)

var ErrLoginRequired = apperrors.New(http.StatusUnauthorized, "Please log in to continue", nil)

// AuthAPI is the backend surface the session needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*usermodels.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*usermodels.AuthResponse, error)
	Profile(ctx context.Context, token string) (*usermodels.User, error)
	UpdateProfile(ctx context.Context, token string, req usermodels.UpdateProfileRequest) (*usermodels.AuthResponse, error)
}

// User is the persisted copy of the signed-in account.
type User struct {
	ID      string             `json:"_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Role    string             `json:"role"`
	Address usermodels.Address `json:"address"`
	Phone   string             `json:"phone,omitempty"`
}

func (u *User) IsAdmin() bool { return u.Role == usermodels.RoleAdmin }

type Session struct {
	api    AuthAPI
	store  storage.Store
	cart   *cart.Cart
	logger *zap.Logger
}

// New builds a session. When c is non-nil Logout empties it as well as the
// persisted cart key.
func New(api AuthAPI, store storage.Store, c *cart.Cart, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{api: api, store: store, cart: c, logger: logger}
}

func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.remember(ctx, res)
}

func (s *Session) Register(ctx context.Context, name, email, password string) (*User, error) {
	res, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	return s.remember(ctx, res)
}

// CurrentUser returns nil when nobody is signed in.
func (s *Session) CurrentUser(ctx context.Context) (*User, error) {
	raw, ok, err := s.store.Get(ctx, storage.KeyUser)
	if err != nil || !ok {
		return nil, err
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger.Warn("Discarding unreadable stored user", zap.Error(err))
		return nil, nil
	}
	return &u, nil
}

func (s *Session) Token(ctx context.Context) (string, error) {
	token, _, err := s.store.Get(ctx, storage.KeyToken)
	return token, err
}

func (s *Session) IsAuthenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

// RequireAuth returns ErrLoginRequired when no credential is stored. Prompting
// for login is left to the caller.
func (s *Session) RequireAuth(ctx context.Context) error {
	if !s.IsAuthenticated(ctx) {
		return ErrLoginRequired
	}
	return nil
}

// Authorized runs fn with the bearer token. A 401 from fn expires the
// session before the error is returned.
func (s *Session) Authorized(ctx context.Context, fn func(token string) error) error {
	if err := s.RequireAuth(ctx); err != nil {
		return err
	}
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}

	err = fn(token)
	if errors.Is(err, apperrors.ErrUnauthorized) {
		s.logger.Info("Credential rejected, signing out")
		if expErr := s.Expire(ctx); expErr != nil {
			return errors.Join(err, expErr)
		}
	}
	return err
}

func (s *Session) Profile(ctx context.Context) (*usermodels.User, error) {
	var u *usermodels.User
	err := s.Authorized(ctx, func(token string) error {
		var err error
		u, err = s.api.Profile(ctx, token)
		return err
	})
	return u, err
}

// UpdateProfile stores the refreshed user and token on success.
func (s *Session) UpdateProfile(ctx context.Context, req usermodels.UpdateProfileRequest) (*User, error) {
	var res *usermodels.AuthResponse
	err := s.Authorized(ctx, func(token string) error {
		var err error
		res, err = s.api.UpdateProfile(ctx, token, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.remember(ctx, res)
}

// Logout clears the credentials and the cart.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.Expire(ctx); err != nil {
		return err
	}
	if s.cart != nil {
		return s.cart.Clear(ctx)
	}
	return s.store.Delete(ctx, storage.KeyCart)
}

// Expire clears the credentials only. The cart survives so the shopper can
// sign in again and carry on.
func (s *Session) Expire(ctx context.Context) error {
	if err := s.store.Delete(ctx, storage.KeyToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if err := s.store.Delete(ctx, storage.KeyUser); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}

func (s *Session) remember(ctx context.Context, res *usermodels.AuthResponse) (*User, error) {
	u := &User{
		ID:      res.ID.String(),
		Name:    res.Name,
		Email:   res.Email,
		Role:    res.Role,
		Address: res.Address,
		Phone:   res.Phone,
	}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, storage.KeyUser, string(b)); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyToken, res.Token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return u, nil
}
