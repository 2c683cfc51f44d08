package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenTypeAccess is the only token type the storefront issues.
const TokenTypeAccess = "access"

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrMissingSecret = errors.New("JWT secret not configured")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the subject has the admin role.
func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// TokenService signs and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a service signing with secret; tokens live for ttl.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Generate issues an access token for the given identity.
func (s *TokenService) Generate(userID, email, role string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"typ":   TokenTypeAccess,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAndValidateToken verifies signature, expiry and the typ claim.
func (s *TokenService) ParseAndValidateToken(tokenStr, expectedType string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if expectedType != "" {
		if typ, _ := mc["typ"].(string); typ != expectedType {
			return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
		}
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	email, _ := mc["email"].(string)
	role, _ := mc["role"].(string)
	if role == "" {
		role = RoleUser
	}
	return &Claims{UserID: sub, Email: email, Role: role}, nil
}
