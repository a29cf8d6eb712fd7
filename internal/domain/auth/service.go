package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/yanqian/doctor-faq/pkg/errors"
)

// Service issues and validates access tokens.
type Service interface {
	IssueToken(ctx context.Context, userID, role string) (string, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) IssueToken(_ context.Context, userID, role string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", apperrors.Wrap("invalid_input", "user id cannot be empty", nil)
	}
	if !knownRole(role) {
		return "", apperrors.Wrap("invalid_input", fmt.Sprintf("unknown role %q", role), nil)
	}
	now := time.Now()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	return signed, nil
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.Subject == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing subject", nil)
	}
	return Claims{
		UserID:    claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func knownRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleStaff:
		return true
	default:
		return false
	}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
