package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stackit/internal/config"
	"stackit/internal/microservices/http-api/middleware/auth"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/repository"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Principal is the authenticated caller.
type Principal struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// Claims is the JWT body.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// Authenticate resolves a bearer token to an existing, active user.
	Authenticate(ctx context.Context, token string) (*Principal, error)
	IssueToken(user *models.User) (string, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
}

type authService struct {
	store     repository.Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(store repository.Store, cfg *config.Config) AuthService {
	return &authService{
		store:     store,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.JWTExpiry,
	}
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*Principal, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, ErrUnauthorized
	}

	var user *models.User
	err = s.store.View(ctx, func(repo repository.Repository) error {
		u, err := repo.GetUser(ctx, claims.UserID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storeError(err)
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}

	// role comes from the row, a demoted admin keeps no powers from an old token
	return &Principal{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *authService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// Login checks a username/password pair and returns a fresh token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user *models.User
	err := s.store.View(ctx, func(repo repository.Repository) error {
		u, err := repo.FindUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", nil, storeError(err)
	}
	if user == nil {
		// same bcrypt cost on a miss so timing does not leak usernames
		auth.VerifyPassword("$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e", password)
		return "", nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.Password, password); err != nil || !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *authService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
