package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/cache"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultLoginFailTTL   = 15 * time.Minute
	defaultLoginFailLimit = 5
)

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	LoginFailTTL   time.Duration
	LoginFailLimit int
}

// AuthService logs users in and issues access tokens.
type AuthService struct {
	users          repository.UserRepository
	tokens         *auth.TokenManager
	loginFailCache cache.BasicOps
	config         AuthServiceConfig
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, loginFailCache cache.BasicOps, cfg AuthServiceConfig) *AuthService {
	if cfg.LoginFailTTL == 0 {
		cfg.LoginFailTTL = defaultLoginFailTTL
	}
	if cfg.LoginFailLimit == 0 {
		cfg.LoginFailLimit = defaultLoginFailLimit
	}
	return &AuthService{users: users, tokens: tokens, loginFailCache: loginFailCache, config: cfg}
}

// LoginInput represents input for user login.
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// LoginResult carries the issued token and the user it belongs to.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Principal   auth.Principal
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	if err := s.checkLoginLimit(ctx, input.Username, input.IP); err != nil {
		return LoginResult{}, err
	}
	user, err := s.users.GetByUsername(ctx, nil, input.Username)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			s.recordLoginFailure(ctx, input.Username, input.IP)
			return LoginResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
		}
		return LoginResult{}, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordLoginFailure(ctx, input.Username, input.IP)
		return LoginResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
	}
	s.clearLoginFailure(ctx, input.Username, input.IP)

	p := auth.Principal{UserID: user.ID, Username: user.Username, CountryID: user.CountryID, Roles: user.Roles}
	token, exp, err := s.tokens.Issue(p)
	if err != nil {
		return LoginResult{}, pkgerrors.Wrap(err, pkgerrors.TokenGenerationFailed)
	}
	return LoginResult{AccessToken: token, ExpiresAt: exp, Principal: p}, nil
}

// Authenticate validates an access token and confirms its user still
// exists, picking up role and country changes made since it was issued.
func (s *AuthService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	p, err := s.tokens.Authenticate(ctx, token)
	if err != nil {
		return auth.Principal{}, err
	}
	user, err := s.users.GetByID(ctx, nil, p.UserID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return auth.Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
		}
		return auth.Principal{}, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}
	if user.Retired {
		return auth.Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return auth.Principal{UserID: user.ID, Username: user.Username, CountryID: user.CountryID, Roles: user.Roles}, nil
}
