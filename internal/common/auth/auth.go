// Package auth issues and verifies the access tokens of the registration
// API and carries the authenticated principal through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "matholymp/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles a registration user may hold.
const (
	RoleAdmin      = "Admin"
	RoleRegister   = "Register"
	RoleScore      = "Score"
	RoleUser       = "User"
	RoleOmnivident = "Omnivident"
)

// ValidRole reports whether name is one of the known user roles.
func ValidRole(name string) bool {
	switch name {
	case RoleAdmin, RoleRegister, RoleScore, RoleUser, RoleOmnivident:
		return true
	}
	return false
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    int64
	Username  string
	CountryID int64
	Roles     []string
}

// HasRole reports whether the principal holds role. Admin holds every role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) || strings.EqualFold(r, RoleAdmin) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds the Admin role.
func (p Principal) IsAdmin() bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, RoleAdmin) {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

const tokenTypeAccess = "access"

type tokenClaims struct {
	Username  string   `json:"usr"`
	CountryID int64    `json:"cty"`
	Roles     []string `json:"roles"`
	TokenType string   `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a manager; ttl defaults to 12 hours.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if issuer == "" {
		issuer = "matholymp"
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs an access token for p.
func (m *TokenManager) Issue(p Principal) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, pkgerrors.New(pkgerrors.TokenGenerationFailed).WithMessage("jwt secret not configured")
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := tokenClaims{
		Username:  p.Username,
		CountryID: p.CountryID,
		Roles:     p.Roles,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(fmt.Errorf("sign token failed: %w", err), pkgerrors.TokenGenerationFailed)
	}
	return signed, exp, nil
}

// Authenticate verifies raw and returns its principal.
func (m *TokenManager) Authenticate(ctx context.Context, raw string) (Principal, error) {
	if raw == "" || len(m.secret) == 0 {
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, pkgerrors.New(pkgerrors.TokenExpired)
		}
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if claims.Issuer != m.issuer || claims.TokenType != tokenTypeAccess {
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return Principal{
		UserID:    userID,
		Username:  claims.Username,
		CountryID: claims.CountryID,
		Roles:     claims.Roles,
	}, nil
}
