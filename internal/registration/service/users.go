package service

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/db"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile("(?i)^[a-z0-9!#$%&'*+/=?^_`{|}~-]+(?:\\.[a-z0-9!#$%&'*+/=?^_`{|}~-]+)*" +
	"@(localhost|(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9]))$")

const (
	generatedPasswordLength = 12
	passwordAlphabet        = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// UserInput holds the editable fields of a user.
type UserInput struct {
	Username  string
	Password  string
	Email     string
	CountryID int64
	Roles     []string
}

// UserView is a user without the password hash.
type UserView struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	CountryID int64    `json:"country_id"`
	Roles     []string `json:"roles"`
}

func userView(u *repository.User) *UserView {
	return &UserView{ID: u.ID, Username: u.Username, Email: u.Email, CountryID: u.CountryID, Roles: u.Roles}
}

// generatePassword returns a random password of unambiguous characters.
func generatePassword() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < generatedPasswordLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", pkgerrors.Wrap(fmt.Errorf("hash password failed: %w", err), pkgerrors.InternalServerError)
	}
	return string(hash), nil
}

func (s *Service) auditUser(ctx context.Context, tx db.Transaction, id int64, in *UserInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return pkgerrors.Validationf(pkgerrors.InvalidUsername, "username", "Username must be specified")
	}
	if in.Email != "" {
		if !emailPattern.MatchString(in.Email) {
			return pkgerrors.Validationf(pkgerrors.InvalidEmail, "email", "Email address syntax is invalid")
		}
		exists, err := s.repos.Users.ExistsByEmail(ctx, tx, in.Email, id)
		if err != nil {
			return dbError("check email", err)
		}
		if exists {
			return pkgerrors.Validationf(pkgerrors.EmailAlreadyExists, "email", "Email address %s already in use", in.Email)
		}
	}
	for _, role := range in.Roles {
		if !auth.ValidRole(role) {
			return pkgerrors.Validationf(pkgerrors.InvalidRole, "roles", "Invalid role")
		}
	}
	if in.CountryID == 0 {
		return pkgerrors.Validationf(pkgerrors.UserCountryRequired, "country", "Users must be associated with a country")
	}
	if _, err := s.repos.Countries.GetByID(ctx, tx, in.CountryID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return pkgerrors.Validationf(pkgerrors.UserCountryRequired, "country", "Users must be associated with a country")
		}
		return dbError("get country", err)
	}
	return nil
}

// CreateUser adds a user. An empty password is replaced by a generated
// one, which is returned.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*UserView, string, error) {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, "", err
	}
	password := in.Password
	if password == "" {
		var err error
		if password, err = generatePassword(); err != nil {
			return nil, "", pkgerrors.Wrap(err, pkgerrors.InternalServerError)
		}
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", err
	}
	u := &repository.User{Username: in.Username, PasswordHash: hash, Email: in.Email, CountryID: in.CountryID, Roles: in.Roles}
	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		if err := s.auditUser(ctx, tx, 0, &in); err != nil {
			return err
		}
		_, err := s.repos.Users.Create(ctx, tx, u)
		return mapUserCreateError(err)
	})
	if err != nil {
		return nil, "", err
	}
	return userView(u), password, nil
}

// UpdateUser changes a user. Users other than admins may only change
// their own email address and password.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UserInput) (*UserView, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && p.UserID != id {
		return nil, pkgerrors.New(pkgerrors.PermissionDenied)
	}
	var out *repository.User
	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		u, err := s.repos.Users.GetByID(ctx, tx, id)
		if err != nil || u.Retired {
			if err == nil || stderrors.Is(err, repository.ErrNotFound) {
				return pkgerrors.New(pkgerrors.UserNotFound)
			}
			return dbError("get user", err)
		}
		if !p.IsAdmin() {
			in.Username, in.CountryID, in.Roles = u.Username, u.CountryID, u.Roles
		}
		if err := s.auditUser(ctx, tx, id, &in); err != nil {
			return err
		}
		u.Username, u.Email, u.CountryID, u.Roles = in.Username, in.Email, in.CountryID, in.Roles
		if err := s.repos.Users.Update(ctx, tx, u); err != nil {
			return mapUserCreateError(err)
		}
		if in.Password != "" {
			hash, err := hashPassword(in.Password)
			if err != nil {
				return err
			}
			if err := s.repos.Users.UpdatePassword(ctx, tx, id, hash); err != nil {
				return dbError("update password", err)
			}
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return userView(out), nil
}

func (s *Service) RetireUser(ctx context.Context, id int64) error {
	p, err := requireRole(ctx, auth.RoleAdmin)
	if err != nil {
		return err
	}
	if p.UserID == id {
		return pkgerrors.New(pkgerrors.Forbidden).WithMessage("You may not retire yourself")
	}
	if err := s.repos.Users.Retire(ctx, nil, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return pkgerrors.New(pkgerrors.UserNotFound)
		}
		return dbError("retire user", err)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*UserView, error) {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.repos.Users.List(ctx, nil)
	if err != nil {
		return nil, dbError("list users", err)
	}
	out := make([]*UserView, len(users))
	for i, u := range users {
		out[i] = userView(u)
	}
	return out, nil
}

func mapUserCreateError(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, repository.ErrUsernameTaken) {
		return pkgerrors.New(pkgerrors.UsernameAlreadyExists)
	}
	return dbError("save user", err)
}
