package repository

import (
	"context"
	"errors"
	"strings"

	"matholymp/internal/common/db"
)

type UserRepository interface {
	Create(ctx context.Context, tx db.Transaction, u *User) (int64, error)
	Update(ctx context.Context, tx db.Transaction, u *User) error
	UpdatePassword(ctx context.Context, tx db.Transaction, id int64, hash string) error
	Retire(ctx context.Context, tx db.Transaction, id int64) error
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error)
	GetByUsername(ctx context.Context, tx db.Transaction, username string) (*User, error)
	// ExistsByEmail reports whether an active user other than exceptID
	// uses email, compared case-insensitively.
	ExistsByEmail(ctx context.Context, tx db.Transaction, email string, exceptID int64) (bool, error)
	List(ctx context.Context, tx db.Transaction) ([]*User, error)
	ListByCountry(ctx context.Context, tx db.Transaction, countryID int64) ([]*User, error)
}

type SQLUserRepository struct {
	dbProvider db.Provider
}

func NewUserRepository(provider db.Provider) UserRepository {
	return &SQLUserRepository{dbProvider: provider}
}

const userColumns = "id, username, password_hash, email, country_id, roles, retired"

func (r *SQLUserRepository) Create(ctx context.Context, tx db.Transaction, u *User) (int64, error) {
	if u == nil {
		return 0, errors.New("user is nil")
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	query := "INSERT INTO users (username, active_username, password_hash, email, country_id, roles, retired) VALUES (?, ?, ?, ?, ?, ?, ?)"
	id, err := db.Insert(ctx, querier, query, u.Username, u.Username, u.PasswordHash, u.Email, u.CountryID,
		joinList(u.Roles), 0)
	if err != nil {
		return 0, mapUserError(err)
	}
	u.ID = id
	return id, nil
}

func (r *SQLUserRepository) Update(ctx context.Context, tx db.Transaction, u *User) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	query := "UPDATE users SET username = ?, active_username = ?, email = ?, country_id = ?, roles = ? WHERE id = ? AND retired = 0"
	_, err = querier.Exec(ctx, query, u.Username, u.Username, u.Email, u.CountryID, joinList(u.Roles), u.ID)
	if err != nil {
		return mapUserError(err)
	}
	return nil
}

func (r *SQLUserRepository) UpdatePassword(ctx context.Context, tx db.Transaction, id int64, hash string) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	_, err = querier.Exec(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	return err
}

func (r *SQLUserRepository) Retire(ctx context.Context, tx db.Transaction, id int64) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	result, err := querier.Exec(ctx, "UPDATE users SET retired = 1, active_username = NULL WHERE id = ? AND retired = 0", id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *SQLUserRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error) {
	return r.getOne(ctx, tx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (r *SQLUserRepository) GetByUsername(ctx context.Context, tx db.Transaction, username string) (*User, error) {
	return r.getOne(ctx, tx, "SELECT "+userColumns+" FROM users WHERE active_username = ?", username)
}

func (r *SQLUserRepository) ExistsByEmail(ctx context.Context, tx db.Transaction, email string, exceptID int64) (bool, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return false, err
	}
	var one int
	row := querier.QueryRow(ctx, "SELECT 1 FROM users WHERE LOWER(email) = ? AND retired = 0 AND id <> ?",
		strings.ToLower(email), exceptID)
	if err := row.Scan(&one); err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SQLUserRepository) List(ctx context.Context, tx db.Transaction) ([]*User, error) {
	return r.list(ctx, tx, "SELECT "+userColumns+" FROM users WHERE retired = 0 ORDER BY id")
}

func (r *SQLUserRepository) ListByCountry(ctx context.Context, tx db.Transaction, countryID int64) ([]*User, error) {
	return r.list(ctx, tx, "SELECT "+userColumns+" FROM users WHERE retired = 0 AND country_id = ? ORDER BY id", countryID)
}

func (r *SQLUserRepository) getOne(ctx context.Context, tx db.Transaction, query string, args ...interface{}) (*User, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(querier.QueryRow(ctx, query, args...))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *SQLUserRepository) list(ctx context.Context, tx db.Transaction, query string, args ...interface{}) ([]*User, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row db.Row) (*User, error) {
	var u User
	var roles string
	var retired int
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.CountryID, &roles, &retired); err != nil {
		return nil, err
	}
	list, err := splitList(roles)
	if err != nil {
		return nil, err
	}
	u.Roles = list
	u.Retired = retired != 0
	return &u, nil
}

func mapUserError(err error) error {
	if key, ok := db.UniqueViolation(err); ok {
		if strings.Contains(strings.ToLower(key), "username") {
			return ErrUsernameTaken
		}
		return ErrDuplicate
	}
	return err
}
