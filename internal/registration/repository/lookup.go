package repository

import (
	"context"
	"fmt"

	"matholymp/internal/common/db"
)

// LookupRepository manages roles and the simple name tables (genders,
// T-shirt sizes, languages and arrival points).
type LookupRepository interface {
	CreateRole(ctx context.Context, tx db.Transaction, role *Role) (int64, error)
	ListRoles(ctx context.Context, tx db.Transaction) ([]*Role, error)
	GetRole(ctx context.Context, tx db.Transaction, name string) (*Role, error)
	AddName(ctx context.Context, tx db.Transaction, kind LookupKind, name string, order int) (int64, error)
	// ListNames returns the names of kind in display order.
	ListNames(ctx context.Context, tx db.Transaction, kind LookupKind) ([]string, error)
}

type SQLLookupRepository struct {
	dbProvider db.Provider
}

func NewLookupRepository(provider db.Provider) LookupRepository {
	return &SQLLookupRepository{dbProvider: provider}
}

func validKind(kind LookupKind) error {
	switch kind {
	case LookupGenders, LookupTShirts, LookupLanguages, LookupArrivals:
		return nil
	}
	return fmt.Errorf("unknown lookup table %q", kind)
}

func (r *SQLLookupRepository) CreateRole(ctx context.Context, tx db.Transaction, role *Role) (int64, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	id, err := db.Insert(ctx, querier, "INSERT INTO roles (name, is_admin, secondary_ok) VALUES (?, ?, ?)",
		role.Name, boolInt(role.IsAdmin), boolInt(role.SecondaryOK))
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	role.ID = id
	return id, nil
}

func (r *SQLLookupRepository) ListRoles(ctx context.Context, tx db.Transaction) ([]*Role, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, "SELECT id, name, is_admin, secondary_ok FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *SQLLookupRepository) GetRole(ctx context.Context, tx db.Transaction, name string) (*Role, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	role, err := scanRole(querier.QueryRow(ctx, "SELECT id, name, is_admin, secondary_ok FROM roles WHERE name = ?", name))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

func scanRole(row db.Row) (*Role, error) {
	var role Role
	var admin, secondary int
	if err := row.Scan(&role.ID, &role.Name, &admin, &secondary); err != nil {
		return nil, err
	}
	role.IsAdmin = admin != 0
	role.SecondaryOK = secondary != 0
	return &role, nil
}

func (r *SQLLookupRepository) AddName(ctx context.Context, tx db.Transaction, kind LookupKind, name string, order int) (int64, error) {
	if err := validKind(kind); err != nil {
		return 0, err
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	id, err := db.Insert(ctx, querier, "INSERT INTO "+string(kind)+" (name, sort_order) VALUES (?, ?)", name, order)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *SQLLookupRepository) ListNames(ctx context.Context, tx db.Transaction, kind LookupKind) ([]string, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, "SELECT name FROM "+string(kind)+" ORDER BY sort_order, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
