package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"matholymp/internal/common/db"
)

type CountryRepository interface {
	Create(ctx context.Context, tx db.Transaction, c *Country) (int64, error)
	Update(ctx context.Context, tx db.Transaction, c *Country) error
	Retire(ctx context.Context, tx db.Transaction, id int64) error
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*Country, error)
	GetByCode(ctx context.Context, tx db.Transaction, code string) (*Country, error)
	// List returns the countries that are not retired, ordered by id.
	List(ctx context.Context, tx db.Transaction) ([]*Country, error)
}

type SQLCountryRepository struct {
	dbProvider db.Provider
}

func NewCountryRepository(provider db.Provider) CountryRepository {
	return &SQLCountryRepository{dbProvider: provider}
}

const countryColumns = "id, code, name, official, generic_url, flag_file_id, contact_emails, retired"

func (r *SQLCountryRepository) Create(ctx context.Context, tx db.Transaction, c *Country) (int64, error) {
	if c == nil {
		return 0, errors.New("country is nil")
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	query := "INSERT INTO countries (code, active_code, name, official, generic_url, flag_file_id, contact_emails, retired) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	id, err := db.Insert(ctx, querier, query, c.Code, c.Code, c.Name, nullBool(c.Official), c.GenericURL,
		nullID(c.FlagFileID), joinList(c.ContactEmails), 0)
	if err != nil {
		return 0, mapCountryError(err)
	}
	c.ID = id
	return id, nil
}

func (r *SQLCountryRepository) Update(ctx context.Context, tx db.Transaction, c *Country) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	query := "UPDATE countries SET code = ?, active_code = ?, name = ?, official = ?, generic_url = ?, flag_file_id = ?, contact_emails = ? WHERE id = ? AND retired = 0"
	_, err = querier.Exec(ctx, query, c.Code, c.Code, c.Name, nullBool(c.Official), c.GenericURL,
		nullID(c.FlagFileID), joinList(c.ContactEmails), c.ID)
	return mapCountryError(err)
}

// Retire marks the country retired and frees its code for reuse.
func (r *SQLCountryRepository) Retire(ctx context.Context, tx db.Transaction, id int64) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	result, err := querier.Exec(ctx, "UPDATE countries SET retired = 1, active_code = NULL WHERE id = ? AND retired = 0", id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *SQLCountryRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*Country, error) {
	return r.getOne(ctx, tx, "SELECT "+countryColumns+" FROM countries WHERE id = ?", id)
}

func (r *SQLCountryRepository) GetByCode(ctx context.Context, tx db.Transaction, code string) (*Country, error) {
	return r.getOne(ctx, tx, "SELECT "+countryColumns+" FROM countries WHERE active_code = ?", code)
}

func (r *SQLCountryRepository) List(ctx context.Context, tx db.Transaction) ([]*Country, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, "SELECT "+countryColumns+" FROM countries WHERE retired = 0 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLCountryRepository) getOne(ctx context.Context, tx db.Transaction, query string, args ...interface{}) (*Country, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	c, err := scanCountry(querier.QueryRow(ctx, query, args...))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCountry(row db.Row) (*Country, error) {
	var (
		c        Country
		official sql.NullInt64
		flag     sql.NullInt64
		emails   string
		retired  int
	)
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &official, &c.GenericURL, &flag, &emails, &retired); err != nil {
		return nil, err
	}
	list, err := splitList(emails)
	if err != nil {
		return nil, err
	}
	c.Official = boolPtr(official)
	c.FlagFileID = idPtr(flag)
	c.ContactEmails = list
	c.Retired = retired != 0
	return &c, nil
}

func mapCountryError(err error) error {
	if err == nil {
		return nil
	}
	if key, ok := db.UniqueViolation(err); ok {
		if strings.Contains(strings.ToLower(key), "code") {
			return ErrCodeExists
		}
		return ErrDuplicate
	}
	return err
}

func requireAffected(result db.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
