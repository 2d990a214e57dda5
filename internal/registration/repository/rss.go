package repository

import (
	"context"
	"database/sql"
	"time"

	"matholymp/internal/common/db"
)

type RSSRepository interface {
	Create(ctx context.Context, tx db.Transaction, item *RSSItem) (int64, error)
	// List returns items newest first. A non-nil countryID keeps the items
	// of that country and those of no country.
	List(ctx context.Context, tx db.Transaction, countryID *int64) ([]*RSSItem, error)
}

type SQLRSSRepository struct {
	dbProvider db.Provider
	now        func() time.Time
}

func NewRSSRepository(provider db.Provider) RSSRepository {
	return &SQLRSSRepository{dbProvider: provider, now: time.Now}
}

func (r *SQLRSSRepository) Create(ctx context.Context, tx db.Transaction, item *RSSItem) (int64, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.now().UTC().Truncate(time.Second)
	}
	id, err := db.Insert(ctx, querier, "INSERT INTO rss (country_id, title, body, guid, created_at) VALUES (?, ?, ?, ?, ?)",
		nullID(item.CountryID), item.Title, item.Text, item.GUID, item.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	item.ID = id
	return id, nil
}

func (r *SQLRSSRepository) List(ctx context.Context, tx db.Transaction, countryID *int64) ([]*RSSItem, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	query := "SELECT id, country_id, title, body, guid, created_at FROM rss"
	var args []interface{}
	if countryID != nil {
		query += " WHERE country_id IS NULL OR country_id = ?"
		args = append(args, *countryID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*RSSItem
	for rows.Next() {
		var item RSSItem
		var country sql.NullInt64
		var created int64
		if err := rows.Scan(&item.ID, &country, &item.Title, &item.Text, &item.GUID, &created); err != nil {
			return nil, err
		}
		item.CountryID = idPtr(country)
		item.CreatedAt = unixTime(created)
		out = append(out, &item)
	}
	return out, rows.Err()
}
