package repository

import (
	"context"
	"database/sql"

	"matholymp/internal/common/db"
)

const eventRowID = 1

type EventRepository interface {
	Init(ctx context.Context, tx db.Transaction) error
	Get(ctx context.Context, tx db.Transaction) (*Event, error)
	SetRegistrationEnabled(ctx context.Context, tx db.Transaction, enabled bool) error
	SetBoundaries(ctx context.Context, tx db.Transaction, gold, silver, bronze int) error
}

type SQLEventRepository struct {
	dbProvider db.Provider
}

func NewEventRepository(provider db.Provider) EventRepository {
	return &SQLEventRepository{dbProvider: provider}
}

// Init inserts the event row with registration enabled.
func (r *SQLEventRepository) Init(ctx context.Context, tx db.Transaction) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	_, err = querier.Exec(ctx, "INSERT INTO event (id, registration_enabled) VALUES (?, ?)", eventRowID, 1)
	if _, ok := db.UniqueViolation(err); ok {
		return ErrDuplicate
	}
	return err
}

func (r *SQLEventRepository) Get(ctx context.Context, tx db.Transaction) (*Event, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	var enabled int
	var gold, silver, bronze sql.NullInt64
	row := querier.QueryRow(ctx, "SELECT registration_enabled, gold, silver, bronze FROM event WHERE id = ?", eventRowID)
	if err := row.Scan(&enabled, &gold, &silver, &bronze); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Event{
		RegistrationEnabled: enabled != 0,
		GoldBoundary:        intPtr(gold),
		SilverBoundary:      intPtr(silver),
		BronzeBoundary:      intPtr(bronze),
	}, nil
}

func (r *SQLEventRepository) SetRegistrationEnabled(ctx context.Context, tx db.Transaction, enabled bool) error {
	return r.exec(ctx, tx, "UPDATE event SET registration_enabled = ? WHERE id = ?", boolInt(enabled), eventRowID)
}

func (r *SQLEventRepository) SetBoundaries(ctx context.Context, tx db.Transaction, gold, silver, bronze int) error {
	return r.exec(ctx, tx, "UPDATE event SET gold = ?, silver = ?, bronze = ? WHERE id = ?", gold, silver, bronze, eventRowID)
}

func (r *SQLEventRepository) exec(ctx context.Context, tx db.Transaction, query string, args ...interface{}) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	_, err = querier.Exec(ctx, query, args...)
	return err
}
