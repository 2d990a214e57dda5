package repository

import (
	"context"
	"time"

	"matholymp/internal/common/db"
)

type FileRepository interface {
	Create(ctx context.Context, tx db.Transaction, f *File) (int64, error)
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*File, error)
}

type SQLFileRepository struct {
	dbProvider db.Provider
	now        func() time.Time
}

func NewFileRepository(provider db.Provider) FileRepository {
	return &SQLFileRepository{dbProvider: provider, now: time.Now}
}

func (r *SQLFileRepository) Create(ctx context.Context, tx db.Transaction, f *File) (int64, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	f.CreatedAt = r.now().UTC().Truncate(time.Second)
	id, err := db.Insert(ctx, querier, "INSERT INTO files (name, content_type, object_key, size, created_at) VALUES (?, ?, ?, ?, ?)",
		f.Name, f.ContentType, f.ObjectKey, f.Size, f.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	f.ID = id
	return id, nil
}

func (r *SQLFileRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*File, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	var f File
	var created int64
	row := querier.QueryRow(ctx, "SELECT id, name, content_type, object_key, size, created_at FROM files WHERE id = ?", id)
	if err := row.Scan(&f.ID, &f.Name, &f.ContentType, &f.ObjectKey, &f.Size, &created); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	f.CreatedAt = unixTime(created)
	return &f, nil
}
