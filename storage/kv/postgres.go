package kv

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/storage/database"
)

type postgres struct {
	db *sqlx.DB
}

// NewPostgres returns a Store backed by the kv_store table, migrating the database first.
func NewPostgres(dsn string) (Store, error) {
	db, err := database.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &postgres{db: db}, nil
}

// NewPostgresFromDB wraps an open, migrated database.
func NewPostgresFromDB(db *sqlx.DB) Store {
	return &postgres{db: db}
}

func (p *postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.db.GetContext(ctx, &data, `SELECT value FROM kv_store WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return data, nil
}

func (p *postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value),
	)
	return errors.Wrapf(err, "writing %s", key)
}

func (p *postgres) Close() error {
	return p.db.Close()
}
