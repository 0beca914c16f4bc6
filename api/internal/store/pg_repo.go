package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// Schema is applied by Migrate; statements are idempotent.
const Schema = `
create table if not exists chat_lens (
  chat_id    bigint primary key,
  lens       text not null,
  last_input text,
  updated_at timestamptz not null default now()
);
create table if not exists chat_results (
  chat_id     bigint not null,
  lens        text not null,
  input_text  text not null,
  transformed text not null,
  created_at  timestamptz not null default now(),
  primary key (chat_id, lens)
);`

// PGRepo stores chat state in Postgres.
type PGRepo struct{ DB *sql.DB }

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{DB: db} }

// OpenPG opens a pooled connection through the pgx stdlib driver and checks it.
func OpenPG(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

func (r *PGRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

func (r *PGRepo) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

func (r *PGRepo) SelectedLens(ctx context.Context, chatID int64) (string, error) {
	const q = `select lens from chat_lens where chat_id=$1`
	var lens string
	if err := r.DB.QueryRowContext(ctx, q, chatID).Scan(&lens); err != nil {
		return "", err
	}
	if lens == "" {
		return "", ErrNotFound
	}
	return lens, nil
}

func (r *PGRepo) SetSelectedLens(ctx context.Context, chatID int64, lensID string) error {
	const q = `
insert into chat_lens(chat_id, lens) values ($1,$2)
on conflict (chat_id)
do update set lens=excluded.lens, updated_at=now()`
	_, err := r.DB.ExecContext(ctx, q, chatID, lensID)
	return err
}

func (r *PGRepo) LastInput(ctx context.Context, chatID int64) (string, error) {
	const q = `select coalesce(last_input,'') from chat_lens where chat_id=$1`
	var s string
	if err := r.DB.QueryRowContext(ctx, q, chatID).Scan(&s); err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrNotFound
	}
	return s, nil
}

// SetLastInput also creates the chat row; the lens defaults to empty until chosen.
func (r *PGRepo) SetLastInput(ctx context.Context, chatID int64, text string) error {
	const q = `
insert into chat_lens(chat_id, lens, last_input) values ($1,'',$2)
on conflict (chat_id)
do update set last_input=excluded.last_input, updated_at=now()`
	_, err := r.DB.ExecContext(ctx, q, chatID, text)
	return err
}

func (r *PGRepo) SaveResult(ctx context.Context, chatID int64, lr LastResult) error {
	const q = `
insert into chat_results(chat_id, lens, input_text, transformed)
values ($1,$2,$3,$4)
on conflict (chat_id, lens)
do update set input_text=excluded.input_text, transformed=excluded.transformed, created_at=now()`
	_, err := r.DB.ExecContext(ctx, q, chatID, lr.Lens, lr.Input, lr.Transformed)
	return err
}

func (r *PGRepo) LastResult(ctx context.Context, chatID int64, lensID string) (LastResult, error) {
	const q = `
select lens, input_text, transformed, created_at
from chat_results
where chat_id=$1 and lens=$2`
	var lr LastResult
	if err := r.DB.QueryRowContext(ctx, q, chatID, lensID).
		Scan(&lr.Lens, &lr.Input, &lr.Transformed, &lr.CreatedAt); err != nil {
		return LastResult{}, err
	}
	return lr, nil
}
