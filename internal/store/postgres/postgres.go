// Package postgres persists the Repository in PostgreSQL so the current
// dataset and upload history survive restarts. Bundles are stored as a
// single JSONB document per snapshot; they are read and replaced wholesale,
// never queried field by field.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
	"github.com/honeylavenderwrites/retailytic/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS datasets (
			id                text PRIMARY KEY,
			file_name         text NOT NULL,
			sample            boolean NOT NULL,
			is_current        boolean NOT NULL DEFAULT false,
			row_count         integer NOT NULL,
			transaction_count integer NOT NULL,
			uploaded_at       timestamptz NOT NULL,
			bundle            jsonb NOT NULL
		);
		CREATE TABLE IF NOT EXISTS app_users (
			username   text PRIMARY KEY,
			password   text NOT NULL,
			role       text NOT NULL,
			active     boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL
		);
	`)
	return err
}

func (s *Store) ReplaceDataset(ctx context.Context, snap domain.DatasetSnapshot) error {
	bundleJSON, err := json.Marshal(snap.Bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE datasets SET is_current = false WHERE is_current`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO datasets (id, file_name, sample, is_current, row_count, transaction_count, uploaded_at, bundle)
		VALUES ($1, $2, $3, true, $4, $5, $6, $7)
	`, snap.ID, snap.FileName, snap.Sample, snap.Bundle.Summary.RowCount, snap.Bundle.Summary.TransactionCount, snap.UploadedAt, bundleJSON); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) CurrentDataset(ctx context.Context) (*domain.DatasetSnapshot, error) {
	var (
		snap      domain.DatasetSnapshot
		bundleRaw []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, sample, uploaded_at, bundle
		FROM datasets
		WHERE is_current
		ORDER BY uploaded_at DESC
		LIMIT 1
	`).Scan(&snap.ID, &snap.FileName, &snap.Sample, &snap.UploadedAt, &bundleRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNoDataset
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bundleRaw, &snap.Bundle); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	return &snap, nil
}

func (s *Store) ResetDataset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE datasets SET is_current = false WHERE is_current`)
	return err
}

func (s *Store) ListUploads(ctx context.Context, limit int) ([]domain.UploadRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, row_count, transaction_count, uploaded_at
		FROM datasets
		WHERE NOT sample
		ORDER BY uploaded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := make([]domain.UploadRecord, 0, limit)
	for rows.Next() {
		var u domain.UploadRecord
		if err := rows.Scan(&u.ID, &u.FileName, &u.RowCount, &u.TransactionCount, &u.UploadedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var u domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		WHERE username = $1
	`, username).Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO NOTHING
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
