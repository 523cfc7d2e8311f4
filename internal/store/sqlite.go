package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"timecapsule/internal/capsule"
	"timecapsule/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore persists envelopes as rows in a sqlite database, one row per
// record. Minted identifiers and explicit locations share the same keyspace.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	idgen  capsule.IDGenerator
	logger capsule.Logger
}

var _ capsule.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and on first use creates) the database at the given
// path and migrates it to the latest schema. path can be ":memory:" for an
// in-memory database. The caller must call Close when done.
func NewSQLiteStore(path string, idgen capsule.IDGenerator, logger capsule.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires db_path to be set")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteStore{db: db, path: path, idgen: idgen, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(env *capsule.Envelope) (capsule.ID, error) {
	id, err := capsule.ParseID(s.idgen.New())
	if err != nil {
		return "", fmt.Errorf("minting identifier: %w", err)
	}
	// Plain INSERT: the primary key constraint rejects a colliding identifier
	// instead of silently overwriting it.
	if err := s.insert(id.String(), env, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) SaveTo(env *capsule.Envelope, location string) error {
	if location == "" {
		return fmt.Errorf("empty location")
	}
	return s.insert(location, env, true)
}

func (s *SQLiteStore) Load(id capsule.ID) (*capsule.Envelope, error) {
	return s.load(id.String())
}

func (s *SQLiteStore) LoadFrom(location string) (*capsule.Envelope, error) {
	return s.load(location)
}

// List returns all stored records. A row that fails to scan is skipped with
// a warning rather than failing the enumeration.
func (s *SQLiteStore) List() (map[capsule.ID]*capsule.Envelope, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, encrypted_content, nonce, salt, password_hash, unlock_date, label, created_at
		 FROM capsules`)
	if err != nil {
		return nil, fmt.Errorf("listing capsules: %w", err)
	}
	defer rows.Close()

	out := make(map[capsule.ID]*capsule.Envelope)
	for rows.Next() {
		var rawID string
		env, err := scanEnvelope(rows, &rawID)
		if err != nil {
			s.logger.Warn("skipping unreadable capsule row", "error", err)
			continue
		}
		id, err := capsule.ParseID(rawID)
		if err != nil {
			s.logger.Warn("skipping capsule row with invalid identifier", "id", rawID, "error", err)
			continue
		}
		out[id] = env
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating capsules: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) insert(key string, env *capsule.Envelope, replace bool) error {
	stmt := `INSERT INTO capsules
		(id, encrypted_content, nonce, salt, password_hash, unlock_date, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if replace {
		stmt = `INSERT OR REPLACE INTO capsules
		(id, encrypted_content, nonce, salt, password_hash, unlock_date, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	}

	label := sql.NullString{String: env.Label, Valid: env.Label != ""}
	_, err := s.db.ExecContext(context.Background(), stmt,
		key, env.EncryptedContent, env.Nonce, env.Salt, env.PasswordHash,
		env.UnlockDate.UTC(), label, env.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storing capsule %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) load(key string) (*capsule.Envelope, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT id, encrypted_content, nonce, salt, password_hash, unlock_date, label, created_at
		 FROM capsules WHERE id = ?`, key)

	var rawID string
	env, err := scanEnvelope(row, &rawID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", key, capsule.ErrNotFound)
		}
		return nil, fmt.Errorf("loading capsule %s: %w", key, err)
	}
	return env, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnvelope(row rowScanner, rawID *string) (*capsule.Envelope, error) {
	var env capsule.Envelope
	var label sql.NullString
	if err := row.Scan(rawID, &env.EncryptedContent, &env.Nonce, &env.Salt,
		&env.PasswordHash, &env.UnlockDate, &label, &env.CreatedAt); err != nil {
		return nil, err
	}
	env.Label = label.String
	env.UnlockDate = env.UnlockDate.UTC()
	env.CreatedAt = env.CreatedAt.UTC()
	return &env, nil
}
