package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// ErrNotFound is returned when an applicant id does not exist.
var ErrNotFound = errors.New("applicant not found")

type DB struct {
	connection *sql.DB
}

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &DB{connection: db}, nil
}

// NewDBFromConn wraps an existing connection. Used by tests.
func NewDBFromConn(conn *sql.DB) *DB {
	return &DB{connection: conn}
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		log.Println("Error closing the database connection:", err)
	}
}

// InitSchema creates the applicants table if it is missing, so a fresh
// database works without a separate migration step.
func (db *DB) InitSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS applicants (
        id SERIAL PRIMARY KEY,
        email VARCHAR(64) UNIQUE NOT NULL,
        name VARCHAR(128) NOT NULL,
        attributes JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`
	if _, err := db.connection.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// CreateApplicant inserts a new applicant and returns its generated id.
func (db *DB) CreateApplicant(ctx context.Context, name, email string, attrs Attributes) (int64, error) {
	blob, err := json.Marshal(attrs)
	if err != nil {
		return 0, fmt.Errorf("marshal attributes: %w", err)
	}
	var id int64
	query := `INSERT INTO applicants (email, name, attributes) VALUES ($1, $2, $3) RETURNING id`
	if err := db.connection.QueryRowContext(ctx, query, email, name, blob).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert applicant: %w", err)
	}
	return id, nil
}

// GetApplicant fetches a single applicant by id.
func (db *DB) GetApplicant(ctx context.Context, id int64) (*Applicant, error) {
	query := `SELECT id, email, name, attributes FROM applicants WHERE id = $1`
	return scanApplicant(db.connection.QueryRowContext(ctx, query, id))
}

// GetApplicantByEmail fetches a single applicant by its lowercased email.
func (db *DB) GetApplicantByEmail(ctx context.Context, email string) (*Applicant, error) {
	query := `SELECT id, email, name, attributes FROM applicants WHERE email = $1`
	return scanApplicant(db.connection.QueryRowContext(ctx, query, email))
}

// ExistsByEmail reports whether an applicant with the given email is already
// stored. The poller uses it for duplicate detection.
func (db *DB) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM applicants WHERE email = $1)`
	if err := db.connection.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}

// ListApplicants returns all applicants ordered by id.
func (db *DB) ListApplicants(ctx context.Context) ([]*Applicant, error) {
	query := `SELECT id, email, name, attributes FROM applicants ORDER BY id`
	rows, err := db.connection.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	defer rows.Close()

	var applicants []*Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, err
		}
		applicants = append(applicants, a)
	}
	return applicants, rows.Err()
}

// UpdateAttributes replaces the whole attributes blob. Handlers performing a
// read-modify-write against the same applicant race at this granularity;
// last write wins.
func (db *DB) UpdateAttributes(ctx context.Context, id int64, attrs Attributes) error {
	blob, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	query := `UPDATE applicants SET attributes = $2 WHERE id = $1`
	res, err := db.connection.ExecContext(ctx, query, id, blob)
	if err != nil {
		return fmt.Errorf("update attributes: %w", err)
	}
	return checkUpdated(res)
}

// UpdateName replaces an applicant's display name.
func (db *DB) UpdateName(ctx context.Context, id int64, name string) error {
	query := `UPDATE applicants SET name = $2 WHERE id = $1`
	res, err := db.connection.ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	return checkUpdated(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplicant(row rowScanner) (*Applicant, error) {
	var (
		a    Applicant
		blob []byte
	)
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan applicant: %w", err)
	}
	if err := json.Unmarshal(blob, &a.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	if a.Attributes.Ratings == nil {
		a.Attributes.Ratings = []Rating{}
	}
	return &a, nil
}

func checkUpdated(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
