// Package sqlite stores bills and users of the development bill service.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/billed-dev/billed/internal/model"
)

// ErrNotFound is returned when a bill or user does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed bill and user store.
type Store struct {
	db *sql.DB
}

// User is a stored account.
type User struct {
	Email        string
	Type         model.Role
	PasswordHash string
	CreatedAt    int64
}

// New opens the database at dbPath, creating parent directories and running migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: SQLite serializes writers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const billColumns = "id, email, type, name, amount, date, vat, pct, commentary, file_url, file_name, status, comment_admin"

// CreateBill inserts bill, assigning an ID and pending status when unset.
func (s *Store) CreateBill(ctx context.Context, bill *model.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.Status == "" {
		bill.Status = model.StatusPending
	}
	if bill.Pct == 0 {
		bill.Pct = model.DefaultPct
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bills ("+billColumns+", created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		bill.ID, bill.Email, string(bill.Type), bill.Name, bill.Amount, bill.Date, bill.VAT, bill.Pct,
		bill.Commentary, bill.FileURL, bill.FileName, string(bill.Status), bill.CommentAdmin, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("inserting bill: %w", err)
	}
	return nil
}

// GetBill retrieves a bill by ID.
func (s *Store) GetBill(ctx context.Context, id string) (*model.Bill, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", id)
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return bill, nil
}

// UpdateBill overwrites every mutable column. The owner email is never changed.
func (s *Store) UpdateBill(ctx context.Context, bill *model.Bill) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bills SET type = ?, name = ?, amount = ?, date = ?, vat = ?, pct = ?, commentary = ?,
			file_url = ?, file_name = ?, status = ?, comment_admin = ?
		WHERE id = ?`,
		string(bill.Type), bill.Name, bill.Amount, bill.Date, bill.VAT, bill.Pct, bill.Commentary,
		bill.FileURL, bill.FileName, string(bill.Status), bill.CommentAdmin, bill.ID,
	)
	if err != nil {
		return fmt.Errorf("updating bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating bill: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bill %s: %w", bill.ID, ErrNotFound)
	}
	return nil
}

// ListBills returns bills in insertion order. An empty email lists every bill.
func (s *Store) ListBills(ctx context.Context, email string) ([]model.Bill, error) {
	query := "SELECT " + billColumns + " FROM bills"
	var args []any
	if email != "" {
		query += " WHERE email = ?"
		args = append(args, email)
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	defer rows.Close()

	bills := []model.Bill{}
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bills: %w", err)
	}
	return bills, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(sc scanner) (*model.Bill, error) {
	var b model.Bill
	var typ, status string
	err := sc.Scan(&b.ID, &b.Email, &typ, &b.Name, &b.Amount, &b.Date, &b.VAT, &b.Pct,
		&b.Commentary, &b.FileURL, &b.FileName, &status, &b.CommentAdmin)
	if err != nil {
		return nil, err
	}
	b.Type = model.Category(typ)
	b.Status = model.Status(status)
	return &b, nil
}

// UpsertUser creates or replaces the account for u.Email.
func (s *Store) UpsertUser(ctx context.Context, u User) error {
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, type, password_hash, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET type = excluded.type, password_hash = excluded.password_hash`,
		u.Email, string(u.Type), u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// GetUser retrieves an account by email.
func (s *Store) GetUser(ctx context.Context, email string) (*User, error) {
	u := &User{}
	var typ string
	err := s.db.QueryRowContext(ctx,
		"SELECT email, type, password_hash, created_at FROM users WHERE email = ?", email,
	).Scan(&u.Email, &typ, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.Type = model.Role(typ)
	return u, nil
}
