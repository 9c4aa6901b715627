// Package sqlite is the relational catalog: user accounts with the staff
// approval workflow, and question-paper metadata. It is independent of the
// vector index; catalog writes and index writes may succeed or fail
// independently.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"campusmind/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// ErrInvalidCredentials reports a failed username/password check.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrApprovalPending reports a staff login before admin approval.
var ErrApprovalPending = errors.New("approval pending by admin")

// ErrUsernameTaken reports a registration with an existing username.
var ErrUsernameTaken = errors.New("username exists")

// User is an account row from the users table.
type User struct {
	ID       int64
	Username string
	Role     domain.Role
	School   string
	Course   string
	Year     int
	Approved bool
}

// Store wraps the catalog database.
type Store struct {
	db *sql.DB
}

const createUsersSQL = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE,
    password TEXT,
    role TEXT,
    school TEXT DEFAULT 'SOET',
    course TEXT,
    year INTEGER,
    is_approved INTEGER DEFAULT 0
)`

const createPYQsSQL = `
CREATE TABLE IF NOT EXISTS pyqs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    subject_name TEXT,
    subject_code TEXT,
    year INTEGER,
    school TEXT,
    course TEXT,
    file_path TEXT
)`

// Open opens (or creates) the catalog at path and ensures the schema.
// Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	for _, stmt := range []string{createUsersSQL, createPYQsSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure catalog schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// EnsureAdmin creates the admin account if none exists. The password is only
// used on first creation.
func (s *Store) EnsureAdmin(ctx context.Context, username, password string) error {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = 'admin'`).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, role, is_approved) VALUES (?, ?, 'admin', 1)`,
		username, string(hash))
	return err
}

// Authenticate checks the credentials and returns the account. Unapproved
// staff accounts cannot log in.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var u User
	var hash string
	var approved int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password, role, COALESCE(school, ''), COALESCE(course, ''), COALESCE(year, 0), is_approved
		 FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &hash, &u.Role, &u.School, &u.Course, &u.Year, &approved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	u.Approved = approved == 1
	if u.Role != domain.RoleAdmin && !u.Approved {
		return nil, ErrApprovalPending
	}
	return &u, nil
}

// RegisterStudent creates an auto-approved student account.
func (s *Store) RegisterStudent(ctx context.Context, username, password string) error {
	return s.register(ctx,
		`INSERT INTO users (username, password, role, is_approved) VALUES (?, ?, 'student', 1)`,
		username, password)
}

// RegisterStaff creates a staff account pending admin approval.
func (s *Store) RegisterStaff(ctx context.Context, username, password, school string) error {
	if school == "" {
		school = "SOET"
	}
	return s.register(ctx,
		`INSERT INTO users (username, password, role, school, is_approved) VALUES (?, ?, 'staff', ?, 0)`,
		username, password, school)
}

func (s *Store) register(ctx context.Context, stmt, username, password string, extra ...any) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	args := append([]any{username, string(hash)}, extra...)
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// PendingStaff lists staff accounts awaiting approval.
func (s *Store) PendingStaff(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, COALESCE(school, '') FROM users WHERE role = 'staff' AND is_approved = 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []User
	for rows.Next() {
		u := User{Role: domain.RoleStaff}
		if err := rows.Scan(&u.ID, &u.Username, &u.School); err != nil {
			return nil, err
		}
		pending = append(pending, u)
	}
	return pending, rows.Err()
}

// Approve marks the account approved.
func (s *Store) Approve(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET is_approved = 1 WHERE id = ?`, userID)
	return err
}

// Analytics returns the student count and the approved staff count.
func (s *Store) Analytics(ctx context.Context) (students, staff int, err error) {
	if err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'student'`).Scan(&students); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'staff' AND is_approved = 1`).Scan(&staff); err != nil {
		return 0, 0, err
	}
	return students, staff, nil
}

// InsertPYQ records question-paper metadata. This write is independent of
// the vector index write for the same upload.
func (s *Store) InsertPYQ(ctx context.Context, entry domain.CatalogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pyqs (subject_name, subject_code, year, school, course, file_path) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Subject, entry.SubjectCode, entry.Year, entry.School, entry.Course, entry.FilePath)
	return err
}

// SearchPYQs matches question papers by subject name or code.
func (s *Store) SearchPYQs(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_name, subject_code, year, COALESCE(school, ''), COALESCE(course, ''), file_path
		 FROM pyqs WHERE subject_name LIKE ? OR subject_code LIKE ?`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		var e domain.CatalogEntry
		if err := rows.Scan(&e.Subject, &e.SubjectCode, &e.Year, &e.School, &e.Course, &e.FilePath); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
