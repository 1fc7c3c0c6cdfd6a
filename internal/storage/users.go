package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/daon-labs/user-subscription-backend/internal/models"
)

const pgUniqueViolation = "23505"

// CreateUserWithAgreement inserts the user and its single agreement record
// in one transaction and returns the new user uid. A duplicate email maps
// to ErrEmailTaken.
func (s *Storage) CreateUserWithAgreement(ctx context.Context, user models.User, agreement models.Agreement) (string, error) {
	const op = "storage.CreateUserWithAgreement"

	tx, err := s.Db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var newUID string
	query := `INSERT INTO users (email, password_hash, name, phone, provider, img_url)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := tx.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.Name, user.Phone, user.Provider,
		user.ImgURL).Scan(&newUID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query = `INSERT INTO agreements (user_uid, terms_url, agreed_at, marketing)
			 VALUES ($1, $2, $3, $4);`
	if _, err := tx.Exec(ctx, query,
		newUID, agreement.TermsURL, agreement.AgreedAt, agreement.Marketing); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail returns the user with the given email or ErrUserNotFound.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT uid, email, password_hash, name, phone, provider, img_url, created_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	if err := s.Db.QueryRow(ctx, query, email).Scan(&u.UID, &u.Email, &u.PasswordHash,
		&u.Name, &u.Phone, &u.Provider, &u.ImgURL, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUID returns the user with the given uid or ErrUserNotFound.
func (s *Storage) GetUserByUID(ctx context.Context, useruid string) (*models.User, error) {
	const op = "storage.GetUserByUID"

	query := `SELECT uid, email, password_hash, name, phone, provider, img_url, created_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	if err := s.Db.QueryRow(ctx, query, useruid).Scan(&u.UID, &u.Email, &u.PasswordHash,
		&u.Name, &u.Phone, &u.Provider, &u.ImgURL, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// EmailExists reports whether a user with the email is already registered.
func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.EmailExists"

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	if err := s.Db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// LatestTerms returns the most recently published terms document.
func (s *Storage) LatestTerms(ctx context.Context) (*models.Terms, error) {
	const op = "storage.LatestTerms"

	terms := &models.Terms{}
	query := `SELECT id, created_at FROM terms ORDER BY created_at DESC LIMIT 1`
	if err := s.Db.QueryRow(ctx, query).Scan(&terms.ID, &terms.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoTerms)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return terms, nil
}
