package store

import (
	"context"

	"walletapi/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, username, passwordHash string) error {
	query := `
		INSERT INTO users (id, username, password_hash)
		VALUES ($1, $2, $3)
	`
	_, err := tx.ExecContext(ctx, query, id, username, passwordHash)
	return err
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

// LookupByUsername is the in-transaction variant used while a transfer is
// being applied.
func (s *UserStore) LookupByUsername(ctx context.Context, tx Getter, username string) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}
