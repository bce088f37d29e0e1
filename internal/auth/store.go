package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-fidelity/internal/models"
	"ms-fidelity/internal/utils"

	"github.com/uptrace/bun"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateProfile(ctx context.Context, profile *models.UserProfile) error
}

type BunUserStore struct {
	DB *bun.DB
}

func NewBunUserStore(db *bun.DB) *BunUserStore {
	return &BunUserStore{DB: db}
}

// EnsureSchema creates the user tables when they are missing.
func (s *BunUserStore) EnsureSchema(ctx context.Context) error {
	for _, m := range []interface{}{(*models.User)(nil), (*models.UserProfile)(nil)} {
		if _, err := s.DB.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}

func (s *BunUserStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.DB.NewInsert().Model(user).Exec(ctx)
	if utils.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *BunUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.DB.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *BunUserStore) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	_, err := s.DB.NewInsert().
		Model(profile).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	return err
}
