package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/observer/parley/internal/domain"
)

// ProfileRepository handles participant display identities.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the profile for the given participant.
func (r *ProfileRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT id, full_name, COALESCE(avatar_url, ''), created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p domain.Profile
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.FullName, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Upsert creates or refreshes a profile's display fields.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, full_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
	`

	if _, err := r.db.Pool.Exec(ctx, query, p.ID, p.FullName, p.AvatarURL); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
