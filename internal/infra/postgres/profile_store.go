package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizrush/internal/domain"
)

// ProfileStore persists the single leader profile row. The table is
// constrained to id = 1 so there is never more than one profile.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) GetProfile(ctx context.Context) (domain.LeaderProfile, error) {
	var p domain.LeaderProfile
	err := s.pool.QueryRow(ctx, `
		SELECT name, position, achievements, manifesto, personality,
			slogan, campaign_color, updated_at
		FROM leader_profile WHERE id = 1`).Scan(
		&p.Name, &p.Position, &p.Achievements, &p.Manifesto, &p.Personality,
		&p.Slogan, &p.CampaignColor, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Not configured yet, serve defaults rather than an error.
		return domain.LeaderProfile{CampaignColor: domain.DefaultCampaignColor}, nil
	}
	if err != nil {
		return domain.LeaderProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) SaveProfile(ctx context.Context, p domain.LeaderProfile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leader_profile (id, name, position, achievements, manifesto,
			personality, slogan, campaign_color, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			position = EXCLUDED.position,
			achievements = EXCLUDED.achievements,
			manifesto = EXCLUDED.manifesto,
			personality = EXCLUDED.personality,
			slogan = EXCLUDED.slogan,
			campaign_color = EXCLUDED.campaign_color,
			updated_at = EXCLUDED.updated_at`,
		p.Name, p.Position, p.Achievements, p.Manifesto, p.Personality,
		p.Slogan, p.CampaignColor, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
