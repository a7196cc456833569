package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quizrush/internal/domain"
	"quizrush/internal/generate"
)

// ProfileService reads and updates the leader profile.
type ProfileService struct {
	profiles ProfileRepository
	sets     QuestionSetRepository
}

func NewProfileService(profiles ProfileRepository, sets QuestionSetRepository) *ProfileService {
	return &ProfileService{profiles: profiles, sets: sets}
}

// Profile returns the stored profile, or defaults when none was saved.
func (s *ProfileService) Profile(ctx context.Context) (domain.LeaderProfile, error) {
	return s.profiles.GetProfile(ctx)
}

// Update saves the profile and drops every cached question set so the
// next fetch regenerates from the new material.
func (s *ProfileService) Update(ctx context.Context, p domain.LeaderProfile) error {
	if strings.TrimSpace(p.Name) == "" {
		return &domain.ValidationError{Field: "name"}
	}
	if strings.TrimSpace(p.CampaignColor) == "" {
		p.CampaignColor = domain.DefaultCampaignColor
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.profiles.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	for level := generate.MinLevel; level <= generate.MaxLevel; level++ {
		if err := s.sets.Invalidate(ctx, level); err != nil {
			slog.Warn("invalidate cached question set", "level", level, "error", err)
		}
	}
	return nil
}
