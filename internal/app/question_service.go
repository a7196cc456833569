package app

import (
	"context"
	"log/slog"

	"quizrush/internal/domain"
	"quizrush/internal/generate"
)

// QuestionSetRepository serves question sets per level (typically the
// cache wrapping the generator) and drops cached sets on demand.
type QuestionSetRepository interface {
	GetQuestionSet(ctx context.Context, level int) (domain.QuestionSet, error)
	Invalidate(ctx context.Context, level int) error
}

// ProfileRepository persists the singleton leader profile.
type ProfileRepository interface {
	GetProfile(ctx context.Context) (domain.LeaderProfile, error)
	SaveProfile(ctx context.Context, p domain.LeaderProfile) error
}

// QuestionService hands out playable question sets. Generation failures
// stop here: callers always receive a full set, with the fixed fallback
// substituted when the pipeline cannot deliver.
type QuestionService struct {
	sets     QuestionSetRepository
	profiles ProfileRepository // nil in topic mode
	mode     generate.Mode
}

func NewQuestionService(sets QuestionSetRepository, profiles ProfileRepository, mode generate.Mode) *QuestionService {
	return &QuestionService{sets: sets, profiles: profiles, mode: mode}
}

// QuestionSet returns the set for level. The fallback is served directly
// and never cached, so a healed provider takes over on the next fetch.
func (s *QuestionService) QuestionSet(ctx context.Context, level int) domain.QuestionSet {
	level = generate.ClampLevel(level)
	set, err := s.sets.GetQuestionSet(ctx, level)
	if err == nil {
		return set
	}
	slog.Warn("question generation unavailable, serving fallback",
		"level", level, "error", err)
	return s.fallbackSet(ctx, level)
}

func (s *QuestionService) fallbackSet(ctx context.Context, level int) domain.QuestionSet {
	if s.mode == generate.ModeTopic {
		return generate.TopicFallback(level)
	}
	var name string
	if s.profiles != nil {
		if profile, err := s.profiles.GetProfile(ctx); err == nil {
			name = profile.Name
		}
	}
	return generate.CampaignFallback(name, level)
}
