package generate

import (
	"context"
	"fmt"
	"strings"

	"quizrush/internal/domain"
)

// ProfileSource yields the profile campaign questions are generated from.
type ProfileSource interface {
	GetProfile(ctx context.Context) (domain.LeaderProfile, error)
}

// Generator builds validated question sets through a Provider. It is the
// loader behind the question-set caches; callers treat every error from
// it as a generation failure and substitute the fallback set.
type Generator struct {
	provider Provider
	profiles ProfileSource
	mode     Mode
	topic    string
}

// NewGenerator wires a generator. provider may be nil (generation
// disabled), profiles may be nil in topic mode.
func NewGenerator(provider Provider, profiles ProfileSource, mode Mode, topic string) *Generator {
	return &Generator{provider: provider, profiles: profiles, mode: mode, topic: topic}
}

// LoadQuestionSet generates and validates the set for level.
func (g *Generator) LoadQuestionSet(ctx context.Context, level int) (domain.QuestionSet, error) {
	if g.provider == nil {
		return domain.QuestionSet{}, ErrNoProvider
	}
	level = ClampLevel(level)
	spec := SpecFor(g.mode, level)

	var user string
	switch g.mode {
	case ModeTopic:
		topic := strings.TrimSpace(g.topic)
		if topic == "" {
			topic = "general knowledge"
		}
		user = topicPrompt(spec, topic)
	default:
		if g.profiles == nil {
			return domain.QuestionSet{}, ErrNoSourceContent
		}
		profile, err := g.profiles.GetProfile(ctx)
		if err != nil {
			return domain.QuestionSet{}, fmt.Errorf("load profile: %w", err)
		}
		content := spec.Content(profile)
		if strings.TrimSpace(content) == "" {
			return domain.QuestionSet{}, ErrNoSourceContent
		}
		user = campaignPrompt(spec, profile, content)
	}

	raw, err := g.provider.Complete(ctx, systemPrompt, user)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("generate level %d: %w", level, err)
	}
	return ParseQuestionSet(raw, level)
}
