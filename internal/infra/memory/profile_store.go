package memory

import (
	"context"
	"sync"

	"quizrush/internal/domain"
)

// ProfileStore keeps the singleton leader profile in memory.
type ProfileStore struct {
	mu      sync.RWMutex
	profile domain.LeaderProfile
	saved   bool
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

// GetProfile returns the saved profile, or defaults when none was saved.
func (s *ProfileStore) GetProfile(_ context.Context) (domain.LeaderProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return domain.LeaderProfile{CampaignColor: domain.DefaultCampaignColor}, nil
	}
	return s.profile, nil
}

func (s *ProfileStore) SaveProfile(_ context.Context, p domain.LeaderProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	s.saved = true
	return nil
}
