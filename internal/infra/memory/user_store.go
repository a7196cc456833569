package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizrush/internal/domain"
)

// UserStore is the in-memory user repository used when Postgres is not
// configured, and in tests. Every mutation holds the lock for its whole
// read-modify-write, matching the single-statement atomicity of the SQL
// store.
type UserStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	byCode map[string]string // referral code -> user id
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:  make(map[string]*domain.User),
		byCode: make(map[string]string),
	}
}

func (s *UserStore) Insert(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCode[u.ReferralCode]; taken {
		return domain.ErrReferralCodeTaken
	}
	cp := u
	s.users[u.ID] = &cp
	s.byCode[u.ReferralCode] = u.ID
	return nil
}

func (s *UserStore) Get(_ context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *u, nil
}

func (s *UserStore) CreditReferral(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[code]
	if !ok {
		return false, nil
	}
	s.users[id].RetriesLeft++
	return true, nil
}

func (s *UserStore) ConsumeRetry(_ context.Context, id string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, 0, domain.ErrUserNotFound
	}
	if u.RetriesLeft <= 0 {
		return false, u.RetriesLeft, nil
	}
	u.RetriesLeft--
	return true, u.RetriesLeft, nil
}

func (s *UserStore) SubmitScore(_ context.Context, id string, score int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if score > u.Score {
		u.Score = score
	}
	return u.Score, nil
}

func (s *UserStore) MarkEligible(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	promoted := 0
	for _, u := range s.users {
		if !u.Eligible && !u.CreatedAt.After(cutoff) {
			u.Eligible = true
			promoted++
		}
	}
	return promoted, nil
}

func (s *UserStore) TopEligible(_ context.Context, limit int) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var eligible []domain.User
	for _, u := range s.users {
		if u.Eligible {
			eligible = append(eligible, *u)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		if !eligible[i].CreatedAt.Equal(eligible[j].CreatedAt) {
			return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
		}
		return eligible[i].ID < eligible[j].ID
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible, nil
}
