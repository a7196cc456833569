package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizrush/internal/domain"
)

// UserRepository abstracts user persistence (Postgres or in-memory).
// Mutating operations are atomic at the store so services stay free of
// read-modify-write races.
type UserRepository interface {
	Insert(ctx context.Context, u domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	// CreditReferral adds one retry to the owner of code and reports
	// whether anyone matched.
	CreditReferral(ctx context.Context, code string) (bool, error)
	// ConsumeRetry decrements retries iff any remain and returns the
	// grant decision with the remaining count.
	ConsumeRetry(ctx context.Context, id string) (bool, int, error)
	// SubmitScore keeps the maximum of the stored and candidate score
	// and returns the stored value.
	SubmitScore(ctx context.Context, id string, score int) (int, error)
	// MarkEligible flips ineligible users created at or before cutoff
	// and returns how many it promoted.
	MarkEligible(ctx context.Context, cutoff time.Time) (int, error)
	TopEligible(ctx context.Context, limit int) ([]domain.User, error)
}

const (
	// InitialRetries is what every fresh registration starts with.
	InitialRetries = 1
	// DefaultLeaderboardLimit caps the leaderboard view.
	DefaultLeaderboardLimit = 10

	referralCodeLength   = 8
	referralCodeAttempts = 5
	referralAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// UserService carries registration, the retry/referral ledger, score
// submission and the leaderboard view.
type UserService struct {
	users UserRepository
	now   func() time.Time
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

// NewUserServiceWithClock is test-only for deterministic timestamps.
func NewUserServiceWithClock(users UserRepository, now func() time.Time) *UserService {
	return &UserService{users: users, now: now}
}

// Register creates a player and, when referredBy names an existing
// referral code, rewards its owner with one extra retry.
func (s *UserService) Register(ctx context.Context, name, phone, referredBy string) (domain.User, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	referredBy = strings.TrimSpace(referredBy)
	if name == "" {
		return domain.User{}, &domain.ValidationError{Field: "name"}
	}
	if phone == "" {
		return domain.User{}, &domain.ValidationError{Field: "phone"}
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := newReferralCode()
		if err != nil {
			return domain.User{}, err
		}
		user := domain.User{
			ID:           uuid.NewString(),
			Name:         name,
			Phone:        phone,
			ReferralCode: code,
			ReferredBy:   referredBy,
			RetriesLeft:  InitialRetries,
			CreatedAt:    s.now().UTC(),
		}
		err = s.users.Insert(ctx, user)
		if errors.Is(err, domain.ErrReferralCodeTaken) {
			continue
		}
		if err != nil {
			return domain.User{}, fmt.Errorf("insert user: %w", err)
		}
		s.creditReferrer(ctx, referredBy)
		return user, nil
	}
	return domain.User{}, fmt.Errorf("allocate referral code: gave up after %d attempts", referralCodeAttempts)
}

// creditReferrer rewards the owner of code with one retry. An unknown
// code is a silent no-op; a storage failure only logs because the
// registration itself already stands.
func (s *UserService) creditReferrer(ctx context.Context, code string) {
	if code == "" {
		return
	}
	if _, err := s.users.CreditReferral(ctx, code); err != nil {
		slog.Warn("crediting referrer failed", "code", code, "error", err)
	}
}

// GetUser returns the full record for id.
func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.users.Get(ctx, id)
}

// ConsumeRetry spends one retry when any remain.
func (s *UserService) ConsumeRetry(ctx context.Context, id string) (bool, int, error) {
	return s.users.ConsumeRetry(ctx, id)
}

// SubmitScore records candidate keep-max style and returns the stored
// score.
func (s *UserService) SubmitScore(ctx context.Context, id string, candidate int) (int, error) {
	return s.users.SubmitScore(ctx, id, candidate)
}

// Leaderboard returns the ranked top eligible players.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	top, err := s.users.TopEligible(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, len(top))
	for i, u := range top {
		entries[i] = domain.LeaderboardEntry{Rank: i + 1, Name: u.Name, Score: u.Score}
	}
	return entries, nil
}

func newReferralCode() (string, error) {
	buf := make([]byte, referralCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate referral code: %w", err)
	}
	for i, b := range buf {
		buf[i] = referralAlphabet[int(b)%len(referralAlphabet)]
	}
	return string(buf), nil
}
