package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizrush/internal/domain"
)

const uniqueViolation = "23505"

const selectUser = `SELECT id, name, phone, score, referral_code, COALESCE(referred_by, ''),
	retries_left, eligible_for_leaderboard, created_at FROM users`

// UserStore persists users in Postgres. Every mutation is a single
// statement, so concurrent referral credits, retry spends and score
// submissions cannot interleave read-modify-write.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Insert(ctx context.Context, u domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, phone, score, referral_code, referred_by,
			retries_left, eligible_for_leaderboard, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)`,
		u.ID, u.Name, u.Phone, u.Score, u.ReferralCode, u.ReferredBy,
		u.RetriesLeft, u.Eligible, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrReferralCodeTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (domain.User, error) {
	return scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

func (s *UserStore) CreditReferral(ctx context.Context, code string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET retries_left = retries_left + 1 WHERE referral_code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("credit referral: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *UserStore) ConsumeRetry(ctx context.Context, id string) (bool, int, error) {
	var left int
	err := s.pool.QueryRow(ctx, `
		UPDATE users SET retries_left = retries_left - 1
		WHERE id = $1 AND retries_left > 0
		RETURNING retries_left`, id).Scan(&left)
	if err == nil {
		return true, left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, 0, fmt.Errorf("consume retry: %w", err)
	}
	// Nothing matched: unknown user or exhausted retries, disambiguate.
	u, err := s.Get(ctx, id)
	if err != nil {
		return false, 0, err
	}
	return false, u.RetriesLeft, nil
}

func (s *UserStore) SubmitScore(ctx context.Context, id string, score int) (int, error) {
	var stored int
	err := s.pool.QueryRow(ctx, `
		UPDATE users SET score = GREATEST(score, $2)
		WHERE id = $1
		RETURNING score`, id, score).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("submit score: %w", err)
	}
	return stored, nil
}

func (s *UserStore) MarkEligible(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET eligible_for_leaderboard = TRUE
		WHERE NOT eligible_for_leaderboard AND created_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark eligible: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *UserStore) TopEligible(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, selectUser+`
		WHERE eligible_for_leaderboard
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Score, &u.ReferralCode,
		&u.ReferredBy, &u.RetriesLeft, &u.Eligible, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
