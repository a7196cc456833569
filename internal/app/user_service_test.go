package app_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"quizrush/internal/app"
	"quizrush/internal/domain"
	"quizrush/internal/infra/memory"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func TestRegisterValidation(t *testing.T) {
	svc := app.NewUserService(memory.NewUserStore())
	ctx := context.Background()

	var vErr *domain.ValidationError
	if _, err := svc.Register(ctx, "  ", "555-0100", ""); !errors.As(err, &vErr) || vErr.Field != "name" {
		t.Fatalf("blank name: err = %v", err)
	}
	if _, err := svc.Register(ctx, "Asha", "", ""); !errors.As(err, &vErr) || vErr.Field != "phone" {
		t.Fatalf("blank phone: err = %v", err)
	}
}

func TestRegisterNewPlayer(t *testing.T) {
	svc := app.NewUserService(memory.NewUserStore())

	u, err := svc.Register(context.Background(), "Asha", "555-0100", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == "" {
		t.Error("empty id")
	}
	if !codePattern.MatchString(u.ReferralCode) {
		t.Errorf("referral code %q does not match 8-char A-Z0-9", u.ReferralCode)
	}
	if u.RetriesLeft != app.InitialRetries {
		t.Errorf("retries = %d, want %d", u.RetriesLeft, app.InitialRetries)
	}
	if u.Score != 0 || u.Eligible {
		t.Errorf("fresh player score=%d eligible=%v", u.Score, u.Eligible)
	}
}

func TestRegisterReferralCredit(t *testing.T) {
	store := memory.NewUserStore()
	svc := app.NewUserService(store)
	ctx := context.Background()

	referrer, err := svc.Register(ctx, "Asha", "555-0100", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Register(ctx, "Bilal", "555-0101", referrer.ReferralCode); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetUser(ctx, referrer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.RetriesLeft != app.InitialRetries+1 {
		t.Fatalf("referrer retries = %d, want %d", got.RetriesLeft, app.InitialRetries+1)
	}

	// An unresolvable code registers fine and credits nobody.
	if _, err := svc.Register(ctx, "Chen", "555-0102", "ZZZZ9999"); err != nil {
		t.Fatalf("register with unknown code: %v", err)
	}
	got, _ = svc.GetUser(ctx, referrer.ID)
	if got.RetriesLeft != app.InitialRetries+1 {
		t.Fatalf("unknown code must not credit: retries = %d", got.RetriesLeft)
	}
}

func TestConsumeRetryFloor(t *testing.T) {
	svc := app.NewUserService(memory.NewUserStore())
	ctx := context.Background()

	u, err := svc.Register(ctx, "Asha", "555-0100", "")
	if err != nil {
		t.Fatal(err)
	}

	granted, left, err := svc.ConsumeRetry(ctx, u.ID)
	if err != nil || !granted || left != 0 {
		t.Fatalf("first consume = %v, %d, %v", granted, left, err)
	}
	granted, left, err = svc.ConsumeRetry(ctx, u.ID)
	if err != nil || granted || left != 0 {
		t.Fatalf("exhausted consume = %v, %d, %v", granted, left, err)
	}
	if _, _, err := svc.ConsumeRetry(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSubmitScoreKeepsMax(t *testing.T) {
	svc := app.NewUserService(memory.NewUserStore())
	ctx := context.Background()

	u, err := svc.Register(ctx, "Asha", "555-0100", "")
	if err != nil {
		t.Fatal(err)
	}

	if got, _ := svc.SubmitScore(ctx, u.ID, 890); got != 890 {
		t.Fatalf("stored = %d, want 890", got)
	}
	if got, _ := svc.SubmitScore(ctx, u.ID, 500); got != 890 {
		t.Fatalf("lower resubmission stored = %d, want 890", got)
	}
	if got, _ := svc.SubmitScore(ctx, u.ID, 1200); got != 1200 {
		t.Fatalf("higher resubmission stored = %d, want 1200", got)
	}
}

func TestLeaderboardGateAndOrdering(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	// Register against a controllable clock so account ages differ.
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := app.NewUserServiceWithClock(store, func() time.Time { return current })

	mustRegister := func(name string) domain.User {
		t.Helper()
		u, err := svc.Register(ctx, name, "555-0100", "")
		if err != nil {
			t.Fatal(err)
		}
		return u
	}

	veteran1 := mustRegister("Veteran One")
	current = current.Add(time.Minute)
	veteran2 := mustRegister("Veteran Two")
	current = current.Add(3 * time.Hour)
	rookie := mustRegister("Rookie")

	if _, err := svc.SubmitScore(ctx, veteran1.ID, 700); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitScore(ctx, veteran2.ID, 700); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitScore(ctx, rookie.ID, 2000); err != nil {
		t.Fatal(err)
	}

	sweeper := app.NewEligibilitySweeperWithClock(store, time.Minute, 2*time.Hour,
		func() time.Time { return current })
	promoted, err := sweeper.RunOnce(ctx)
	if err != nil || promoted != 2 {
		t.Fatalf("promoted = %d, %v, want 2", promoted, err)
	}

	entries, err := svc.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("leaderboard has %d entries, want 2 (rookie gated out)", len(entries))
	}
	// Equal scores: the earlier registration ranks first.
	if entries[0].Name != "Veteran One" || entries[0].Rank != 1 {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Name != "Veteran Two" || entries[1].Rank != 2 {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestSweeperStartStop(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	past := time.Now().Add(-3 * time.Hour)
	svc := app.NewUserServiceWithClock(store, func() time.Time { return past })
	u, err := svc.Register(ctx, "Asha", "555-0100", "")
	if err != nil {
		t.Fatal(err)
	}

	sweeper := app.NewEligibilitySweeper(store, 10*time.Millisecond, 2*time.Hour)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := svc.GetUser(ctx, u.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Eligible {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("sweeper never promoted an old account")
}
