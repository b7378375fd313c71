package gamification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	accounts map[uuid.UUID]*domain.XpAccount
	streaks  map[uuid.UUID]*domain.StreakRecord
	saves    int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uuid.UUID]*domain.XpAccount),
		streaks:  make(map[uuid.UUID]*domain.StreakRecord),
	}
}

func (m *memStore) XpAccount(_ context.Context, userID uuid.UUID) (*domain.XpAccount, error) {
	return m.accounts[userID], nil
}

func (m *memStore) SaveXpAccount(_ context.Context, account *domain.XpAccount) error {
	m.accounts[account.UserID] = account
	m.saves++
	return nil
}

func (m *memStore) Streak(_ context.Context, userID uuid.UUID) (*domain.StreakRecord, error) {
	return m.streaks[userID], nil
}

func (m *memStore) SaveStreak(_ context.Context, record *domain.StreakRecord) error {
	m.streaks[record.UserID] = record
	m.saves++
	return nil
}

func (m *memStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return nil, nil
}

func (m *memStore) Rank(_ context.Context, _ uuid.UUID) (int, error) {
	return 0, nil
}

// fixedClock returns a settable instant.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func utc(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestService_AwardXp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account lazily", func(t *testing.T) {
		store := newMemStore()
		svc := NewService(store, nil, nil)
		userID := uuid.New()

		res, err := svc.AwardXp(ctx, userID, 50)
		if err != nil {
			t.Fatalf("AwardXp() error: %v", err)
		}
		if res.TotalXp != 50 || res.Level != 1 || res.LeveledUp {
			t.Errorf("result = %+v, want {50 1 false}", res)
		}
		if store.accounts[userID] == nil {
			t.Error("account was not persisted")
		}
	})

	t.Run("first award past a threshold reports leveledUp", func(t *testing.T) {
		store := newMemStore()
		svc := NewService(store, nil, nil)

		res, err := svc.AwardXp(ctx, uuid.New(), 150)
		if err != nil {
			t.Fatalf("AwardXp() error: %v", err)
		}
		if res.Level != 2 || !res.LeveledUp {
			t.Errorf("result = %+v, want level 2 leveledUp", res)
		}
	})

	t.Run("crossing a boundary levels up", func(t *testing.T) {
		store := newMemStore()
		svc := NewService(store, nil, nil)
		userID := uuid.New()

		if _, err := svc.AwardXp(ctx, userID, 95); err != nil {
			t.Fatalf("AwardXp() error: %v", err)
		}
		res, err := svc.AwardXp(ctx, userID, 10)
		if err != nil {
			t.Fatalf("AwardXp() error: %v", err)
		}
		if res.TotalXp != 105 || res.Level != 2 || !res.LeveledUp {
			t.Errorf("result = %+v, want {105 2 true}", res)
		}
	})

	t.Run("sum of awards equals total", func(t *testing.T) {
		store := newMemStore()
		svc := NewService(store, nil, nil)
		userID := uuid.New()

		awards := []int{10, 25, 10, 300, 5}
		sum := 0
		for _, xp := range awards {
			res, err := svc.AwardXp(ctx, userID, xp)
			if err != nil {
				t.Fatalf("AwardXp(%d) error: %v", xp, err)
			}
			sum += xp
			if res.TotalXp != sum {
				t.Fatalf("TotalXp = %d, want %d", res.TotalXp, sum)
			}
			if res.Level != domain.DefaultLevelTable.LevelFor(sum) {
				t.Fatalf("Level = %d, want %d", res.Level, domain.DefaultLevelTable.LevelFor(sum))
			}
		}
	})

	t.Run("rejects non-positive xp", func(t *testing.T) {
		svc := NewService(newMemStore(), nil, nil)
		if _, err := svc.AwardXp(ctx, uuid.New(), 0); err == nil {
			t.Error("AwardXp(0) expected error")
		}
		if _, err := svc.AwardXp(ctx, uuid.New(), -5); err == nil {
			t.Error("AwardXp(-5) expected error")
		}
	})

	t.Run("alternate level table", func(t *testing.T) {
		svc := NewService(newMemStore(), domain.LevelTable{0, 10}, nil)
		res, err := svc.AwardXp(ctx, uuid.New(), 10)
		if err != nil {
			t.Fatalf("AwardXp() error: %v", err)
		}
		if res.Level != 2 || !res.LeveledUp {
			t.Errorf("result = %+v, want level 2 leveledUp", res)
		}
	})
}

func TestService_UpdateStreak(t *testing.T) {
	ctx := context.Background()

	t.Run("first activity starts at 1", func(t *testing.T) {
		clock := &fixedClock{now: utc(2026, 3, 10, 9)}
		svc := NewService(newMemStore(), nil, clock)

		res, err := svc.UpdateStreak(ctx, uuid.New())
		if err != nil {
			t.Fatalf("UpdateStreak() error: %v", err)
		}
		if res.CurrentStreak != 1 || res.LongestStreak != 1 {
			t.Errorf("result = %+v, want {1 1}", res)
		}
	})

	t.Run("same day is idempotent", func(t *testing.T) {
		store := newMemStore()
		clock := &fixedClock{now: utc(2026, 3, 10, 9)}
		svc := NewService(store, nil, clock)
		userID := uuid.New()

		if _, err := svc.UpdateStreak(ctx, userID); err != nil {
			t.Fatalf("UpdateStreak() error: %v", err)
		}
		savesBefore := store.saves

		clock.now = utc(2026, 3, 10, 23) // later same day
		res, err := svc.UpdateStreak(ctx, userID)
		if err != nil {
			t.Fatalf("UpdateStreak() error: %v", err)
		}
		if res.CurrentStreak != 1 || res.LongestStreak != 1 {
			t.Errorf("result = %+v, want {1 1}", res)
		}
		if store.saves != savesBefore {
			t.Error("same-day update should not write")
		}
	})

	t.Run("next day extends", func(t *testing.T) {
		clock := &fixedClock{now: utc(2026, 3, 10, 9)}
		svc := NewService(newMemStore(), nil, clock)
		userID := uuid.New()

		svc.UpdateStreak(ctx, userID)
		clock.now = utc(2026, 3, 11, 7)

		res, err := svc.UpdateStreak(ctx, userID)
		if err != nil {
			t.Fatalf("UpdateStreak() error: %v", err)
		}
		if res.CurrentStreak != 2 || res.LongestStreak != 2 {
			t.Errorf("result = %+v, want {2 2}", res)
		}
	})

	t.Run("three day gap resets", func(t *testing.T) {
		clock := &fixedClock{now: utc(2026, 3, 10, 9)}
		svc := NewService(newMemStore(), nil, clock)
		userID := uuid.New()

		svc.UpdateStreak(ctx, userID)
		clock.now = utc(2026, 3, 11, 9)
		svc.UpdateStreak(ctx, userID)

		clock.now = utc(2026, 3, 14, 9)
		res, err := svc.UpdateStreak(ctx, userID)
		if err != nil {
			t.Fatalf("UpdateStreak() error: %v", err)
		}
		if res.CurrentStreak != 1 {
			t.Errorf("CurrentStreak = %d, want 1", res.CurrentStreak)
		}
		if res.LongestStreak != 2 {
			t.Errorf("LongestStreak = %d, want 2", res.LongestStreak)
		}
	})
}

func TestService_StatsFor(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults for unknown user", func(t *testing.T) {
		svc := NewService(newMemStore(), nil, nil)

		stats, err := svc.StatsFor(ctx, uuid.New())
		if err != nil {
			t.Fatalf("StatsFor() error: %v", err)
		}
		want := Stats{TotalXp: 0, Level: 1, CurrentStreak: 0, LongestStreak: 0}
		if stats != want {
			t.Errorf("stats = %+v, want %+v", stats, want)
		}
	})

	t.Run("reflects activity", func(t *testing.T) {
		store := newMemStore()
		clock := &fixedClock{now: utc(2026, 3, 10, 9)}
		svc := NewService(store, nil, clock)
		userID := uuid.New()

		svc.AwardXp(ctx, userID, 120)
		svc.UpdateStreak(ctx, userID)

		stats, err := svc.StatsFor(ctx, userID)
		if err != nil {
			t.Fatalf("StatsFor() error: %v", err)
		}
		if stats.TotalXp != 120 || stats.Level != 2 {
			t.Errorf("xp/level = %d/%d, want 120/2", stats.TotalXp, stats.Level)
		}
		if stats.LastActiveDate != "2026-03-10" {
			t.Errorf("LastActiveDate = %q, want 2026-03-10", stats.LastActiveDate)
		}
	})
}
