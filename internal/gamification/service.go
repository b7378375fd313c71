// Package gamification implements the XP ledger and streak tracker.
package gamification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// Clock abstracts wall-clock access so streak logic is testable without real
// time. Dates derive from Now() in UTC.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Store is the persistence boundary for XP accounts and streak records.
// Lookups return (nil, nil) when no row exists.
type Store interface {
	XpAccount(ctx context.Context, userID uuid.UUID) (*domain.XpAccount, error)
	SaveXpAccount(ctx context.Context, account *domain.XpAccount) error

	Streak(ctx context.Context, userID uuid.UUID) (*domain.StreakRecord, error)
	SaveStreak(ctx context.Context, record *domain.StreakRecord) error

	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Rank(ctx context.Context, userID uuid.UUID) (int, error)
}

// XpResult is the outcome of a single XP award.
type XpResult struct {
	TotalXp   int
	Level     int
	LeveledUp bool
}

// StreakResult is the outcome of a streak update.
type StreakResult struct {
	CurrentStreak int
	LongestStreak int
}

// Stats is the combined gamification state for one user.
type Stats struct {
	TotalXp        int
	Level          int
	CurrentStreak  int
	LongestStreak  int
	LastActiveDate string // YYYY-MM-DD, empty when never active
}

// Service coordinates XP and streak accounting. Both updates are
// read-modify-write without locking; concurrent submissions from the same
// user can race, which is accepted for this workload.
type Service struct {
	store Store
	table domain.LevelTable
	clock Clock
}

// NewService creates a gamification service. A nil clock defaults to the
// system clock; a nil table defaults to the production thresholds.
func NewService(store Store, table domain.LevelTable, clock Clock) *Service {
	if table == nil {
		table = domain.DefaultLevelTable
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{store: store, table: table, clock: clock}
}

// AwardXp adds xp to the user's ledger, creating the account lazily on the
// first award. xp must be positive; the caller sources it from the exercise's
// reward, never from client input.
func (s *Service) AwardXp(ctx context.Context, userID uuid.UUID, xp int) (XpResult, error) {
	if xp <= 0 {
		return XpResult{}, fmt.Errorf("xp must be positive, got %d", xp)
	}

	now := s.clock.Now()
	account, err := s.store.XpAccount(ctx, userID)
	if err != nil {
		return XpResult{}, fmt.Errorf("load xp account: %w", err)
	}

	if account == nil {
		account = domain.NewXpAccount(userID, xp, s.table, now)
		if err := s.store.SaveXpAccount(ctx, account); err != nil {
			return XpResult{}, fmt.Errorf("create xp account: %w", err)
		}
		return XpResult{
			TotalXp:   account.TotalXp,
			Level:     account.Level,
			LeveledUp: account.Level > 1,
		}, nil
	}

	leveledUp := account.Award(xp, s.table, now)
	if err := s.store.SaveXpAccount(ctx, account); err != nil {
		return XpResult{}, fmt.Errorf("save xp account: %w", err)
	}
	return XpResult{TotalXp: account.TotalXp, Level: account.Level, LeveledUp: leveledUp}, nil
}

// UpdateStreak records today's activity for the user. Idempotent within a
// calendar day: repeat calls return the existing values without a write.
func (s *Service) UpdateStreak(ctx context.Context, userID uuid.UUID) (StreakResult, error) {
	now := s.clock.Now()
	today := domain.DateOf(now)

	record, err := s.store.Streak(ctx, userID)
	if err != nil {
		return StreakResult{}, fmt.Errorf("load streak: %w", err)
	}

	if record == nil {
		record = domain.NewStreakRecord(userID, today, now)
		if err := s.store.SaveStreak(ctx, record); err != nil {
			return StreakResult{}, fmt.Errorf("create streak: %w", err)
		}
		return StreakResult{CurrentStreak: 1, LongestStreak: 1}, nil
	}

	if record.Advance(today, now) {
		if err := s.store.SaveStreak(ctx, record); err != nil {
			return StreakResult{}, fmt.Errorf("save streak: %w", err)
		}
	}
	return StreakResult{
		CurrentStreak: record.CurrentStreak,
		LongestStreak: record.LongestStreak,
	}, nil
}

// StatsFor returns the user's combined XP and streak state, with zero values
// for users who have no rows yet.
func (s *Service) StatsFor(ctx context.Context, userID uuid.UUID) (Stats, error) {
	stats := Stats{Level: 1}

	account, err := s.store.XpAccount(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("load xp account: %w", err)
	}
	if account != nil {
		stats.TotalXp = account.TotalXp
		stats.Level = account.Level
	}

	record, err := s.store.Streak(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("load streak: %w", err)
	}
	if record != nil {
		stats.CurrentStreak = record.CurrentStreak
		stats.LongestStreak = record.LongestStreak
		if !record.LastActiveDate.IsZero() {
			stats.LastActiveDate = record.LastActiveDate.String()
		}
	}
	return stats, nil
}

// Leaderboard returns the top accounts by total XP along with the caller's
// own rank. A caller with no XP account ranks below everyone who has one.
func (s *Service) Leaderboard(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LeaderboardEntry, int, error) {
	entries, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("load leaderboard: %w", err)
	}

	rank, err := s.store.Rank(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("load rank: %w", err)
	}
	return entries, rank, nil
}
