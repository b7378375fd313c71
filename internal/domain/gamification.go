package domain

import (
	"time"

	"github.com/google/uuid"
)

// LevelTable is an ordered sequence of cumulative-XP thresholds. Index i
// holds the floor of level i+1; the table must be strictly increasing with
// thresholds[0] == 0.
type LevelTable []int

// DefaultLevelTable defines the level boundaries used in production.
var DefaultLevelTable = LevelTable{0, 100, 300, 600, 1000, 1500, 2200, 3000, 4000, 5200, 6500}

// LevelFor returns the level for a total XP amount: the highest index i with
// thresholds[i] <= totalXp, reported as level i+1. Falls back to level 1,
// which cannot trigger as long as the table starts at 0.
func (t LevelTable) LevelFor(totalXp int) int {
	for i := len(t) - 1; i >= 0; i-- {
		if totalXp >= t[i] {
			return i + 1
		}
	}
	return 1
}

// MaxLevel returns the highest reachable level.
func (t LevelTable) MaxLevel() int {
	return len(t)
}

// XpAccount is the per-user XP ledger row. TotalXp is monotonically
// non-decreasing; Level is cached and recomputed on every award so that
// Level == table.LevelFor(TotalXp) always holds after an update.
type XpAccount struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TotalXp   int
	Level     int
	UpdatedAt time.Time
}

// NewXpAccount creates an account on the first XP award.
func NewXpAccount(userID uuid.UUID, xp int, table LevelTable, now time.Time) *XpAccount {
	return &XpAccount{
		ID:        uuid.New(),
		UserID:    userID,
		TotalXp:   xp,
		Level:     table.LevelFor(xp),
		UpdatedAt: now,
	}
}

// Award adds xp to the account, recomputes the cached level, and reports
// whether the award crossed a level boundary.
func (a *XpAccount) Award(xp int, table LevelTable, now time.Time) (leveledUp bool) {
	prev := a.Level
	a.TotalXp += xp
	a.Level = table.LevelFor(a.TotalXp)
	a.UpdatedAt = now
	return a.Level > prev
}

// StreakRecord is the per-user daily-activity counter. LongestStreak never
// decreases and is always >= CurrentStreak.
type StreakRecord struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	CurrentStreak  int
	LongestStreak  int
	LastActiveDate Date // zero value means no activity recorded yet
	UpdatedAt      time.Time
}

// NewStreakRecord creates a record on the first streak-qualifying event.
func NewStreakRecord(userID uuid.UUID, today Date, now time.Time) *StreakRecord {
	return &StreakRecord{
		ID:             uuid.New(),
		UserID:         userID,
		CurrentStreak:  1,
		LongestStreak:  1,
		LastActiveDate: today,
		UpdatedAt:      now,
	}
}

// Advance applies one day of activity. It is idempotent within a calendar
// day: a second call on the same date leaves the record untouched and
// returns false. Activity on the day after LastActiveDate extends the
// streak; any larger gap resets it to 1.
func (r *StreakRecord) Advance(today Date, now time.Time) (changed bool) {
	if r.LastActiveDate.Equal(today) {
		return false
	}

	if !r.LastActiveDate.IsZero() && r.LastActiveDate.AddDays(1).Equal(today) {
		r.CurrentStreak++
	} else {
		r.CurrentStreak = 1
	}
	if r.CurrentStreak > r.LongestStreak {
		r.LongestStreak = r.CurrentStreak
	}
	r.LastActiveDate = today
	r.UpdatedAt = now
	return true
}

// LeaderboardEntry is one ranked row of the XP leaderboard.
type LeaderboardEntry struct {
	Rank          int
	UserID        uuid.UUID
	Name          string
	Image         string
	TotalXp       int
	Level         int
	CurrentStreak int
}
