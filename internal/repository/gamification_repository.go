package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// GamificationRepository persists XP accounts and streak records, and runs
// the leaderboard queries. It backs the gamification service's store.
type GamificationRepository struct {
	pool *pgxpool.Pool
}

// NewGamificationRepository creates a new gamification repository.
func NewGamificationRepository(pool *pgxpool.Pool) *GamificationRepository {
	return &GamificationRepository{pool: pool}
}

// XpAccount retrieves a user's XP account. Returns nil, nil when the user
// has never earned XP; the service creates the account lazily.
func (r *GamificationRepository) XpAccount(ctx context.Context, userID uuid.UUID) (*domain.XpAccount, error) {
	query := `
		SELECT id, user_id, total_xp, level, updated_at
		FROM xp_accounts WHERE user_id = $1
	`
	account := &domain.XpAccount{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&account.ID, &account.UserID, &account.TotalXp, &account.Level, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SaveXpAccount upserts an XP account keyed by user.
func (r *GamificationRepository) SaveXpAccount(ctx context.Context, account *domain.XpAccount) error {
	query := `
		INSERT INTO xp_accounts (id, user_id, total_xp, level, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET total_xp = EXCLUDED.total_xp, level = EXCLUDED.level, updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		account.ID, account.UserID, account.TotalXp, account.Level, account.UpdatedAt,
	)
	return err
}

// Streak retrieves a user's streak record. Returns nil, nil when the user
// has never been active.
func (r *GamificationRepository) Streak(ctx context.Context, userID uuid.UUID) (*domain.StreakRecord, error) {
	query := `
		SELECT id, user_id, current_streak, longest_streak, last_active_date, updated_at
		FROM streaks WHERE user_id = $1
	`
	record := &domain.StreakRecord{}
	var lastActive time.Time
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&record.ID, &record.UserID, &record.CurrentStreak, &record.LongestStreak,
		&lastActive, &record.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record.LastActiveDate = domain.DateOf(lastActive)
	return record, nil
}

// SaveStreak upserts a streak record keyed by user.
func (r *GamificationRepository) SaveStreak(ctx context.Context, record *domain.StreakRecord) error {
	query := `
		INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_active_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET current_streak = EXCLUDED.current_streak,
		    longest_streak = EXCLUDED.longest_streak,
		    last_active_date = EXCLUDED.last_active_date,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID, record.UserID, record.CurrentStreak, record.LongestStreak,
		record.LastActiveDate.Time(), record.UpdatedAt,
	)
	return err
}

// Leaderboard returns the top users by total XP. Ties break by user name so
// the ordering is stable; ranks are dense positions in this ordering.
func (r *GamificationRepository) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT u.id, u.name, u.image, x.total_xp, x.level, COALESCE(s.current_streak, 0)
		FROM xp_accounts x
		JOIN users u ON u.id = x.user_id
		LEFT JOIN streaks s ON s.user_id = x.user_id
		ORDER BY x.total_xp DESC, u.name
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		entry := domain.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(
			&entry.UserID, &entry.Name, &entry.Image,
			&entry.TotalXp, &entry.Level, &entry.CurrentStreak,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Rank returns a user's leaderboard position: one more than the count of
// users holding strictly more XP. Users with no XP account rank last.
func (r *GamificationRepository) Rank(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) + 1
		FROM xp_accounts
		WHERE total_xp > COALESCE(
			(SELECT total_xp FROM xp_accounts WHERE user_id = $1), -1
		)
	`
	var rank int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&rank)
	return rank, err
}
