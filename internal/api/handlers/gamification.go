package handlers

import (
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/gamification"
)

// GamificationHandler handles XP, streak and leaderboard endpoints
type GamificationHandler struct {
	service *gamification.Service
}

// NewGamificationHandler creates a new gamification handler
func NewGamificationHandler(service *gamification.Service) *GamificationHandler {
	return &GamificationHandler{service: service}
}

// LeaderboardEntryResponse represents one leaderboard row
type LeaderboardEntryResponse struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	TotalXp       int    `json:"totalXp"`
	Level         int    `json:"level"`
	CurrentStreak int    `json:"currentStreak"`
}

func toLeaderboardEntry(e domain.LeaderboardEntry) LeaderboardEntryResponse {
	return LeaderboardEntryResponse{
		Rank:          e.Rank,
		UserID:        e.UserID.String(),
		Name:          e.Name,
		Image:         e.Image,
		TotalXp:       e.TotalXp,
		Level:         e.Level,
		CurrentStreak: e.CurrentStreak,
	}
}

// Me returns the caller's XP, level and streak stats
func (h *GamificationHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	stats, err := h.service.StatsFor(r.Context(), user.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"totalXp":        stats.TotalXp,
		"level":          stats.Level,
		"currentStreak":  stats.CurrentStreak,
		"longestStreak":  stats.LongestStreak,
		"lastActiveDate": stats.LastActiveDate,
	})
}

// Leaderboard returns the top users plus the caller's own rank
func (h *GamificationHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			jsonError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, myRank, err := h.service.Leaderboard(r.Context(), user.ID, limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	response := make([]LeaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, toLeaderboardEntry(e))
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"entries": response,
		"myRank":  myRank,
	})
}
