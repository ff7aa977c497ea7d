package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devndesk/DevReady/internal/domain"
	"github.com/devndesk/DevReady/internal/store"
)

// GroupAssigner places a user into a league group with remaining
// capacity. Implemented by the league service.
type GroupAssigner interface {
	AssignToGroup(ctx context.Context, user *domain.User) (string, error)
}

// ScoreCache mirrors weekly scores into the leaderboard cache.
// Implemented by the Redis weekly cache; nil disables mirroring.
type ScoreCache interface {
	SetScore(ctx context.Context, groupID, userID string, score int) error
}

// Service loads a user snapshot, applies the progression engine and
// persists the result.
type Service struct {
	users    store.UserStore
	assigner GroupAssigner
	cache    ScoreCache
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new progression service. assigner and cache may
// be nil.
func NewService(users store.UserStore, assigner GroupAssigner, cache ScoreCache, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		assigner: assigner,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// UpdateProgress records an answered question for a user and returns
// the updated record. An unknown user id yields domain.ErrUserNotFound.
func (s *Service) UpdateProgress(ctx context.Context, userID, category string, correct bool, difficulty string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	gain := Apply(user, category, correct, difficulty, s.now())
	user.WeeklyScore += gain

	if user.CurrentLeague == "" {
		user.CurrentLeague = domain.LeagueBronze
	}

	// Lazy group reassignment after a season reset: the first scoring
	// activity puts the user back into a group.
	if user.LeagueGroupID == "" && s.assigner != nil {
		groupID, err := s.assigner.AssignToGroup(ctx, user)
		if err != nil {
			s.logger.Warn("group assignment failed", "user_id", user.ID, "error", err)
		} else {
			user.LeagueGroupID = groupID
		}
	}

	updated, err := s.users.Upsert(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("persisting progress: %w", err)
	}

	if s.cache != nil && updated.LeagueGroupID != "" {
		if err := s.cache.SetScore(ctx, updated.LeagueGroupID, updated.ID, updated.WeeklyScore); err != nil {
			s.logger.Warn("weekly score cache update failed", "user_id", updated.ID, "error", err)
		}
	}

	s.logger.Info("progress recorded",
		"user_id", updated.ID,
		"category", category,
		"correct", correct,
		"xp_gain", gain,
		"total_xp", updated.TotalXP,
		"streak", updated.CurrentStreak,
	)

	return updated, nil
}
