// Package league implements competitive grouping: capacity-bounded
// cohorts of same-tier users, weekly leaderboards and the season
// rotation that promotes, demotes and resets them.
package league

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/devndesk/DevReady/internal/config"
	"github.com/devndesk/DevReady/internal/domain"
	"github.com/devndesk/DevReady/internal/store"
)

// RankingCache is the optional Redis-backed weekly ranking mirror.
// All calls are best-effort; the store stays authoritative.
type RankingCache interface {
	TopMembers(ctx context.Context, groupID string) ([]string, error)
	RemoveGroup(ctx context.Context, groupID string) error
}

// Service manages league groups and the weekly season cycle
type Service struct {
	users  store.UserStore
	cache  RankingCache
	config *config.LeagueConfig
	logger *slog.Logger
}

// NewService creates a new league service. cache may be nil.
func NewService(users store.UserStore, cache RankingCache, cfg *config.LeagueConfig, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

// AssignToGroup finds a group in the user's league with remaining
// capacity, or mints a new group id. Tie order over candidate groups is
// first-found, not least-loaded. The capacity check is read-then-write:
// two concurrent assignments can both land in the same group and push
// it transiently past capacity.
func (s *Service) AssignToGroup(ctx context.Context, user *domain.User) (string, error) {
	league := user.CurrentLeague
	if league == "" {
		league = domain.LeagueBronze
	}

	grouped, err := s.users.FindGroupedByLeague(ctx, league)
	if err != nil {
		return "", fmt.Errorf("loading league members: %w", err)
	}

	counts := make(map[string]int)
	for _, u := range grouped {
		counts[u.LeagueGroupID]++
	}

	for groupID, count := range counts {
		if count < s.config.GroupCapacity {
			return groupID, nil
		}
	}

	groupID := fmt.Sprintf("%s_%s", league, uuid.NewString()[:8])
	s.logger.Info("created league group", "group_id", groupID, "league", league)
	return groupID, nil
}

// GetLeaderboard returns a group's members ordered by weekly score
// descending. An empty group id yields an empty list. When the ranking
// cache holds an ordering for the group it wins, since it reflects
// scores written after the last store read.
func (s *Service) GetLeaderboard(ctx context.Context, groupID string) ([]domain.User, error) {
	if groupID == "" {
		return []domain.User{}, nil
	}

	members, err := s.users.FindByLeagueGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("loading group members: %w", err)
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].WeeklyScore > members[j].WeeklyScore
	})

	if s.cache == nil {
		return members, nil
	}

	ids, err := s.cache.TopMembers(ctx, groupID)
	if err != nil {
		s.logger.Warn("weekly ranking cache read failed", "group_id", groupID, "error", err)
		return members, nil
	}
	if len(ids) == 0 {
		return members, nil
	}

	rankIdx := make(map[string]int, len(ids))
	for i, id := range ids {
		rankIdx[id] = i
	}
	sort.SliceStable(members, func(i, j int) bool {
		ri, iok := rankIdx[members[i].ID]
		rj, jok := rankIdx[members[j].ID]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return members[i].WeeklyScore > members[j].WeeklyScore
		}
	})

	return members, nil
}

// RunSeasonRotation executes the weekly cycle: per group, promote the
// top performers one tier and demote the bottom of large groups, then
// reset every user's weekly score and clear their group so the next
// scoring activity reassigns them. Writes are per-user; the sweep is
// not atomic across the population.
func (s *Service) RunSeasonRotation(ctx context.Context) error {
	s.logger.Info("starting season rotation")
	startTime := time.Now()

	all, err := s.users.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("loading users for rotation: %w", err)
	}

	// Users without a group sit out the ranking but still get reset.
	groups := make(map[string][]*domain.User)
	for i := range all {
		u := &all[i]
		if u.LeagueGroupID != "" {
			groups[u.LeagueGroupID] = append(groups[u.LeagueGroupID], u)
		}
	}

	promoted, demoted := 0, 0
	for groupID, members := range groups {
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].WeeklyScore > members[j].WeeklyScore
		})

		topN := s.config.PromoteCount
		if topN > len(members) {
			topN = len(members)
		}
		for i := 0; i < topN; i++ {
			members[i].CurrentLeague = members[i].CurrentLeague.Next()
			promoted++
		}

		if len(members) > s.config.DemotionMinSize {
			start := len(members) - s.config.DemoteCount
			if start < 0 {
				start = 0
			}
			for i := start; i < len(members); i++ {
				members[i].CurrentLeague = members[i].CurrentLeague.Previous()
				demoted++
			}
		}

		s.logger.Debug("group processed", "group_id", groupID, "size", len(members))
	}

	saved, failed := 0, 0
	for i := range all {
		u := &all[i]
		u.WeeklyScore = 0
		u.LeagueGroupID = ""
		if _, err := s.users.Upsert(ctx, u); err != nil {
			s.logger.Error("failed to persist rotation result", "user_id", u.ID, "error", err)
			failed++
			continue
		}
		saved++
	}

	if s.cache != nil {
		for groupID := range groups {
			if err := s.cache.RemoveGroup(ctx, groupID); err != nil {
				s.logger.Warn("failed to drop weekly ranking", "group_id", groupID, "error", err)
			}
		}
	}

	s.logger.Info("season rotation completed",
		"duration", time.Since(startTime),
		"groups", len(groups),
		"promoted", promoted,
		"demoted", demoted,
		"saved", saved,
		"failed", failed,
	)
	return nil
}
