package league

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devndesk/DevReady/internal/config"
	"github.com/devndesk/DevReady/internal/domain"
)

type fakeUserStore struct {
	users     map[string]domain.User
	upsertErr error
	findErr   error
}

func newFakeUserStore(users ...domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := u
	return &copied, nil
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *fakeUserStore) FindByLeagueGroup(ctx context.Context, groupID string) ([]domain.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []domain.User
	for _, u := range s.users {
		if u.LeagueGroupID == groupID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) FindGroupedByLeague(ctx context.Context, league domain.League) ([]domain.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []domain.User
	for _, u := range s.users {
		if u.CurrentLeague == league && u.LeagueGroupID != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) FindAll(ctx context.Context) ([]domain.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []domain.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeUserStore) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.users[user.ID] = *user
	copied := *user
	return &copied, nil
}

type fakeRankingCache struct {
	topIDs  []string
	topErr  error
	removed []string
}

func (c *fakeRankingCache) TopMembers(ctx context.Context, groupID string) ([]string, error) {
	if c.topErr != nil {
		return nil, c.topErr
	}
	return c.topIDs, nil
}

func (c *fakeRankingCache) RemoveGroup(ctx context.Context, groupID string) error {
	c.removed = append(c.removed, groupID)
	return nil
}

func testConfig() *config.LeagueConfig {
	return &config.LeagueConfig{
		GroupCapacity:   50,
		PromoteCount:    3,
		DemoteCount:     5,
		DemotionMinSize: 10,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func groupMembers(league domain.League, groupID string, n int) []domain.User {
	out := make([]domain.User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.User{
			ID:            fmt.Sprintf("%s-u%02d", groupID, i+1),
			CurrentLeague: league,
			LeagueGroupID: groupID,
			// Descending scores, so u01 leads and the last user trails
			WeeklyScore: (n - i) * 10,
		})
	}
	return out
}

func TestAssignToGroupReusesGroupWithCapacity(t *testing.T) {
	store := newFakeUserStore(groupMembers(domain.LeagueSilver, "SILVER_grp00001", 49)...)
	svc := NewService(store, nil, testConfig(), testLogger())

	groupID, err := svc.AssignToGroup(context.Background(), &domain.User{ID: "new", CurrentLeague: domain.LeagueSilver})
	require.NoError(t, err)
	assert.Equal(t, "SILVER_grp00001", groupID)
}

func TestAssignToGroupMintsNewWhenFull(t *testing.T) {
	store := newFakeUserStore(groupMembers(domain.LeagueSilver, "SILVER_grp00001", 50)...)
	svc := NewService(store, nil, testConfig(), testLogger())

	groupID, err := svc.AssignToGroup(context.Background(), &domain.User{ID: "new", CurrentLeague: domain.LeagueSilver})
	require.NoError(t, err)

	assert.NotEqual(t, "SILVER_grp00001", groupID)
	assert.True(t, strings.HasPrefix(groupID, "SILVER_"))
	assert.Len(t, strings.TrimPrefix(groupID, "SILVER_"), 8)
}

func TestAssignToGroupDefaultsLeague(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store, nil, testConfig(), testLogger())

	groupID, err := svc.AssignToGroup(context.Background(), &domain.User{ID: "new"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(groupID, "BRONZE_"))
}

func TestAssignToGroupIgnoresOtherLeagues(t *testing.T) {
	store := newFakeUserStore(groupMembers(domain.LeagueGold, "GOLD_grp0000a", 5)...)
	svc := NewService(store, nil, testConfig(), testLogger())

	groupID, err := svc.AssignToGroup(context.Background(), &domain.User{ID: "new", CurrentLeague: domain.LeagueSilver})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(groupID, "SILVER_"))
}

func TestGetLeaderboardEmptyGroupID(t *testing.T) {
	svc := NewService(newFakeUserStore(), nil, testConfig(), testLogger())

	board, err := svc.GetLeaderboard(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, board)
	assert.NotNil(t, board)
}

func TestGetLeaderboardSortsByWeeklyScore(t *testing.T) {
	store := newFakeUserStore(
		domain.User{ID: "low", LeagueGroupID: "SILVER_grp00001", WeeklyScore: 10},
		domain.User{ID: "high", LeagueGroupID: "SILVER_grp00001", WeeklyScore: 90},
		domain.User{ID: "mid", LeagueGroupID: "SILVER_grp00001", WeeklyScore: 40},
		domain.User{ID: "outsider", LeagueGroupID: "SILVER_grp00002", WeeklyScore: 999},
	)
	svc := NewService(store, nil, testConfig(), testLogger())

	board, err := svc.GetLeaderboard(context.Background(), "SILVER_grp00001")
	require.NoError(t, err)

	require.Len(t, board, 3)
	assert.Equal(t, "high", board[0].ID)
	assert.Equal(t, "mid", board[1].ID)
	assert.Equal(t, "low", board[2].ID)
}

func TestGetLeaderboardCacheOrderingWins(t *testing.T) {
	store := newFakeUserStore(
		domain.User{ID: "a", LeagueGroupID: "SILVER_grp00001", WeeklyScore: 10},
		domain.User{ID: "b", LeagueGroupID: "SILVER_grp00001", WeeklyScore: 90},
	)
	// Cache has already seen writes the store read missed.
	cache := &fakeRankingCache{topIDs: []string{"a", "b"}}
	svc := NewService(store, cache, testConfig(), testLogger())

	board, err := svc.GetLeaderboard(context.Background(), "SILVER_grp00001")
	require.NoError(t, err)

	require.Len(t, board, 2)
	assert.Equal(t, "a", board[0].ID)
	assert.Equal(t, "b", board[1].ID)
}

func TestGetLeaderboardCacheFailureFallsBack(t *testing.T) {
	store := newFakeUserStore(
		domain.User{ID: "a", LeagueGroupID: "SILVER_grp00001", WeeklyScore: 10},
		domain.User{ID: "b", LeagueGroupID: "SILVER_grp00001", WeeklyScore: 90},
	)
	cache := &fakeRankingCache{topErr: errors.New("redis down")}
	svc := NewService(store, cache, testConfig(), testLogger())

	board, err := svc.GetLeaderboard(context.Background(), "SILVER_grp00001")
	require.NoError(t, err)

	require.Len(t, board, 2)
	assert.Equal(t, "b", board[0].ID)
}

func TestRunSeasonRotationPromotesDemotesResets(t *testing.T) {
	members := groupMembers(domain.LeagueSilver, "SILVER_grp00001", 12)
	store := newFakeUserStore(members...)
	cache := &fakeRankingCache{}
	svc := NewService(store, cache, testConfig(), testLogger())

	require.NoError(t, svc.RunSeasonRotation(context.Background()))

	wantLeague := func(id string, league domain.League) {
		u, err := store.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, league, u.CurrentLeague, "user %s", id)
		assert.Equal(t, 0, u.WeeklyScore, "user %s", id)
		assert.Empty(t, u.LeagueGroupID, "user %s", id)
	}

	// Top three promoted
	wantLeague("SILVER_grp00001-u01", domain.LeagueGold)
	wantLeague("SILVER_grp00001-u02", domain.LeagueGold)
	wantLeague("SILVER_grp00001-u03", domain.LeagueGold)
	// Middle of the pack unchanged
	wantLeague("SILVER_grp00001-u04", domain.LeagueSilver)
	wantLeague("SILVER_grp00001-u07", domain.LeagueSilver)
	// Bottom five demoted
	wantLeague("SILVER_grp00001-u08", domain.LeagueBronze)
	wantLeague("SILVER_grp00001-u12", domain.LeagueBronze)

	assert.Equal(t, []string{"SILVER_grp00001"}, cache.removed)
}

func TestRunSeasonRotationSmallGroupSkipsDemotion(t *testing.T) {
	members := groupMembers(domain.LeagueSilver, "SILVER_grp00001", 10)
	store := newFakeUserStore(members...)
	svc := NewService(store, nil, testConfig(), testLogger())

	require.NoError(t, svc.RunSeasonRotation(context.Background()))

	promoted, silver := 0, 0
	for _, u := range store.users {
		switch u.CurrentLeague {
		case domain.LeagueGold:
			promoted++
		case domain.LeagueSilver:
			silver++
		}
	}
	assert.Equal(t, 3, promoted)
	assert.Equal(t, 7, silver)
}

func TestRunSeasonRotationTinyGroupPromotesAll(t *testing.T) {
	members := groupMembers(domain.LeagueSilver, "SILVER_grp00001", 2)
	store := newFakeUserStore(members...)
	svc := NewService(store, nil, testConfig(), testLogger())

	require.NoError(t, svc.RunSeasonRotation(context.Background()))

	for _, u := range store.users {
		assert.Equal(t, domain.LeagueGold, u.CurrentLeague)
	}
}

func TestRunSeasonRotationClampsAtLadderEdges(t *testing.T) {
	members := append(
		groupMembers(domain.LeagueElite, "ELITE_grp000ff", 12),
		groupMembers(domain.LeagueBronze, "BRONZE_grp0001", 12)...,
	)
	store := newFakeUserStore(members...)
	svc := NewService(store, nil, testConfig(), testLogger())

	require.NoError(t, svc.RunSeasonRotation(context.Background()))

	// Elite winners stay elite, bronze losers stay bronze.
	top, err := store.FindByID(context.Background(), "ELITE_grp000ff-u01")
	require.NoError(t, err)
	assert.Equal(t, domain.LeagueElite, top.CurrentLeague)

	bottom, err := store.FindByID(context.Background(), "BRONZE_grp0001-u12")
	require.NoError(t, err)
	assert.Equal(t, domain.LeagueBronze, bottom.CurrentLeague)
}

func TestRunSeasonRotationResetsUngroupedUsers(t *testing.T) {
	store := newFakeUserStore(domain.User{
		ID:            "loner",
		CurrentLeague: domain.LeagueGold,
		WeeklyScore:   77,
	})
	svc := NewService(store, nil, testConfig(), testLogger())

	require.NoError(t, svc.RunSeasonRotation(context.Background()))

	u, err := store.FindByID(context.Background(), "loner")
	require.NoError(t, err)
	assert.Equal(t, domain.LeagueGold, u.CurrentLeague)
	assert.Equal(t, 0, u.WeeklyScore)
}

func TestRunSeasonRotationContinuesPastWriteFailures(t *testing.T) {
	members := groupMembers(domain.LeagueSilver, "SILVER_grp00001", 12)
	store := newFakeUserStore(members...)
	store.upsertErr = errors.New("connection refused")
	svc := NewService(store, nil, testConfig(), testLogger())

	assert.NoError(t, svc.RunSeasonRotation(context.Background()))
}

func TestRunSeasonRotationLoadFailure(t *testing.T) {
	store := newFakeUserStore()
	store.findErr = errors.New("connection refused")
	svc := NewService(store, nil, testConfig(), testLogger())

	assert.Error(t, svc.RunSeasonRotation(context.Background()))
}
