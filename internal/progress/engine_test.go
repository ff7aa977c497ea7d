package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/devndesk/DevReady/internal/domain"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 12, 0, 0, 0, time.UTC)
}

func TestApplyCorrectHardAnswer(t *testing.T) {
	user := &domain.User{}

	gain := Apply(user, "Go", true, "Hard", day(2026, 3, 2))

	assert.Equal(t, 30, gain)
	assert.Equal(t, 30, user.TotalXP)
	assert.Equal(t, domain.RankNewbie, user.Rank)
	assert.Equal(t, 1, user.QuestionsSolved)
	assert.Equal(t, 1, user.Mastery["Go"])
	assert.Equal(t, 1, user.CurrentStreak)
	assert.Equal(t, 1, user.LongestStreak)
	assert.Equal(t, "2026-03-02", user.LastActivityDate)
}

func TestApplyIncorrectAnswerParticipationXP(t *testing.T) {
	user := &domain.User{}

	gain := Apply(user, "Go", false, "Hard", day(2026, 3, 2))

	assert.Equal(t, 2, gain)
	assert.Equal(t, 2, user.TotalXP)
	assert.Equal(t, 0, user.QuestionsSolved)
	assert.Empty(t, user.Mastery)
}

func TestApplyDifficultyCaseInsensitive(t *testing.T) {
	tests := []struct {
		difficulty string
		gain       int
	}{
		{"Hard", 30},
		{"hArD", 30},
		{"MEDIUM", 20},
		{"medium", 20},
		{"Easy", 10},
		{"", 10},
		{"impossible", 10},
	}

	for _, tt := range tests {
		user := &domain.User{}
		gain := Apply(user, "Go", true, tt.difficulty, day(2026, 3, 2))
		assert.Equal(t, tt.gain, gain, "difficulty=%q", tt.difficulty)
	}
}

func TestApplyMasteryCappedAt100(t *testing.T) {
	user := &domain.User{Mastery: map[string]int{"SQL": 99}}

	Apply(user, "SQL", true, "Easy", day(2026, 3, 2))
	assert.Equal(t, 100, user.Mastery["SQL"])

	Apply(user, "SQL", true, "Easy", day(2026, 3, 2))
	assert.Equal(t, 100, user.Mastery["SQL"])
}

func TestApplyStreakSameDayUnchanged(t *testing.T) {
	user := &domain.User{}

	Apply(user, "Go", true, "Easy", day(2026, 3, 2))
	assert.Equal(t, 1, user.CurrentStreak)

	Apply(user, "Go", true, "Easy", day(2026, 3, 2))
	assert.Equal(t, 1, user.CurrentStreak)
}

func TestApplyStreakConsecutiveDays(t *testing.T) {
	user := &domain.User{}

	Apply(user, "Go", true, "Easy", day(2026, 3, 2))
	assert.Equal(t, 1, user.CurrentStreak)

	Apply(user, "Go", true, "Easy", day(2026, 3, 3))
	assert.Equal(t, 2, user.CurrentStreak)

	Apply(user, "Go", true, "Easy", day(2026, 3, 4))
	assert.Equal(t, 3, user.CurrentStreak)
	assert.Equal(t, 3, user.LongestStreak)
}

func TestApplyStreakGapResets(t *testing.T) {
	user := &domain.User{
		CurrentStreak:    5,
		LongestStreak:    5,
		LastActivityDate: "2026-03-02",
	}

	// Two day gap
	Apply(user, "Go", true, "Easy", day(2026, 3, 4))

	assert.Equal(t, 1, user.CurrentStreak)
	assert.Equal(t, 5, user.LongestStreak)
}

func TestApplyStreakZeroReinitialized(t *testing.T) {
	user := &domain.User{
		CurrentStreak:    0,
		LastActivityDate: "2026-03-01",
	}

	Apply(user, "Go", true, "Easy", day(2026, 3, 2))
	assert.Equal(t, 1, user.CurrentStreak)
}

func TestApplyStreakSafeguardForcesPositive(t *testing.T) {
	user := &domain.User{
		CurrentStreak:    -3,
		LastActivityDate: "2026-03-02",
	}

	Apply(user, "Go", true, "Easy", day(2026, 3, 2))
	assert.Equal(t, 1, user.CurrentStreak)
}

func TestApplyRankThresholds(t *testing.T) {
	user := &domain.User{TotalXP: 2498}
	Apply(user, "Go", false, "", day(2026, 3, 2))
	assert.Equal(t, 2500, user.TotalXP)
	assert.Equal(t, domain.RankPro, user.Rank)

	user.TotalXP = 5098
	Apply(user, "Go", false, "", day(2026, 3, 2))
	assert.Equal(t, 5100, user.TotalXP)
	assert.Equal(t, domain.RankElite, user.Rank)
}
