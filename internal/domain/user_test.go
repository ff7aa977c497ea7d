package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankForXP(t *testing.T) {
	tests := []struct {
		xp   int
		rank string
	}{
		{0, RankNewbie},
		{500, RankNewbie},
		{501, RankJunior},
		{2000, RankJunior},
		{2001, RankPro},
		{2500, RankPro},
		{5000, RankPro},
		{5001, RankElite},
		{5100, RankElite},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.rank, RankForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestNormalizedDifficulty(t *testing.T) {
	assert.Equal(t, DifficultyMedium, Question{}.NormalizedDifficulty())
	assert.Equal(t, DifficultyHard, Question{Difficulty: DifficultyHard}.NormalizedDifficulty())
}
