// Package progress implements the progression engine: XP, mastery,
// streak continuity and rank tier over a single user record.
package progress

import (
	"strings"
	"time"

	"github.com/devndesk/DevReady/internal/domain"
)

// XP awards
const (
	xpEasy          = 10
	xpMedium        = 20
	xpHard          = 30
	xpParticipation = 2

	masteryCap = 100
)

const dateLayout = "2006-01-02"

// xpForDifficulty maps a difficulty label to its XP award.
// Unrecognized or missing difficulty earns the Easy award.
func xpForDifficulty(difficulty string) int {
	switch strings.ToLower(difficulty) {
	case "hard":
		return xpHard
	case "medium":
		return xpMedium
	default:
		return xpEasy
	}
}

// Apply records one answered question on an in-memory user snapshot and
// returns the XP gained. The caller owns persisting the mutated copy.
func Apply(user *domain.User, category string, correct bool, difficulty string, today time.Time) int {
	gain := xpParticipation
	if correct {
		gain = xpForDifficulty(difficulty)

		user.QuestionsSolved++

		if user.Mastery == nil {
			user.Mastery = make(map[string]int)
		}
		if user.Mastery[category] < masteryCap {
			user.Mastery[category]++
		}
	}
	user.TotalXP += gain

	applyStreak(user, today)

	user.Rank = domain.RankForXP(user.TotalXP)

	return gain
}

// applyStreak advances the daily streak against the calendar date.
// A second activity on the same day leaves the streak untouched;
// activity on the next calendar day extends it; any larger gap resets
// it to 1.
func applyStreak(user *domain.User, today time.Time) {
	todayStr := today.Format(dateLayout)
	yesterdayStr := today.AddDate(0, 0, -1).Format(dateLayout)

	switch {
	case user.LastActivityDate == "" || user.CurrentStreak == 0:
		user.CurrentStreak = 1
	case user.LastActivityDate != todayStr:
		if user.LastActivityDate == yesterdayStr {
			user.CurrentStreak++
		} else {
			user.CurrentStreak = 1
		}
	}

	// Safeguard against corrupted stored counts
	if user.CurrentStreak <= 0 {
		user.CurrentStreak = 1
	}

	user.LastActivityDate = todayStr
	if user.CurrentStreak > user.LongestStreak {
		user.LongestStreak = user.CurrentStreak
	}
}
