package domain

import "time"

// Rank tier labels derived from cumulative XP
const (
	RankNewbie = "NEWBIE"
	RankJunior = "JUNIOR"
	RankPro    = "PRO"
	RankElite  = "ELITE"
)

// User represents a learner profile with progression and league state.
// The store owns the record; services load a snapshot, mutate the copy
// and write it back.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  string `json:"position,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Rank      string `json:"rank"`

	// Core stats
	TotalXP          int    `json:"total_xp"`
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	QuestionsSolved  int    `json:"questions_solved"`
	LastActivityDate string `json:"last_activity_date,omitempty"` // YYYY-MM-DD

	// Mastery progress (category -> 0..100)
	Mastery map[string]int `json:"mastery,omitempty"`

	// Earned badges
	Badges []Badge `json:"badges,omitempty"`

	// League state
	CurrentLeague League `json:"current_league"`
	LeagueGroupID string `json:"league_group_id,omitempty"` // empty = unassigned
	WeeklyScore   int    `json:"weekly_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Badge represents an unlockable achievement flag on a user profile
type Badge struct {
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
	Icon     string `json:"icon,omitempty"`
}

// RankForXP maps cumulative XP onto a rank tier label.
// Thresholds are exclusive and evaluated highest first.
func RankForXP(xp int) string {
	switch {
	case xp > 5000:
		return RankElite
	case xp > 2000:
		return RankPro
	case xp > 500:
		return RankJunior
	default:
		return RankNewbie
	}
}

// ProgressEvent represents an answer submission consumed from Kafka
type ProgressEvent struct {
	UserID     string    `json:"user_id"`
	Category   string    `json:"category"`
	Correct    bool      `json:"correct"`
	Difficulty string    `json:"difficulty,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
