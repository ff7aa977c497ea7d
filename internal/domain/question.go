package domain

// Question difficulty levels
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Question is a persisted flashcard. Questions are immutable once
// generated: the generator creates them, the store persists them,
// nothing mutates them afterwards.
type Question struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Text       string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// NormalizedDifficulty returns the question's difficulty, defaulting
// missing or empty values to Medium.
func (q Question) NormalizedDifficulty() string {
	if q.Difficulty == "" {
		return DifficultyMedium
	}
	return q.Difficulty
}

// QuizQuestion is the transient multiple-choice view of a question,
// composed at request time and never persisted. Options contain the
// correct answer plus up to three distractors in shuffled order.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Category      string   `json:"category"`
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
	Difficulty    string   `json:"difficulty"`
}
