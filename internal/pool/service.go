// Package pool implements the adaptive question pool: selection,
// on-demand refill through the content generator, and multiple-choice
// assembly.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/devndesk/DevReady/internal/config"
	"github.com/devndesk/DevReady/internal/domain"
	"github.com/devndesk/DevReady/internal/generator"
	"github.com/devndesk/DevReady/internal/store"
)

// Service selects quiz questions from the persisted pool, refilling it
// through the generator when a category runs dry.
type Service struct {
	questions store.QuestionStore
	generator generator.Generator
	config    *config.PoolConfig
	logger    *slog.Logger
}

// NewService creates a new question pool service
func NewService(
	questions store.QuestionStore,
	gen generator.Generator,
	cfg *config.PoolConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		questions: questions,
		generator: gen,
		config:    cfg,
		logger:    logger,
	}
}

// placeholderOptions pad the option list when a category has fewer than
// three distractor candidates.
var placeholderOptions = []string{
	"None of the above",
	"All of the above",
	"Cannot be determined",
}

// SelectQuestion picks one random question in the category (the
// configured default when empty) honoring the exclusion set. An
// exhausted filter gets a single retry with the exclusions cleared; if
// the pool is still empty the fixed fallback question is returned.
// The retry is a bounded loop, not recursion, so an empty pool can
// never loop.
func (s *Service) SelectQuestion(ctx context.Context, category string, excludeIDs []string) (*domain.QuizQuestion, error) {
	targetCategory := category
	if targetCategory == "" {
		targetCategory = s.config.DefaultCategory
	}

	for attempt := 0; attempt < 2; attempt++ {
		count, err := s.questions.CountByCategory(ctx, targetCategory, excludeIDs)
		if err != nil {
			return nil, fmt.Errorf("counting pool: %w", err)
		}

		if count < int64(s.config.MinQuestions) {
			if err := s.refill(ctx, targetCategory); err != nil {
				// Generator failure degrades to the existing pool.
				s.logger.Warn("pool refill failed",
					"category", targetCategory,
					"error", err,
				)
			}
		}

		sample, err := s.questions.SampleByCategory(ctx, targetCategory, excludeIDs, 1)
		if err != nil {
			return nil, fmt.Errorf("sampling pool: %w", err)
		}

		if len(sample) == 0 {
			if attempt == 0 && len(excludeIDs) > 0 {
				s.logger.Info("pool exhausted by exclusions, retrying without them",
					"category", targetCategory,
					"excluded", len(excludeIDs),
				)
				excludeIDs = nil
				continue
			}
			return s.fallbackQuestion(targetCategory), nil
		}

		return s.compose(ctx, sample[0])
	}

	return s.fallbackQuestion(targetCategory), nil
}

// refill asks the generator for a fresh batch and persists it
func (s *Service) refill(ctx context.Context, category string) error {
	generated, err := s.generator.Generate(ctx, category, s.config.GenerateBatch)
	if err != nil {
		return fmt.Errorf("generating flashcards: %w", err)
	}
	if len(generated) == 0 {
		return nil
	}
	if err := s.questions.BulkUpsert(ctx, generated); err != nil {
		return fmt.Errorf("persisting generated flashcards: %w", err)
	}
	s.logger.Info("pool refilled", "category", category, "added", len(generated))
	return nil
}

// compose builds the multiple-choice view: the correct answer plus up
// to three distractors sampled from the same category, padded with
// placeholders to exactly four options and shuffled. Distractor text is
// not deduplicated against the correct answer.
func (s *Service) compose(ctx context.Context, q domain.Question) (*domain.QuizQuestion, error) {
	distractors, err := s.questions.SampleByCategory(ctx, q.Category, []string{q.ID}, s.config.Distractors)
	if err != nil {
		return nil, fmt.Errorf("sampling distractors: %w", err)
	}

	options := make([]string, 0, s.config.Distractors+1)
	options = append(options, q.Answer)
	for _, d := range distractors {
		options = append(options, d.Answer)
	}
	for i := 0; len(options) < s.config.Distractors+1; i++ {
		options = append(options, placeholderOptions[i%len(placeholderOptions)])
	}

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return &domain.QuizQuestion{
		ID:            q.ID,
		Category:      q.Category,
		Question:      q.Text,
		CorrectAnswer: q.Answer,
		Options:       options,
		Difficulty:    q.NormalizedDifficulty(),
	}, nil
}

// fallbackQuestion is the deterministic last resort when the pool is
// empty even after a refill attempt and an exclusion reset. It gets a
// fresh synthetic identity so clients can exclude it like any other
// question.
func (s *Service) fallbackQuestion(category string) *domain.QuizQuestion {
	correct := "Practice consistently with spaced repetition"
	options := []string{
		correct,
		"Memorize answers the night before",
		"Skip the fundamentals and learn frameworks only",
		"Reread the same notes without self-testing",
	}
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	s.logger.Warn("serving fallback question", "category", category)

	return &domain.QuizQuestion{
		ID:            uuid.NewString(),
		Category:      category,
		Question:      fmt.Sprintf("What is the most effective way to prepare for %s interview questions?", category),
		CorrectAnswer: correct,
		Options:       options,
		Difficulty:    domain.DifficultyMedium,
	}
}
