// Package generator implements the content generation port: given a
// category and a desired count it produces validated flashcards, or an
// empty result when the upstream model call fails. Failures are never
// fatal for callers; the question pool degrades to existing content.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/devndesk/DevReady/internal/config"
	"github.com/devndesk/DevReady/internal/domain"
)

// Generator is the content generation port consumed by the question pool
type Generator interface {
	Generate(ctx context.Context, category string, count int) ([]domain.Question, error)
}

// GroqClient generates flashcards through an OpenAI-compatible
// chat-completions endpoint
type GroqClient struct {
	config *config.GeneratorConfig
	client *http.Client
	logger *slog.Logger
}

// NewGroqClient creates a new generator client
func NewGroqClient(cfg *config.GeneratorConfig, logger *slog.Logger) *GroqClient {
	return &GroqClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// generatedCard is the JSON shape the model is asked to emit
type generatedCard struct {
	Category        string `json:"category"`
	Question        string `json:"question"`
	Answer          string `json:"answer"`
	DifficultyLevel string `json:"difficultyLevel"`
}

const systemPrompt = "You are an elite technical interviewer. You provide unique, high-quality JSON data only."

// Generate requests count flashcards for a category. Any upstream or
// parsing failure yields an empty slice and an error; callers log and
// continue with the existing pool.
func (g *GroqClient) Generate(ctx context.Context, category string, count int) ([]domain.Question, error) {
	prompt := fmt.Sprintf(
		"Generate EXACTLY %d diverse, advanced, and unique technical interview flashcards for the topic '%s'. "+
			"Focus on non-obvious edge cases, architectural patterns, and deep-dive concepts. "+
			"Avoid basic definitions. Category MUST be exactly '%s'. "+
			"Response MUST be a raw JSON array of objects: "+
			`[{"category": "...", "question": "...", "answer": "...", "difficultyLevel": "Easy/Medium/Hard"}]. `+
			"No markdown, no preamble.",
		count, category, category,
	)

	body, err := json.Marshal(chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling generator api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator api returned status %d: %w", resp.StatusCode, domain.ErrGeneratorUnavailable)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decoding generator response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("generator response has no choices: %w", domain.ErrGeneratorUnavailable)
	}

	questions, err := ParseCards(chat.Choices[0].Message.Content, category)
	if err != nil {
		return nil, err
	}

	g.logger.Info("generated flashcards", "category", category, "requested", count, "parsed", len(questions))
	return questions, nil
}

// ParseCards extracts flashcards from the model output. Models wrap the
// array in markdown fences or preamble often enough that the content is
// trimmed to its outermost JSON array before unmarshaling. Cards with
// empty question text are skipped, the requested category is forced,
// and missing difficulty defaults to Medium.
func ParseCards(content, category string) ([]domain.Question, error) {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in generator output: %w", domain.ErrGeneratorUnavailable)
	}
	content = content[start : end+1]

	var cards []generatedCard
	if err := json.Unmarshal([]byte(content), &cards); err != nil {
		return nil, fmt.Errorf("parsing generator output: %w", err)
	}

	questions := make([]domain.Question, 0, len(cards))
	for _, card := range cards {
		if card.Question == "" {
			continue
		}
		difficulty := card.DifficultyLevel
		if difficulty == "" {
			difficulty = domain.DifficultyMedium
		}
		questions = append(questions, domain.Question{
			ID:         uuid.NewString(),
			Category:   category,
			Text:       card.Question,
			Answer:     card.Answer,
			Difficulty: difficulty,
		})
	}
	return questions, nil
}
