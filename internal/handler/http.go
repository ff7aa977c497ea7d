package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/devndesk/DevReady/internal/domain"
	"github.com/devndesk/DevReady/internal/league"
	"github.com/devndesk/DevReady/internal/pool"
	"github.com/devndesk/DevReady/internal/progress"
	"github.com/devndesk/DevReady/internal/store"
	"github.com/devndesk/DevReady/internal/worker"
)

// Handler provides HTTP handlers for the flashcard API
type Handler struct {
	pool     *pool.Service
	progress *progress.Service
	league   *league.Service
	users    store.UserStore
	season   *worker.SeasonWorker
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	poolService *pool.Service,
	progressService *progress.Service,
	leagueService *league.Service,
	users store.UserStore,
	season *worker.SeasonWorker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		pool:     poolService,
		progress: progressService,
		league:   leagueService,
		users:    users,
		season:   season,
		logger:   logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/flashcards", func(r chi.Router) {
			r.Get("/random", h.GetRandomFlashcard)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{email}", h.GetUserByEmail)
			r.Post("/sync", h.SyncUser)
			r.Post("/{userID}/progress", h.UpdateProgress)
		})

		r.Route("/league", func(r chi.Router) {
			r.Get("/leaderboard", h.GetLeaderboard)
			r.Post("/rotate", h.RotateSeason)
		})
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// GetRandomFlashcard serves one adaptive multiple-choice question.
// Accepts ?category= and ?excludeIds= (repeated or comma-separated).
func (h *Handler) GetRandomFlashcard(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	var excludeIDs []string
	for _, raw := range r.URL.Query()["excludeIds"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				excludeIDs = append(excludeIDs, id)
			}
		}
	}

	question, err := h.pool.SelectQuestion(r.Context(), category, excludeIDs)
	if err != nil {
		h.logger.Error("failed to select question", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, question)
}

// progressRequest is the answer submission payload
type progressRequest struct {
	Category   string `json:"category"`
	Correct    bool   `json:"correct"`
	Difficulty string `json:"difficulty"`
}

// UpdateProgress records an answered question for a user. Fields may
// arrive as a JSON body or as query parameters.
func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req progressRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	q := r.URL.Query()
	if v := q.Get("category"); v != "" {
		req.Category = v
	}
	if v := q.Get("correct"); v != "" {
		req.Correct = v == "true"
	}
	if v := q.Get("difficulty"); v != "" {
		req.Difficulty = v
	}
	if req.Difficulty == "" {
		req.Difficulty = domain.DifficultyEasy
	}
	if req.Category == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, err := h.progress.UpdateProgress(r.Context(), userID, req.Category, req.Correct, req.Difficulty)
	if err != nil {
		if domain.IsNotFoundError(err) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to update progress", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, user)
}

// GetUserByEmail returns a user profile, creating a default one when
// the email is unknown.
func (h *Handler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		if !domain.IsNotFoundError(err) {
			h.logger.Error("failed to find user", "email", email, "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
			return
		}

		user, err = h.users.Upsert(r.Context(), &domain.User{
			Email:         email,
			Name:          "Dev User",
			Rank:          domain.RankNewbie,
			CurrentLeague: domain.LeagueBronze,
		})
		if err != nil {
			h.logger.Error("failed to create default user", "email", email, "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
			return
		}
	}

	h.writeSuccess(w, user)
}

// SyncUser upserts a user profile by email, keeping the stored identity
// when the profile already exists.
func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if user.Email == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	existing, err := h.users.FindByEmail(r.Context(), user.Email)
	if err != nil && !domain.IsNotFoundError(err) {
		h.logger.Error("failed to look up user for sync", "email", user.Email, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	if existing != nil {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	}
	if user.CurrentLeague == "" {
		user.CurrentLeague = domain.LeagueBronze
	}
	if user.Rank == "" {
		user.Rank = domain.RankForXP(user.TotalXP)
	}

	updated, err := h.users.Upsert(r.Context(), &user)
	if err != nil {
		h.logger.Error("failed to sync user", "email", user.Email, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, updated)
}

// GetLeaderboard returns a group's users ordered by weekly score.
// A missing groupId yields an empty list, not an error.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("groupId")

	users, err := h.league.GetLeaderboard(r.Context(), groupID)
	if err != nil {
		h.logger.Error("failed to get leaderboard", "group_id", groupID, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, users)
}

// RotateSeason manually triggers one season sweep
func (h *Handler) RotateSeason(w http.ResponseWriter, r *http.Request) {
	h.season.RunOnce(r.Context())
	h.writeSuccess(w, map[string]string{"status": "rotation completed"})
}
