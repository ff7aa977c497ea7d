package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devndesk/DevReady/internal/config"
	"github.com/devndesk/DevReady/internal/domain"
)

// Repository provides PostgreSQL-based data access for users and the
// question pool. It implements store.UserStore and store.QuestionStore.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations creates the database schema if it doesn't exist
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			"position" TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			"rank" TEXT NOT NULL DEFAULT 'NEWBIE',
			total_xp INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			questions_solved INTEGER NOT NULL DEFAULT 0,
			last_activity_date TEXT NOT NULL DEFAULT '',
			mastery JSONB,
			badges JSONB,
			current_league TEXT NOT NULL DEFAULT 'BRONZE',
			league_group_id TEXT NOT NULL DEFAULT '',
			weekly_score INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_league_group ON users (league_group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_current_league ON users (current_league)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'Medium',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_category ON questions (category)`,
	}

	for _, migration := range migrations {
		if _, err := r.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

const userColumns = `id, name, "position", email, phone, avatar_url, "rank",
	total_xp, current_streak, longest_streak, questions_solved, last_activity_date,
	mastery, badges, current_league, league_group_id, weekly_score, created_at, updated_at`

// rowScanner abstracts pgx.Row and pgx.Rows for scanUser
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var masteryJSON, badgesJSON []byte
	err := row.Scan(
		&u.ID, &u.Name, &u.Position, &u.Email, &u.Phone, &u.AvatarURL, &u.Rank,
		&u.TotalXP, &u.CurrentStreak, &u.LongestStreak, &u.QuestionsSolved, &u.LastActivityDate,
		&masteryJSON, &badgesJSON, &u.CurrentLeague, &u.LeagueGroupID, &u.WeeklyScore,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(masteryJSON) > 0 {
		if err := json.Unmarshal(masteryJSON, &u.Mastery); err != nil {
			return nil, fmt.Errorf("unmarshaling mastery: %w", err)
		}
	}
	if len(badgesJSON) > 0 {
		if err := json.Unmarshal(badgesJSON, &u.Badges); err != nil {
			return nil, fmt.Errorf("unmarshaling badges: %w", err)
		}
	}
	return &u, nil
}

// FindByID retrieves a user by id
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user by id: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by email
func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return user, nil
}

// FindByLeagueGroup retrieves all users assigned to a league group
func (r *Repository) FindByLeagueGroup(ctx context.Context, groupID string) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE league_group_id = $1`
	return r.queryUsers(ctx, query, groupID)
}

// FindGroupedByLeague retrieves users in a league that already have a
// group assigned
func (r *Repository) FindGroupedByLeague(ctx context.Context, league domain.League) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE current_league = $1 AND league_group_id <> ''`
	return r.queryUsers(ctx, query, string(league))
}

// FindAll retrieves every user record
func (r *Repository) FindAll(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	return r.queryUsers(ctx, query)
}

func (r *Repository) queryUsers(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// Upsert inserts or updates a user record. New records without an id
// are assigned one.
func (r *Repository) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now()
	if user.ID == "" {
		user.ID = uuid.NewString()
		user.CreatedAt = now
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	masteryJSON, err := json.Marshal(user.Mastery)
	if err != nil {
		return nil, fmt.Errorf("marshaling mastery: %w", err)
	}
	badgesJSON, err := json.Marshal(user.Badges)
	if err != nil {
		return nil, fmt.Errorf("marshaling badges: %w", err)
	}

	query := `
		INSERT INTO users (id, name, "position", email, phone, avatar_url, "rank",
			total_xp, current_streak, longest_streak, questions_solved, last_activity_date,
			mastery, badges, current_league, league_group_id, weekly_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			name = $2, "position" = $3, email = $4, phone = $5, avatar_url = $6, "rank" = $7,
			total_xp = $8, current_streak = $9, longest_streak = $10, questions_solved = $11,
			last_activity_date = $12, mastery = $13, badges = $14, current_league = $15,
			league_group_id = $16, weekly_score = $17, updated_at = $19
	`
	_, err = r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Position, user.Email, user.Phone, user.AvatarURL, user.Rank,
		user.TotalXP, user.CurrentStreak, user.LongestStreak, user.QuestionsSolved, user.LastActivityDate,
		masteryJSON, badgesJSON, string(user.CurrentLeague), user.LeagueGroupID, user.WeeklyScore,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return user, nil
}

// CountByCategory counts pool questions in a category, skipping the
// excluded ids
func (r *Repository) CountByCategory(ctx context.Context, category string, excludeIDs []string) (int64, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	query := `SELECT COUNT(*) FROM questions WHERE category = $1 AND id <> ALL($2)`
	var count int64
	if err := r.pool.QueryRow(ctx, query, category, excludeIDs).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return count, nil
}

// SampleByCategory returns up to n random questions in a category,
// skipping the excluded ids
func (r *Repository) SampleByCategory(ctx context.Context, category string, excludeIDs []string, n int) ([]domain.Question, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	query := `
		SELECT id, category, question, answer, difficulty
		FROM questions
		WHERE category = $1 AND id <> ALL($2)
		ORDER BY random()
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, category, excludeIDs, n)
	if err != nil {
		return nil, fmt.Errorf("sampling questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Category, &q.Text, &q.Answer, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// BulkUpsert inserts a batch of generated questions. Questions are
// immutable once persisted, so id conflicts are left untouched.
func (r *Repository) BulkUpsert(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO questions (id, category, question, answer, difficulty)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	for _, q := range questions {
		batch.Queue(query, q.ID, q.Category, q.Text, q.Answer, q.NormalizedDifficulty())
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range questions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch upserting questions: %w", err)
		}
	}
	return nil
}
