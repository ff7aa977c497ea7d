// Package store defines the narrow persistence ports consumed by the
// engines. Implementations live elsewhere (internal/postgres); the
// engines never see query-builder idioms, only these operations.
package store

import (
	"context"

	"github.com/devndesk/DevReady/internal/domain"
)

// UserStore is the persistence port for user records.
// FindByID and FindByEmail return domain.ErrUserNotFound when the
// record is absent.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByLeagueGroup(ctx context.Context, groupID string) ([]domain.User, error)
	// FindGroupedByLeague returns users in the given league that
	// already have a group assigned.
	FindGroupedByLeague(ctx context.Context, league domain.League) ([]domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Upsert(ctx context.Context, user *domain.User) (*domain.User, error)
}

// QuestionStore is the persistence port for the question pool.
type QuestionStore interface {
	CountByCategory(ctx context.Context, category string, excludeIDs []string) (int64, error)
	// SampleByCategory returns up to n random questions in a category,
	// skipping the excluded ids.
	SampleByCategory(ctx context.Context, category string, excludeIDs []string, n int) ([]domain.Question, error)
	BulkUpsert(ctx context.Context, questions []domain.Question) error
}
