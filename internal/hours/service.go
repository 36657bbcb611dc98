package hours

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrInvalidHours is returned when a purchase requests a non-positive block
var ErrInvalidHours = errors.New("package hours must be positive")

// Service handles prepaid-package business logic for the package endpoints.
// The booking core uses the repository directly inside its own transactions.
type Service struct {
	db   *sql.DB
	repo *Repository
}

// NewService creates a new hours service
func NewService(db *sql.DB, repo *Repository) *Service {
	return &Service{db: db, repo: repo}
}

// Purchase creates a prepaid package for the caller
func (s *Service) Purchase(ctx context.Context, userID int64, name string, totalHours float64, expiresAt *time.Time) (*CustomerPackage, error) {
	if totalHours <= 0 {
		return nil, ErrInvalidHours
	}

	return s.repo.Create(ctx, s.db, userID, name, totalHours, expiresAt)
}

// ListByUser retrieves the caller's packages
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*CustomerPackage, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}
