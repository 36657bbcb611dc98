package wallet

import (
	"context"
	"database/sql"

	"github.com/fkhayef/groupbook/internal/database"
)

// Store is the persistence surface the service's own endpoints need
type Store interface {
	GetBalance(ctx context.Context, q database.Querier, userID int64) (float64, error)
	Credit(ctx context.Context, q database.Querier, userID int64, amount float64, reason string, referenceID *int64) (int64, error)
	ListTransactions(ctx context.Context, q database.Querier, userID int64, limit, offset int) ([]*Transaction, int, error)
}

// Service handles wallet business logic for the wallet's own endpoints.
// The booking core bypasses the service and talks to the repository inside
// its own transactions.
type Service struct {
	db   *sql.DB
	repo Store
}

// NewService creates a new wallet service
func NewService(db *sql.DB, repo Store) *Service {
	return &Service{db: db, repo: repo}
}

// GetBalance returns the caller's current balance
func (s *Service) GetBalance(ctx context.Context, userID int64) (float64, error) {
	return s.repo.GetBalance(ctx, s.db, userID)
}

// TopUp credits the caller's wallet. In production the amount arrives from a
// card-processor webhook; the endpoint exists so balances can be funded.
func (s *Service) TopUp(ctx context.Context, userID int64, amount float64) (int64, error) {
	return s.repo.Credit(ctx, s.db, userID, amount, "wallet top-up", nil)
}

// ListTransactions retrieves the caller's ledger history with pagination
func (s *Service) ListTransactions(ctx context.Context, userID int64, page, perPage int) ([]*Transaction, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListTransactions(ctx, s.db, userID, perPage, offset)
}
