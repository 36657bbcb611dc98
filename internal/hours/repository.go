package hours

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fkhayef/groupbook/internal/database"
)

// Common errors
var (
	ErrPackageNotFound   = errors.New("customer package not found")
	ErrInsufficientHours = errors.New("insufficient remaining hours")
)

// Repository handles prepaid-hours data persistence. Methods take a
// database.Querier so hour decrements can join a caller-owned transaction.
type Repository struct{}

// NewRepository creates a new hours repository
func NewRepository() *Repository {
	return &Repository{}
}

// Create inserts a purchased package for a user
func (r *Repository) Create(ctx context.Context, q database.Querier, userID int64, name string, totalHours float64, expiresAt *time.Time) (*CustomerPackage, error) {
	query := `
		INSERT INTO customer_packages (user_id, name, total_hours, remaining_hours, expires_at)
		VALUES ($1, $2, $3, $3, $4)
		RETURNING id, user_id, name, total_hours, remaining_hours, expires_at, created_at
	`

	pkg := &CustomerPackage{}
	err := q.QueryRowContext(ctx, query, userID, name, totalHours, expiresAt).Scan(
		&pkg.ID,
		&pkg.UserID,
		&pkg.Name,
		&pkg.TotalHours,
		&pkg.RemainingHours,
		&pkg.ExpiresAt,
		&pkg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer package: %w", err)
	}

	return pkg, nil
}

// GetRemainingHours returns the remaining hours on a package owned by userID
func (r *Repository) GetRemainingHours(ctx context.Context, q database.Querier, packageID, userID int64) (float64, error) {
	query := `
		SELECT remaining_hours
		FROM customer_packages
		WHERE id = $1 AND user_id = $2
	`

	var remaining float64
	err := q.QueryRowContext(ctx, query, packageID, userID).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrPackageNotFound
		}
		return 0, fmt.Errorf("failed to get remaining hours: %w", err)
	}

	return remaining, nil
}

// DecrementHours consumes hours from a package. The guard lives in the
// UPDATE so concurrent decrements can never push the balance negative.
func (r *Repository) DecrementHours(ctx context.Context, q database.Querier, packageID int64, hoursUsed float64) error {
	query := `
		UPDATE customer_packages
		SET remaining_hours = remaining_hours - $2
		WHERE id = $1 AND remaining_hours >= $2
	`

	result, err := q.ExecContext(ctx, query, packageID, hoursUsed)
	if err != nil {
		return fmt.Errorf("failed to decrement hours: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInsufficientHours
	}

	return nil
}

// IncrementHours returns hours to a package, capped at the purchased total
func (r *Repository) IncrementHours(ctx context.Context, q database.Querier, packageID int64, hoursReturned float64) error {
	query := `
		UPDATE customer_packages
		SET remaining_hours = LEAST(total_hours, remaining_hours + $2)
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query, packageID, hoursReturned)
	if err != nil {
		return fmt.Errorf("failed to increment hours: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPackageNotFound
	}

	return nil
}

// ListByUser retrieves all packages owned by a user, newest first
func (r *Repository) ListByUser(ctx context.Context, q database.Querier, userID int64) ([]*CustomerPackage, error) {
	query := `
		SELECT id, user_id, name, total_hours, remaining_hours, expires_at, created_at
		FROM customer_packages
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer packages: %w", err)
	}
	defer rows.Close()

	var packages []*CustomerPackage
	for rows.Next() {
		pkg := &CustomerPackage{}
		if err := rows.Scan(
			&pkg.ID,
			&pkg.UserID,
			&pkg.Name,
			&pkg.TotalHours,
			&pkg.RemainingHours,
			&pkg.ExpiresAt,
			&pkg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer package: %w", err)
		}
		packages = append(packages, pkg)
	}

	return packages, nil
}
