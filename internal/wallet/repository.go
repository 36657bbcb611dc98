package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fkhayef/groupbook/internal/database"
)

// ErrInsufficientFunds is returned when a debit would overdraw the balance
var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// Repository handles wallet data persistence. Every method takes a
// database.Querier so debits and credits can join a caller-owned transaction
// and commit or roll back together with the caller's own writes.
type Repository struct{}

// NewRepository creates a new wallet repository
func NewRepository() *Repository {
	return &Repository{}
}

// GetBalance returns the spendable balance for a user. A user without a
// wallet row has a zero balance.
func (r *Repository) GetBalance(ctx context.Context, q database.Querier, userID int64) (float64, error) {
	query := `SELECT balance FROM wallets WHERE user_id = $1`

	var balance float64
	err := q.QueryRowContext(ctx, query, userID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get wallet balance: %w", err)
	}

	return balance, nil
}

// Debit withdraws amount from the user's balance and appends a transaction
// record. The balance guard lives in the UPDATE itself so two concurrent
// debits can never overdraw.
func (r *Repository) Debit(ctx context.Context, q database.Querier, userID int64, amount float64, reason string, referenceID *int64) (int64, error) {
	query := `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
	`

	result, err := q.ExecContext(ctx, query, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to debit wallet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, ErrInsufficientFunds
	}

	return r.appendTransaction(ctx, q, userID, EntryTypeDebit, amount, reason, referenceID)
}

// Credit deposits amount into the user's balance, creating the wallet row if
// needed, and appends a transaction record. A nil referenceID records a
// credit with no originating booking, such as a top-up.
func (r *Repository) Credit(ctx context.Context, q database.Querier, userID int64, amount float64, reason string, referenceID *int64) (int64, error) {
	query := `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
	`

	if _, err := q.ExecContext(ctx, query, userID, amount); err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}

	return r.appendTransaction(ctx, q, userID, EntryTypeCredit, amount, reason, referenceID)
}

// appendTransaction writes the durable ledger record for a balance mutation
func (r *Repository) appendTransaction(ctx context.Context, q database.Querier, userID int64, entryType EntryType, amount float64, reason string, referenceID *int64) (int64, error) {
	query := `
		INSERT INTO wallet_transactions (reference_code, user_id, entry_type, amount, reason, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := q.QueryRowContext(ctx, query, uuid.NewString(), userID, entryType, amount, reason, referenceID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record wallet transaction: %w", err)
	}

	return id, nil
}

// ListTransactions retrieves a user's ledger history, newest first
func (r *Repository) ListTransactions(ctx context.Context, q database.Querier, userID int64, limit, offset int) ([]*Transaction, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM wallet_transactions WHERE user_id = $1`
	if err := q.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count wallet transactions: %w", err)
	}

	query := `
		SELECT id, reference_code, user_id, entry_type, amount, reason, reference_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		txn := &Transaction{}
		if err := rows.Scan(
			&txn.ID,
			&txn.ReferenceCode,
			&txn.UserID,
			&txn.EntryType,
			&txn.Amount,
			&txn.Reason,
			&txn.ReferenceID,
			&txn.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, total, nil
}
