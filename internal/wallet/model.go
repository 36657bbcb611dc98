package wallet

import "time"

// EntryType labels the direction of a ledger transaction
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// Wallet holds a user's spendable balance
type Wallet struct {
	UserID    int64     `json:"user_id"`
	Balance   float64   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is the durable record of a single debit or credit
type Transaction struct {
	ID            int64     `json:"id"`
	ReferenceCode string    `json:"reference_code"`
	UserID        int64     `json:"user_id"`
	EntryType     EntryType `json:"entry_type"`
	Amount        float64   `json:"amount"`
	Reason        string    `json:"reason"`
	ReferenceID   *int64    `json:"reference_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
