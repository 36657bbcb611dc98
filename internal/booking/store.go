package booking

import (
	"context"

	"github.com/fkhayef/groupbook/internal/database"
)

// Store is the persistence contract for bookings and participants. Every
// method takes a database.Querier so a whole business operation runs against
// one transaction and commits or rolls back as a unit.
type Store interface {
	CreateBooking(ctx context.Context, q database.Querier, b *GroupBooking) (*GroupBooking, error)
	GetBooking(ctx context.Context, q database.Querier, id int64) (*GroupBooking, error)
	// GetBookingForUpdate loads the booking row under an exclusive row lock.
	// Every count-then-insert sequence and every settlement takes this lock
	// first so concurrent operations on one booking serialize at the store.
	GetBookingForUpdate(ctx context.Context, q database.Querier, id int64) (*GroupBooking, error)
	UpdateBookingStatus(ctx context.Context, q database.Querier, id int64, status BookingStatus) error
	MarkBookingPaid(ctx context.Context, q database.Querier, id int64, totalAmount float64, method PaymentMethod, reference *string) error
	MarkBookingCancelled(ctx context.Context, q database.Querier, id int64, notes string) error
	ListBookingsForUser(ctx context.Context, q database.Querier, userID int64) ([]*GroupBooking, error)

	CreateParticipant(ctx context.Context, q database.Querier, p *Participant) (*Participant, error)
	GetParticipant(ctx context.Context, q database.Querier, id int64) (*Participant, error)
	GetParticipantByToken(ctx context.Context, q database.Querier, token string) (*Participant, error)
	GetParticipantByUser(ctx context.Context, q database.Querier, bookingID, userID int64) (*Participant, error)
	GetParticipantByEmail(ctx context.Context, q database.Querier, bookingID int64, email string) (*Participant, error)
	ListParticipants(ctx context.Context, q database.Querier, bookingID int64) ([]*Participant, error)
	CountParticipants(ctx context.Context, q database.Querier, bookingID int64) (ParticipantCounts, error)

	AttachParticipantUser(ctx context.Context, q database.Querier, participantID, userID int64) error
	SetParticipantAccepted(ctx context.Context, q database.Querier, participantID int64) error
	SetParticipantDeclined(ctx context.Context, q database.Querier, participantID int64, reason string) error
	RecordParticipantPayment(ctx context.Context, q database.Querier, participantID int64, method PaymentMethod, reference *string, packageID *int64, hoursUsed *float64, amount float64) error
	CoverParticipants(ctx context.Context, q database.Querier, bookingID int64) (int, error)
	RefundParticipant(ctx context.Context, q database.Querier, participantID int64) error
	CancelOpenParticipants(ctx context.Context, q database.Querier, bookingID int64) error
}

// LedgerStore is the wallet/ledger collaborator. Debits and credits run
// within the caller's atomic unit via the shared Querier. A nil referenceID
// records an entry with no originating booking.
type LedgerStore interface {
	GetBalance(ctx context.Context, q database.Querier, userID int64) (float64, error)
	Debit(ctx context.Context, q database.Querier, userID int64, amount float64, reason string, referenceID *int64) (int64, error)
	Credit(ctx context.Context, q database.Querier, userID int64, amount float64, reason string, referenceID *int64) (int64, error)
}

// HoursStore is the prepaid-hours collaborator
type HoursStore interface {
	GetRemainingHours(ctx context.Context, q database.Querier, packageID, userID int64) (float64, error)
	DecrementHours(ctx context.Context, q database.Querier, packageID int64, hoursUsed float64) error
	IncrementHours(ctx context.Context, q database.Querier, packageID int64, hoursReturned float64) error
}

// DirectoryService resolves user identities and display names
type DirectoryService interface {
	ResolveByEmail(ctx context.Context, email string) (*int64, error)
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// NotificationSink accepts fire-and-forget messages addressed to users.
// Failures must never abort the enclosing business operation; the service
// logs and swallows them after its transaction has committed.
type NotificationSink interface {
	Notify(ctx context.Context, recipientID int64, title, message, kind, entityType string, entityID int64) error
	MarkProcessed(ctx context.Context, recipientID int64, entityType string, entityID int64) error
}
