package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fkhayef/groupbook/internal/database"
)

const bookingColumns = `
	b.id, b.organizer_id, b.service_name, b.instructor_id, b.title, b.description,
	b.max_participants, b.min_participants, b.price_per_person,
	b.lesson_date, b.start_time, b.end_time, b.duration_minutes,
	b.registration_deadline, b.payment_deadline,
	b.payment_model, b.organizer_paid, b.total_amount,
	b.payment_method, b.payment_reference,
	b.status, b.notes, b.created_at, b.updated_at`

const participantColumns = `
	p.id, p.booking_id, p.user_id, p.is_organizer,
	p.invite_email, p.invite_name, p.invite_phone,
	p.status, p.payment_status, p.amount_due, p.amount_paid,
	p.payment_method, p.payment_reference, p.customer_package_id, p.hours_used,
	p.invite_token, p.token_expires_at,
	p.accepted_at, p.declined_at, p.decline_reason, p.paid_at, p.created_at`

// Repository is the Postgres-backed Store
type Repository struct{}

// NewRepository creates a new booking repository
func NewRepository() *Repository {
	return &Repository{}
}

func scanBooking(row interface{ Scan(dest ...any) error }, b *GroupBooking) error {
	return row.Scan(
		&b.ID, &b.OrganizerID, &b.ServiceName, &b.InstructorID, &b.Title, &b.Description,
		&b.MaxParticipants, &b.MinParticipants, &b.PricePerPerson,
		&b.LessonDate, &b.StartTime, &b.EndTime, &b.DurationMinutes,
		&b.RegistrationDeadline, &b.PaymentDeadline,
		&b.PaymentModel, &b.OrganizerPaid, &b.TotalAmount,
		&b.PaymentMethod, &b.PaymentReference,
		&b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
}

func scanParticipant(row interface{ Scan(dest ...any) error }, p *Participant) error {
	return row.Scan(
		&p.ID, &p.BookingID, &p.UserID, &p.IsOrganizer,
		&p.InviteEmail, &p.InviteName, &p.InvitePhone,
		&p.Status, &p.PaymentStatus, &p.AmountDue, &p.AmountPaid,
		&p.PaymentMethod, &p.PaymentReference, &p.CustomerPackageID, &p.HoursUsed,
		&p.InviteToken, &p.TokenExpiresAt,
		&p.AcceptedAt, &p.DeclinedAt, &p.DeclineReason, &p.PaidAt, &p.CreatedAt,
	)
}

// CreateBooking inserts a new group booking
func (r *Repository) CreateBooking(ctx context.Context, q database.Querier, b *GroupBooking) (*GroupBooking, error) {
	query := `
		INSERT INTO group_bookings AS b (
			organizer_id, service_name, instructor_id, title, description,
			max_participants, min_participants, price_per_person,
			lesson_date, start_time, end_time, duration_minutes,
			registration_deadline, payment_deadline, payment_model, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING` + bookingColumns

	created := &GroupBooking{}
	err := scanBooking(q.QueryRowContext(ctx, query,
		b.OrganizerID, b.ServiceName, b.InstructorID, b.Title, b.Description,
		b.MaxParticipants, b.MinParticipants, b.PricePerPerson,
		b.LessonDate, b.StartTime, b.EndTime, b.DurationMinutes,
		b.RegistrationDeadline, b.PaymentDeadline, b.PaymentModel, b.Status,
	), created)
	if err != nil {
		return nil, fmt.Errorf("failed to create group booking: %w", err)
	}

	return created, nil
}

// GetBooking retrieves a booking by its ID
func (r *Repository) GetBooking(ctx context.Context, q database.Querier, id int64) (*GroupBooking, error) {
	query := `SELECT` + bookingColumns + `, u.display_name AS organizer_name
		FROM group_bookings b
		JOIN users u ON b.organizer_id = u.id
		WHERE b.id = $1`

	b := &GroupBooking{}
	row := q.QueryRowContext(ctx, query, id)
	err := row.Scan(
		&b.ID, &b.OrganizerID, &b.ServiceName, &b.InstructorID, &b.Title, &b.Description,
		&b.MaxParticipants, &b.MinParticipants, &b.PricePerPerson,
		&b.LessonDate, &b.StartTime, &b.EndTime, &b.DurationMinutes,
		&b.RegistrationDeadline, &b.PaymentDeadline,
		&b.PaymentModel, &b.OrganizerPaid, &b.TotalAmount,
		&b.PaymentMethod, &b.PaymentReference,
		&b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		&b.OrganizerName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group booking: %w", err)
	}

	return b, nil
}

// GetBookingForUpdate loads a booking under FOR UPDATE. The row lock is what
// makes the capacity check-then-insert sequence atomic against concurrent
// invitations and redemptions; it is held until the surrounding transaction
// commits or rolls back.
func (r *Repository) GetBookingForUpdate(ctx context.Context, q database.Querier, id int64) (*GroupBooking, error) {
	query := `SELECT` + bookingColumns + `
		FROM group_bookings b
		WHERE b.id = $1
		FOR UPDATE`

	b := &GroupBooking{}
	if err := scanBooking(q.QueryRowContext(ctx, query, id), b); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock group booking: %w", err)
	}

	return b, nil
}

// UpdateBookingStatus sets a booking's lifecycle status
func (r *Repository) UpdateBookingStatus(ctx context.Context, q database.Querier, id int64, status BookingStatus) error {
	query := `UPDATE group_bookings SET status = $2, updated_at = NOW() WHERE id = $1`

	if _, err := q.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

// MarkBookingPaid records a completed organizer-pays settlement with the
// method and reference it was captured through, so a later cancellation can
// reverse the capture
func (r *Repository) MarkBookingPaid(ctx context.Context, q database.Querier, id int64, totalAmount float64, method PaymentMethod, reference *string) error {
	query := `
		UPDATE group_bookings
		SET organizer_paid = true, total_amount = $2,
		    payment_method = $3, payment_reference = $4,
		    status = $5, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := q.ExecContext(ctx, query, id, totalAmount, method, reference, BookingStatusConfirmed); err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	return nil
}

// MarkBookingCancelled sets the absorbing cancelled status and appends the
// cancellation reason to the booking's notes
func (r *Repository) MarkBookingCancelled(ctx context.Context, q database.Querier, id int64, notes string) error {
	query := `
		UPDATE group_bookings
		SET status = $2,
		    notes = CONCAT_WS(E'\n', notes, $3::text),
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := q.ExecContext(ctx, query, id, BookingStatusCancelled, notes); err != nil {
		return fmt.Errorf("failed to mark booking cancelled: %w", err)
	}
	return nil
}

// ListBookingsForUser retrieves every non-cancelled booking where the user is
// organizer or participant, newest scheduled first
func (r *Repository) ListBookingsForUser(ctx context.Context, q database.Querier, userID int64) ([]*GroupBooking, error) {
	query := `SELECT DISTINCT` + bookingColumns + `, u.display_name AS organizer_name
		FROM group_bookings b
		JOIN users u ON b.organizer_id = u.id
		LEFT JOIN booking_participants p ON p.booking_id = b.id
		WHERE (b.organizer_id = $1 OR p.user_id = $1)
		  AND b.status != $2
		ORDER BY b.lesson_date DESC, b.start_time DESC`

	rows, err := q.QueryContext(ctx, query, userID, BookingStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*GroupBooking
	for rows.Next() {
		b := &GroupBooking{}
		if err := rows.Scan(
			&b.ID, &b.OrganizerID, &b.ServiceName, &b.InstructorID, &b.Title, &b.Description,
			&b.MaxParticipants, &b.MinParticipants, &b.PricePerPerson,
			&b.LessonDate, &b.StartTime, &b.EndTime, &b.DurationMinutes,
			&b.RegistrationDeadline, &b.PaymentDeadline,
			&b.PaymentModel, &b.OrganizerPaid, &b.TotalAmount,
			&b.PaymentMethod, &b.PaymentReference,
			&b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
			&b.OrganizerName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, nil
}

// CreateParticipant inserts a participant row
func (r *Repository) CreateParticipant(ctx context.Context, q database.Querier, p *Participant) (*Participant, error) {
	query := `
		INSERT INTO booking_participants AS p (
			booking_id, user_id, is_organizer,
			invite_email, invite_name, invite_phone,
			status, payment_status, amount_due,
			invite_token, token_expires_at, accepted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING` + participantColumns

	created := &Participant{}
	err := scanParticipant(q.QueryRowContext(ctx, query,
		p.BookingID, p.UserID, p.IsOrganizer,
		p.InviteEmail, p.InviteName, p.InvitePhone,
		p.Status, p.PaymentStatus, p.AmountDue,
		p.InviteToken, p.TokenExpiresAt, p.AcceptedAt,
	), created)
	if err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	return created, nil
}

// GetParticipant retrieves a participant by its ID
func (r *Repository) GetParticipant(ctx context.Context, q database.Querier, id int64) (*Participant, error) {
	query := `SELECT` + participantColumns + `
		FROM booking_participants p
		WHERE p.id = $1`

	p := &Participant{}
	if err := scanParticipant(q.QueryRowContext(ctx, query, id), p); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return p, nil
}

// GetParticipantByToken retrieves a participant by its invitation token
func (r *Repository) GetParticipantByToken(ctx context.Context, q database.Querier, token string) (*Participant, error) {
	query := `SELECT` + participantColumns + `
		FROM booking_participants p
		WHERE p.invite_token = $1`

	p := &Participant{}
	if err := scanParticipant(q.QueryRowContext(ctx, query, token), p); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant by token: %w", err)
	}

	return p, nil
}

// GetParticipantByUser retrieves a booking's participant row for a user
func (r *Repository) GetParticipantByUser(ctx context.Context, q database.Querier, bookingID, userID int64) (*Participant, error) {
	query := `SELECT` + participantColumns + `
		FROM booking_participants p
		WHERE p.booking_id = $1 AND p.user_id = $2`

	p := &Participant{}
	if err := scanParticipant(q.QueryRowContext(ctx, query, bookingID, userID), p); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant by user: %w", err)
	}

	return p, nil
}

// GetParticipantByEmail retrieves a booking's participant row for an invited
// email address, used for invite idempotency
func (r *Repository) GetParticipantByEmail(ctx context.Context, q database.Querier, bookingID int64, email string) (*Participant, error) {
	query := `SELECT` + participantColumns + `
		FROM booking_participants p
		WHERE p.booking_id = $1 AND lower(p.invite_email) = lower($2)`

	p := &Participant{}
	if err := scanParticipant(q.QueryRowContext(ctx, query, bookingID, email), p); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant by email: %w", err)
	}

	return p, nil
}

// ListParticipants retrieves all participants of a booking, organizer first
func (r *Repository) ListParticipants(ctx context.Context, q database.Querier, bookingID int64) ([]*Participant, error) {
	query := `SELECT` + participantColumns + `, COALESCE(u.display_name, p.invite_name, p.invite_email, '') AS display_name
		FROM booking_participants p
		LEFT JOIN users u ON p.user_id = u.id
		WHERE p.booking_id = $1
		ORDER BY p.is_organizer DESC, p.created_at ASC`

	rows, err := q.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*Participant
	for rows.Next() {
		p := &Participant{}
		if err := rows.Scan(
			&p.ID, &p.BookingID, &p.UserID, &p.IsOrganizer,
			&p.InviteEmail, &p.InviteName, &p.InvitePhone,
			&p.Status, &p.PaymentStatus, &p.AmountDue, &p.AmountPaid,
			&p.PaymentMethod, &p.PaymentReference, &p.CustomerPackageID, &p.HoursUsed,
			&p.InviteToken, &p.TokenExpiresAt,
			&p.AcceptedAt, &p.DeclinedAt, &p.DeclineReason, &p.PaidAt, &p.CreatedAt,
			&p.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// CountParticipants computes the capacity-relevant counts in one snapshot
func (r *Repository) CountParticipants(ctx context.Context, q database.Querier, bookingID int64) (ParticipantCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status NOT IN ($2, $3))             AS non_terminal,
			COUNT(*) FILTER (WHERE status IN ($4, $5))                 AS accepted_or_paid,
			COUNT(*) FILTER (WHERE status = $5)                        AS paid,
			COUNT(*) FILTER (WHERE status = $6)                        AS pending_acceptance
		FROM booking_participants
		WHERE booking_id = $1
	`

	var counts ParticipantCounts
	err := q.QueryRowContext(ctx, query, bookingID,
		ParticipantStatusDeclined, ParticipantStatusCancelled,
		ParticipantStatusAccepted, ParticipantStatusPaid,
		ParticipantStatusPendingAcceptance,
	).Scan(&counts.NonTerminal, &counts.AcceptedOrPaid, &counts.Paid, &counts.PendingAcceptance)
	if err != nil {
		return ParticipantCounts{}, fmt.Errorf("failed to count participants: %w", err)
	}

	return counts, nil
}

// AttachParticipantUser redeems a token invitation: the row gains the
// registered identity and moves to accepted in one statement.
func (r *Repository) AttachParticipantUser(ctx context.Context, q database.Querier, participantID, userID int64) error {
	query := `
		UPDATE booking_participants
		SET user_id = $2, status = $3, accepted_at = NOW()
		WHERE id = $1
	`

	if _, err := q.ExecContext(ctx, query, participantID, userID, ParticipantStatusAccepted); err != nil {
		return fmt.Errorf("failed to redeem invitation: %w", err)
	}
	return nil
}

// SetParticipantAccepted moves a participant to accepted
func (r *Repository) SetParticipantAccepted(ctx context.Context, q database.Querier, participantID int64) error {
	query := `
		UPDATE booking_participants
		SET status = $2, accepted_at = NOW()
		WHERE id = $1
	`

	if _, err := q.ExecContext(ctx, query, participantID, ParticipantStatusAccepted); err != nil {
		return fmt.Errorf("failed to accept participant: %w", err)
	}
	return nil
}

// SetParticipantDeclined moves a participant to declined with a reason
func (r *Repository) SetParticipantDeclined(ctx context.Context, q database.Querier, participantID int64, reason string) error {
	query := `
		UPDATE booking_participants
		SET status = $2, declined_at = NOW(), decline_reason = NULLIF($3, '')
		WHERE id = $1
	`

	if _, err := q.ExecContext(ctx, query, participantID, ParticipantStatusDeclined, reason); err != nil {
		return fmt.Errorf("failed to decline participant: %w", err)
	}
	return nil
}

// RecordParticipantPayment marks a participant paid with the captured amount,
// method and reference
func (r *Repository) RecordParticipantPayment(ctx context.Context, q database.Querier, participantID int64, method PaymentMethod, reference *string, packageID *int64, hoursUsed *float64, amount float64) error {
	query := `
		UPDATE booking_participants
		SET status = $2, payment_status = $3, amount_paid = $4,
		    payment_method = $5, payment_reference = $6, customer_package_id = $7,
		    hours_used = $8, paid_at = NOW()
		WHERE id = $1
	`

	_, err := q.ExecContext(ctx, query, participantID,
		ParticipantStatusPaid, PaymentStatusPaid, amount, method, reference, packageID, hoursUsed)
	if err != nil {
		return fmt.Errorf("failed to record participant payment: %w", err)
	}
	return nil
}

// CoverParticipants marks every accepted or paid participant of a booking as
// covered by the organizer. Returns the number of rows covered.
func (r *Repository) CoverParticipants(ctx context.Context, q database.Querier, bookingID int64) (int, error) {
	query := `
		UPDATE booking_participants
		SET status = $2, payment_status = $3, amount_paid = amount_due, paid_at = NOW()
		WHERE booking_id = $1 AND status IN ($4, $2)
	`

	result, err := q.ExecContext(ctx, query, bookingID,
		ParticipantStatusPaid, PaymentStatusCoveredByOrganizer, ParticipantStatusAccepted)
	if err != nil {
		return 0, fmt.Errorf("failed to cover participants: %w", err)
	}

	covered, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(covered), nil
}

// RefundParticipant flips a paid participant's payment status to refunded
func (r *Repository) RefundParticipant(ctx context.Context, q database.Querier, participantID int64) error {
	query := `
		UPDATE booking_participants
		SET payment_status = $2
		WHERE id = $1
	`

	if _, err := q.ExecContext(ctx, query, participantID, PaymentStatusRefunded); err != nil {
		return fmt.Errorf("failed to refund participant: %w", err)
	}
	return nil
}

// CancelOpenParticipants moves every non-terminal participant of a booking to
// cancelled
func (r *Repository) CancelOpenParticipants(ctx context.Context, q database.Querier, bookingID int64) error {
	query := `
		UPDATE booking_participants
		SET status = $2
		WHERE booking_id = $1 AND status NOT IN ($3, $2)
	`

	if _, err := q.ExecContext(ctx, query, bookingID,
		ParticipantStatusCancelled, ParticipantStatusDeclined); err != nil {
		return fmt.Errorf("failed to cancel participants: %w", err)
	}
	return nil
}
