package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/fkhayef/groupbook/internal/database"
)

// entityTypeBooking tags notifications that reference a group booking
const entityTypeBooking = "GROUP_BOOKING"

// Service orchestrates group bookings: creation, invitations, participant
// state transitions, settlement and cancellation. Every mutating operation
// runs inside one transaction owned by the TxRunner; the booking row lock
// taken at the start of each unit serializes concurrent operations on the
// same booking.
type Service struct {
	txr       database.TxRunner
	store     Store
	ledger    LedgerStore
	hours     HoursStore
	directory DirectoryService
	sink      NotificationSink
	log       *zap.Logger
}

// NewService creates a new booking service
func NewService(txr database.TxRunner, store Store, ledger LedgerStore, hours HoursStore, directory DirectoryService, sink NotificationSink, log *zap.Logger) *Service {
	return &Service{
		txr:       txr,
		store:     store,
		ledger:    ledger,
		hours:     hours,
		directory: directory,
		sink:      sink,
		log:       log,
	}
}

// Create creates a group booking in pending status with the organizer
// registered as the first, auto-accepted participant.
func (s *Service) Create(ctx context.Context, organizerID int64, req *CreateBookingRequest) (*GroupBooking, error) {
	if req.MinParticipants < 1 || req.MaxParticipants < 1 || req.MinParticipants > req.MaxParticipants {
		return nil, ErrInvalidCapacity
	}
	if req.PricePerPerson < 0 {
		return nil, ErrNegativePrice
	}
	if req.PaymentModel != PaymentModelIndividual && req.PaymentModel != PaymentModelOrganizerPays {
		return nil, ErrInvalidPaymentType
	}

	var created *GroupBooking
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		booking := &GroupBooking{
			OrganizerID:          organizerID,
			ServiceName:          req.ServiceName,
			InstructorID:         req.InstructorID,
			Title:                req.Title,
			Description:          req.Description,
			MaxParticipants:      req.MaxParticipants,
			MinParticipants:      req.MinParticipants,
			PricePerPerson:       req.PricePerPerson,
			LessonDate:           req.LessonDate,
			StartTime:            req.StartTime,
			EndTime:              req.EndTime,
			DurationMinutes:      req.DurationMinutes,
			RegistrationDeadline: req.RegistrationDeadline,
			PaymentDeadline:      req.PaymentDeadline,
			PaymentModel:         req.PaymentModel,
			Status:               BookingStatusPending,
		}

		var err error
		created, err = s.store.CreateBooking(ctx, q, booking)
		if err != nil {
			return err
		}

		// The organizer is billed through the group total under
		// organizer-pays, not through their own row.
		amountDue := req.PricePerPerson
		if req.PaymentModel == PaymentModelOrganizerPays {
			amountDue = 0
		}

		now := created.CreatedAt
		organizer := &Participant{
			BookingID:     created.ID,
			UserID:        &organizerID,
			IsOrganizer:   true,
			Status:        ParticipantStatusAccepted,
			PaymentStatus: PaymentStatusPending,
			AmountDue:     amountDue,
			AcceptedAt:    &now,
		}

		_, err = s.store.CreateParticipant(ctx, q, organizer)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetDetails returns a booking with its composed participant list.
// Invitation tokens are visible only to the organizer.
func (s *Service) GetDetails(ctx context.Context, bookingID, viewerID int64) (*BookingResponse, error) {
	var resp *BookingResponse
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		booking, err := s.store.GetBooking(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		participants, err := s.store.ListParticipants(ctx, q, bookingID)
		if err != nil {
			return err
		}

		resp = composeDetails(booking, participants, viewerID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// composeDetails assembles the booking view with derived counts
func composeDetails(booking *GroupBooking, participants []*Participant, viewerID int64) *BookingResponse {
	resp := booking.ToResponse()
	includeTokens := viewerID == booking.OrganizerID

	resp.Participants = make([]*ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		if p.CountsTowardCapacity() {
			resp.ParticipantCount++
		}
		if p.Status == ParticipantStatusPaid {
			resp.PaidCount++
		}
		resp.Participants = append(resp.Participants, p.ToResponse(includeTokens))
	}

	return resp
}

// ListForUser returns every non-cancelled booking the user organizes or
// participates in, newest scheduled first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*BookingResponse, error) {
	var bookings []*GroupBooking
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		var err error
		bookings, err = s.store.ListBookingsForUser(ctx, q, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := make([]*BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = b.ToResponse()
	}

	return resp, nil
}

// notify delivers a best-effort notification after the owning transaction has
// committed. Sink failures are logged and swallowed; they never fail the
// business operation that triggered them.
func (s *Service) notify(ctx context.Context, recipientID int64, title, message, kind string, bookingID int64) {
	if err := s.sink.Notify(ctx, recipientID, title, message, kind, entityTypeBooking, bookingID); err != nil {
		s.log.Warn("notification delivery failed",
			zap.Int64("recipient_id", recipientID),
			zap.Int64("booking_id", bookingID),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
}

// displayNameOrFallback resolves a user's display name, falling back to a
// generic label when the directory lookup fails
func (s *Service) displayNameOrFallback(ctx context.Context, userID int64) string {
	name, err := s.directory.DisplayName(ctx, userID)
	if err != nil || name == "" {
		s.log.Warn("directory lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return "A participant"
	}
	return name
}
