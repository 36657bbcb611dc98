package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/fkhayef/groupbook/internal/database"
)

// Accept transitions a participant to accepted. Accepting an
// already-accepted participation succeeds without mutation so callers can
// retry safely. When the last outstanding pending acceptance lands, the
// booking advances to ready-for-approval.
func (s *Service) Accept(ctx context.Context, bookingID, userID int64) (*Participant, error) {
	var accepted *Participant
	alreadyAccepted := false

	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		booking, err := s.store.GetBookingForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if booking.Status == BookingStatusCancelled {
			return ErrInvalidState
		}

		participant, err := s.store.GetParticipantByUser(ctx, q, bookingID, userID)
		if err != nil {
			return err
		}
		if participant == nil {
			return ErrParticipantNotFound
		}

		if participant.Status == ParticipantStatusAccepted {
			alreadyAccepted = true
			accepted = participant
			return nil
		}
		if !CanTransition(participant.Status, ParticipantStatusAccepted) {
			return ErrInvalidState
		}

		if err := s.store.SetParticipantAccepted(ctx, q, participant.ID); err != nil {
			return err
		}

		counts, err := s.store.CountParticipants(ctx, q, bookingID)
		if err != nil {
			return err
		}

		// This accept may have been the last outstanding one, or it may
		// have filled the final slot.
		if counts.PendingAcceptance == 0 && booking.Status == BookingStatusOpen {
			if err := s.store.UpdateBookingStatus(ctx, q, bookingID,
				advanceStatus(booking.Status, BookingStatusReadyForApproval)); err != nil {
				return err
			}
		}
		if counts.AcceptedOrPaid >= booking.MaxParticipants {
			if err := s.store.UpdateBookingStatus(ctx, q, bookingID,
				advanceStatus(booking.Status, BookingStatusFull)); err != nil {
				return err
			}
		}

		accepted, err = s.store.GetParticipant(ctx, q, participant.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !alreadyAccepted {
		// Suppress the accept/decline buttons on the invitation prompt;
		// the notification itself stays for the user's history.
		if err := s.sink.MarkProcessed(ctx, userID, entityTypeBooking, bookingID); err != nil {
			s.log.Warn("failed to mark invitation notification processed",
				zap.Int64("user_id", userID),
				zap.Int64("booking_id", bookingID),
				zap.Error(err),
			)
		}
	}

	return accepted, nil
}

// Decline transitions a participant to declined and notifies the organizer.
// Declining an already-declined participation succeeds without mutation.
func (s *Service) Decline(ctx context.Context, bookingID, userID int64, reason string) error {
	var organizerID int64
	var bookingTitle string
	alreadyDeclined := false

	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		booking, err := s.store.GetBookingForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		participant, err := s.store.GetParticipantByUser(ctx, q, bookingID, userID)
		if err != nil {
			return err
		}
		if participant == nil {
			return ErrParticipantNotFound
		}

		if participant.Status == ParticipantStatusDeclined {
			alreadyDeclined = true
			return nil
		}
		if !CanTransition(participant.Status, ParticipantStatusDeclined) {
			return ErrInvalidState
		}

		organizerID = booking.OrganizerID
		bookingTitle = booking.Title

		return s.store.SetParticipantDeclined(ctx, q, participant.ID, reason)
	})
	if err != nil || alreadyDeclined {
		return err
	}

	if err := s.sink.MarkProcessed(ctx, userID, entityTypeBooking, bookingID); err != nil {
		s.log.Warn("failed to mark invitation notification processed",
			zap.Int64("user_id", userID),
			zap.Int64("booking_id", bookingID),
			zap.Error(err),
		)
	}

	name := s.displayNameOrFallback(ctx, userID)
	s.notify(ctx, organizerID,
		"Invitation declined",
		declineMessage(name, bookingTitle, reason),
		kindParticipantDeclined, bookingID)

	return nil
}
