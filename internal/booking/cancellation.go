package booking

import (
	"context"
	"fmt"

	"github.com/fkhayef/groupbook/internal/database"
)

// Cancel terminates a booking, reverses captured payments and moves every
// open participant to a terminal state. All refunds issue inside one
// transaction; a failure partway rolls back every refund from this call.
func (s *Service) Cancel(ctx context.Context, bookingID, organizerID int64, req *CancelRequest) (*CancellationResponse, error) {
	var (
		resp     *CancellationResponse
		affected []*Participant
		title    string
	)
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		booking, err := s.store.GetBookingForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if booking == nil || booking.OrganizerID != organizerID {
			return ErrBookingNotFound
		}
		if isTerminalBooking(booking.Status) {
			return ErrInvalidState
		}

		participants, err := s.store.ListParticipants(ctx, q, bookingID)
		if err != nil {
			return err
		}

		refunded := 0

		// Under organizer-pays the capture lives on the booking row, not on
		// any participant. A wallet capture is credited back in full; an
		// external capture is reversed outside the system.
		groupRefunded := false
		if booking.OrganizerPaid && booking.PaymentMethod != nil && *booking.PaymentMethod == PaymentMethodWallet {
			if booking.TotalAmount != nil && *booking.TotalAmount > 0 {
				if _, err := s.ledger.Credit(ctx, q, booking.OrganizerID, *booking.TotalAmount, reasonGroupRefund, &bookingID); err != nil {
					return err
				}
				refunded++
			}
			groupRefunded = true
		}

		for _, p := range participants {
			if p.PaymentStatus == PaymentStatusCoveredByOrganizer {
				if groupRefunded {
					if err := s.store.RefundParticipant(ctx, q, p.ID); err != nil {
						return err
					}
				}
				continue
			}
			if p.PaymentStatus != PaymentStatusPaid || p.PaymentMethod == nil {
				continue
			}

			switch *p.PaymentMethod {
			case PaymentMethodWallet:
				if p.UserID == nil || p.AmountPaid <= 0 {
					continue
				}
				if _, err := s.ledger.Credit(ctx, q, *p.UserID, p.AmountPaid, reasonBookingRefund, &bookingID); err != nil {
					return err
				}
			case PaymentMethodPackage:
				if p.CustomerPackageID == nil || p.HoursUsed == nil || *p.HoursUsed <= 0 {
					continue
				}
				if err := s.hours.IncrementHours(ctx, q, *p.CustomerPackageID, *p.HoursUsed); err != nil {
					return err
				}
			default:
				// Externally captured payments are reversed outside the system.
				continue
			}

			if err := s.store.RefundParticipant(ctx, q, p.ID); err != nil {
				return err
			}
			refunded++
		}

		if err := s.store.CancelOpenParticipants(ctx, q, bookingID); err != nil {
			return err
		}

		reason := ""
		if req != nil {
			reason = req.Reason
		}
		if err := s.store.MarkBookingCancelled(ctx, q, bookingID, cancellationNote(reason)); err != nil {
			return err
		}

		title = booking.Title
		affected = participants
		resp = &CancellationResponse{BookingID: bookingID, RefundedCount: refunded}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range affected {
		if p.UserID == nil || p.IsOrganizer {
			continue
		}
		if p.Status == ParticipantStatusDeclined || p.Status == ParticipantStatusCancelled {
			continue
		}
		message := fmt.Sprintf("The group booking %q has been cancelled by the organizer.", title)
		if p.PaymentStatus == PaymentStatusPaid {
			message += " Your payment has been refunded."
		}
		s.notify(ctx, *p.UserID, "Booking cancelled", message, kindBookingCancelled, bookingID)
	}

	return resp, nil
}

func cancellationNote(reason string) string {
	if reason == "" {
		return "Cancelled by organizer"
	}
	return "Cancelled: " + reason
}
