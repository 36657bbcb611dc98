package booking

import (
	"context"
	"errors"
	"strconv"

	"github.com/fkhayef/groupbook/internal/database"
	"github.com/fkhayef/groupbook/internal/hours"
	"github.com/fkhayef/groupbook/internal/wallet"
)

// Ledger reasons recorded on wallet transactions
const (
	reasonBookingPayment = "group booking payment"
	reasonGroupPayment   = "group booking payment (organizer pays)"
	reasonBookingRefund  = "group booking refund"
	reasonGroupRefund    = "group booking refund (organizer pays)"
)

// SettleParticipant captures an individual participant's payment. The
// balance/hours mutation and the participant/booking status change commit
// together; a failure at any step leaves neither a stranded charge nor a
// half-paid participant.
func (s *Service) SettleParticipant(ctx context.Context, participantID, userID int64, req *SettleRequest) (*SettlementResponse, error) {
	var resp *SettlementResponse
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		participant, err := s.store.GetParticipant(ctx, q, participantID)
		if err != nil {
			return err
		}
		if participant == nil || participant.UserID == nil || *participant.UserID != userID {
			return ErrParticipantNotFound
		}

		booking, err := s.store.GetBookingForUpdate(ctx, q, participant.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if booking.PaymentModel != PaymentModelIndividual {
			return ErrWrongPaymentModel
		}
		if isTerminalBooking(booking.Status) {
			return ErrInvalidState
		}
		if participant.PaymentStatus == PaymentStatusPaid || participant.PaymentStatus == PaymentStatusCoveredByOrganizer {
			return ErrAlreadyPaid
		}
		if !CanTransition(participant.Status, ParticipantStatusPaid) {
			return ErrInvalidState
		}

		reference, packageID, hoursUsed, err := s.capture(ctx, q, booking, userID, participant.AmountDue, req)
		if err != nil {
			return err
		}

		if err := s.store.RecordParticipantPayment(ctx, q, participantID, req.Method, reference, packageID, hoursUsed, participant.AmountDue); err != nil {
			return err
		}

		status := booking.Status
		counts, err := s.store.CountParticipants(ctx, q, booking.ID)
		if err != nil {
			return err
		}
		if counts.Paid >= booking.MinParticipants {
			status = advanceStatus(booking.Status, BookingStatusConfirmed)
			if status != booking.Status {
				if err := s.store.UpdateBookingStatus(ctx, q, booking.ID, status); err != nil {
					return err
				}
			}
		}

		resp = &SettlementResponse{
			ParticipantID: participantID,
			BookingID:     booking.ID,
			AmountPaid:    participant.AmountDue,
			Method:        string(req.Method),
			BookingStatus: string(status),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// capture executes the method-specific charge and returns the payment
// reference, package and hours used, if any
func (s *Service) capture(ctx context.Context, q database.Querier, booking *GroupBooking, userID int64, amount float64, req *SettleRequest) (*string, *int64, *float64, error) {
	switch req.Method {
	case PaymentMethodWallet:
		if amount > 0 {
			balance, err := s.ledger.GetBalance(ctx, q, userID)
			if err != nil {
				return nil, nil, nil, err
			}
			if balance < amount {
				return nil, nil, nil, ErrInsufficientFunds
			}

			txnID, err := s.ledger.Debit(ctx, q, userID, amount, reasonBookingPayment, &booking.ID)
			if err != nil {
				if errors.Is(err, wallet.ErrInsufficientFunds) {
					return nil, nil, nil, ErrInsufficientFunds
				}
				return nil, nil, nil, err
			}
			reference := "wallet:" + strconv.FormatInt(txnID, 10)
			return &reference, nil, nil, nil
		}
		return nil, nil, nil, nil

	case PaymentMethodPackage:
		if req.CustomerPackageID == nil || req.HoursUsed == nil || *req.HoursUsed <= 0 {
			return nil, nil, nil, ErrMissingPackage
		}

		remaining, err := s.hours.GetRemainingHours(ctx, q, *req.CustomerPackageID, userID)
		if err != nil {
			if errors.Is(err, hours.ErrPackageNotFound) {
				return nil, nil, nil, ErrMissingPackage
			}
			return nil, nil, nil, err
		}
		if remaining < *req.HoursUsed {
			return nil, nil, nil, ErrInsufficientHours
		}

		if err := s.hours.DecrementHours(ctx, q, *req.CustomerPackageID, *req.HoursUsed); err != nil {
			if errors.Is(err, hours.ErrInsufficientHours) {
				return nil, nil, nil, ErrInsufficientHours
			}
			return nil, nil, nil, err
		}
		reference := "package:" + strconv.FormatInt(*req.CustomerPackageID, 10)
		return &reference, req.CustomerPackageID, req.HoursUsed, nil

	case PaymentMethodExternal:
		// The charge was authorized elsewhere; only the reference is kept.
		if req.ExternalReference == nil || *req.ExternalReference == "" {
			return nil, nil, nil, ErrMissingReference
		}
		return req.ExternalReference, nil, nil, nil

	default:
		return nil, nil, nil, ErrUnknownMethod
	}
}

// SettleOrganizer captures one payment for the whole group under the
// organizer-pays model. The total is recomputed from the current
// non-terminal head count at settlement time, and every accepted
// participant flips to covered in the same atomic unit, so partial coverage
// is never observable.
func (s *Service) SettleOrganizer(ctx context.Context, bookingID, organizerID int64, req *SettleGroupRequest) (*SettlementResponse, error) {
	var resp *SettlementResponse
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		booking, err := s.store.GetBookingForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if booking == nil || booking.OrganizerID != organizerID {
			return ErrBookingNotFound
		}
		if booking.PaymentModel != PaymentModelOrganizerPays {
			return ErrWrongPaymentModel
		}
		if booking.OrganizerPaid {
			return ErrAlreadyPaid
		}
		if isTerminalBooking(booking.Status) {
			return ErrInvalidState
		}

		counts, err := s.store.CountParticipants(ctx, q, bookingID)
		if err != nil {
			return err
		}
		totalAmount := booking.PricePerPerson * float64(counts.NonTerminal)

		var reference *string
		switch req.Method {
		case PaymentMethodWallet:
			if totalAmount > 0 {
				balance, err := s.ledger.GetBalance(ctx, q, organizerID)
				if err != nil {
					return err
				}
				if balance < totalAmount {
					return ErrInsufficientFunds
				}
				txnID, err := s.ledger.Debit(ctx, q, organizerID, totalAmount, reasonGroupPayment, &bookingID)
				if err != nil {
					if errors.Is(err, wallet.ErrInsufficientFunds) {
						return ErrInsufficientFunds
					}
					return err
				}
				ref := "wallet:" + strconv.FormatInt(txnID, 10)
				reference = &ref
			}
		case PaymentMethodExternal:
			if req.ExternalReference == nil || *req.ExternalReference == "" {
				return ErrMissingReference
			}
			reference = req.ExternalReference
		default:
			return ErrUnknownMethod
		}

		if err := s.store.MarkBookingPaid(ctx, q, bookingID, totalAmount, req.Method, reference); err != nil {
			return err
		}

		covered, err := s.store.CoverParticipants(ctx, q, bookingID)
		if err != nil {
			return err
		}

		resp = &SettlementResponse{
			BookingID:     bookingID,
			AmountPaid:    totalAmount,
			Method:        string(req.Method),
			BookingStatus: string(BookingStatusConfirmed),
			CoveredCount:  covered,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
