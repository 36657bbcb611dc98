package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fkhayef/groupbook/internal/database"
)

// Notification kinds emitted by the booking core
const (
	kindBookingInvite       = "BOOKING_INVITE"
	kindParticipantDeclined = "PARTICIPANT_DECLINED"
	kindBookingCancelled    = "BOOKING_CANCELLED"
)

// Invite creates token-based invitations for a batch of email candidates.
// The whole batch is admitted or rejected: if the remaining capacity cannot
// hold every new candidate the call fails with ErrCapacityExceeded and no
// rows are created. The capacity check and the inserts run under the
// booking's row lock, so two concurrent batches cannot both see the same
// free slots.
func (s *Service) Invite(ctx context.Context, bookingID, invitedBy int64, candidates []InviteCandidate) ([]*Participant, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	var created []*Participant
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		booking, err := s.store.GetBookingForUpdate(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if booking.OrganizerID != invitedBy {
			return ErrBookingNotFound
		}
		if isTerminalBooking(booking.Status) {
			return ErrInvalidState
		}

		// Re-inviting an email already on the booking is a silent skip,
		// so dedupe before the capacity math.
		fresh := make([]InviteCandidate, 0, len(candidates))
		seen := make(map[string]bool, len(candidates))
		for _, c := range candidates {
			email := strings.ToLower(strings.TrimSpace(c.Email))
			if email == "" || seen[email] {
				continue
			}
			seen[email] = true

			existing, err := s.store.GetParticipantByEmail(ctx, q, bookingID, email)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			c.Email = email
			fresh = append(fresh, c)
		}
		if len(fresh) == 0 {
			return nil
		}

		counts, err := s.store.CountParticipants(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if counts.NonTerminal+len(fresh) > booking.MaxParticipants {
			return ErrCapacityExceeded
		}

		expiry := time.Now().Add(InviteTokenTTL)
		for _, c := range fresh {
			token, err := newInviteToken()
			if err != nil {
				return err
			}

			// An invitee with an existing account is attached right away;
			// the token still drives their acceptance.
			userID, err := s.directory.ResolveByEmail(ctx, c.Email)
			if err != nil {
				return err
			}

			email := c.Email
			participant := &Participant{
				BookingID:      bookingID,
				UserID:         userID,
				InviteEmail:    &email,
				InviteName:     c.Name,
				InvitePhone:    c.Phone,
				Status:         ParticipantStatusInvited,
				PaymentStatus:  PaymentStatusPending,
				AmountDue:      booking.PricePerPerson,
				InviteToken:    &token,
				TokenExpiresAt: &expiry,
			}

			row, err := s.store.CreateParticipant(ctx, q, participant)
			if err != nil {
				return err
			}
			created = append(created, row)
		}

		return s.maybeOpen(ctx, q, booking, counts.NonTerminal+len(fresh))
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// AddByIdentity registers already-known users as participants awaiting their
// acceptance. Same capacity discipline as Invite; each newly added user gets
// an actionable accept/decline notification after commit.
func (s *Service) AddByIdentity(ctx context.Context, bookingID, organizerID int64, userIDs []int64) ([]*Participant, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoCandidates
	}

	var created []*Participant
	var title string
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
		title = booking.Title

		fresh := make([]int64, 0, len(userIDs))
		seen := make(map[int64]bool, len(userIDs))
		for _, userID := range userIDs {
			if userID == organizerID || seen[userID] {
				continue
			}
			seen[userID] = true

			existing, err := s.store.GetParticipantByUser(ctx, q, bookingID, userID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			fresh = append(fresh, userID)
		}
		if len(fresh) == 0 {
			return nil
		}

		counts, err := s.store.CountParticipants(ctx, q, bookingID)
		if err != nil {
			return err
		}
		if counts.NonTerminal+len(fresh) > booking.MaxParticipants {
			return ErrCapacityExceeded
		}

		for _, userID := range fresh {
			uid := userID
			participant := &Participant{
				BookingID:     bookingID,
				UserID:        &uid,
				Status:        ParticipantStatusPendingAcceptance,
				PaymentStatus: PaymentStatusPending,
				AmountDue:     booking.PricePerPerson,
			}

			row, err := s.store.CreateParticipant(ctx, q, participant)
			if err != nil {
				return err
			}
			created = append(created, row)
		}

		return s.maybeOpen(ctx, q, booking, counts.NonTerminal+len(fresh))
	})
	if err != nil {
		return nil, err
	}

	// State is committed; notification delivery is best-effort.
	for _, p := range created {
		s.notify(ctx, *p.UserID,
			"Group booking invitation",
			fmt.Sprintf("You have been added to %q. Accept or decline to confirm your spot.", title),
			kindBookingInvite, bookingID)
	}

	return created, nil
}

// maybeOpen advances pending → open once the non-terminal participant count
// reaches the minimum
func (s *Service) maybeOpen(ctx context.Context, q database.Querier, booking *GroupBooking, nonTerminal int) error {
	if booking.Status != BookingStatusPending || nonTerminal < booking.MinParticipants {
		return nil
	}
	return s.store.UpdateBookingStatus(ctx, q, booking.ID, advanceStatus(booking.Status, BookingStatusOpen))
}

// ResolveByToken returns the invitation and its booking context without
// mutating anything. Expired tokens resolve with Expired set so the UI can
// say why the invitation is dead.
func (s *Service) ResolveByToken(ctx context.Context, token string) (*InvitationResponse, error) {
	var resp *InvitationResponse
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		participant, err := s.store.GetParticipantByToken(ctx, q, token)
		if err != nil {
			return err
		}
		if participant == nil {
			return ErrInvitationNotFound
		}

		booking, err := s.store.GetBooking(ctx, q, participant.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		resp = &InvitationResponse{
			ParticipantID: participant.ID,
			InviteEmail:   participant.InviteEmail,
			InviteName:    participant.InviteName,
			Status:        string(participant.Status),
			Expired:       tokenExpired(participant.TokenExpiresAt, time.Now()),
			ExpiresAt:     formatTime(participant.TokenExpiresAt),
			Booking:       booking.ToResponse(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Redeem accepts a token invitation on behalf of a registered user. The
// participant irreversibly gains the user's identity and moves to accepted;
// a token can be redeemed exactly once.
func (s *Service) Redeem(ctx context.Context, token string, userID int64) (*Participant, error) {
	var redeemed *Participant
	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		participant, err := s.store.GetParticipantByToken(ctx, q, token)
		if err != nil {
			return err
		}
		if participant == nil {
			return ErrInvitationNotFound
		}
		if participant.Status != ParticipantStatusInvited {
			return ErrInvitationAlreadyProcessed
		}
		if tokenExpired(participant.TokenExpiresAt, time.Now()) {
			return ErrInvitationExpired
		}

		booking, err := s.store.GetBookingForUpdate(ctx, q, participant.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if booking.Status == BookingStatusCancelled {
			return ErrInvalidState
		}
		if booking.Status == BookingStatusFull {
			return ErrCapacityExceeded
		}

		if err := s.store.AttachParticipantUser(ctx, q, participant.ID, userID); err != nil {
			return err
		}

		if err := s.maybeFull(ctx, q, booking); err != nil {
			return err
		}

		redeemed, err = s.store.GetParticipant(ctx, q, participant.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return redeemed, nil
}

// DeclineByToken declines a token invitation. Declining an already-declined
// invitation succeeds without mutation.
func (s *Service) DeclineByToken(ctx context.Context, token, reason string) error {
	var organizerID int64
	var bookingID int64
	var bookingTitle string
	var declinedName string
	alreadyDeclined := false

	err := s.txr.WithinTx(ctx, func(q database.Querier) error {
		participant, err := s.store.GetParticipantByToken(ctx, q, token)
		if err != nil {
			return err
		}
		if participant == nil {
			return ErrInvitationNotFound
		}
		if participant.Status == ParticipantStatusDeclined {
			alreadyDeclined = true
			return nil
		}
		if participant.Status != ParticipantStatusInvited {
			return ErrInvitationAlreadyProcessed
		}

		booking, err := s.store.GetBookingForUpdate(ctx, q, participant.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		organizerID = booking.OrganizerID
		bookingID = booking.ID
		bookingTitle = booking.Title
		declinedName = inviteeLabel(participant)

		return s.store.SetParticipantDeclined(ctx, q, participant.ID, reason)
	})
	if err != nil || alreadyDeclined {
		return err
	}

	s.notify(ctx, organizerID,
		"Invitation declined",
		declineMessage(declinedName, bookingTitle, reason),
		kindParticipantDeclined, bookingID)

	return nil
}

// maybeFull advances the booking to full once every slot is accepted or paid
func (s *Service) maybeFull(ctx context.Context, q database.Querier, booking *GroupBooking) error {
	counts, err := s.store.CountParticipants(ctx, q, booking.ID)
	if err != nil {
		return err
	}
	if counts.AcceptedOrPaid < booking.MaxParticipants {
		return nil
	}
	return s.store.UpdateBookingStatus(ctx, q, booking.ID, advanceStatus(booking.Status, BookingStatusFull))
}

// inviteeLabel picks the best human-readable name for an invitee
func inviteeLabel(p *Participant) string {
	if p.InviteName != nil && *p.InviteName != "" {
		return *p.InviteName
	}
	if p.InviteEmail != nil && *p.InviteEmail != "" {
		return *p.InviteEmail
	}
	return "A participant"
}

// declineMessage formats the organizer-facing decline notice
func declineMessage(name, title, reason string) string {
	if reason == "" {
		return fmt.Sprintf("%s declined the invitation to %q.", name, title)
	}
	return fmt.Sprintf("%s declined the invitation to %q: %s", name, title, reason)
}
