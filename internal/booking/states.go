package booking

// participantTransitions is the closed transition table for participants.
// Declined and cancelled are terminal; paid can only move to cancelled via
// booking cancellation.
var participantTransitions = map[ParticipantStatus][]ParticipantStatus{
	ParticipantStatusInvited:           {ParticipantStatusAccepted, ParticipantStatusDeclined},
	ParticipantStatusPendingAcceptance: {ParticipantStatusAccepted, ParticipantStatusDeclined},
	ParticipantStatusAccepted:          {ParticipantStatusPaid, ParticipantStatusCancelled},
	ParticipantStatusPaid:              {ParticipantStatusCancelled},
	ParticipantStatusDeclined:          {},
	ParticipantStatusCancelled:         {},
}

// CanTransition reports whether a participant may move from one status to
// another. All status changes in this package funnel through here.
func CanTransition(from, to ParticipantStatus) bool {
	for _, allowed := range participantTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// bookingStatusRank orders the non-terminal booking statuses. Status only
// moves forward through this ranking; cancelled is the absorbing exception
// handled by the cancellation coordinator.
var bookingStatusRank = map[BookingStatus]int{
	BookingStatusPending:          0,
	BookingStatusOpen:             1,
	BookingStatusReadyForApproval: 2,
	BookingStatusFull:             3,
	BookingStatusConfirmed:        4,
	BookingStatusCompleted:        5,
}

// advanceStatus returns next if it is a forward move from current, otherwise
// current. Keeps booking status monotonic when independent triggers (accepts,
// payments, capacity) race to promote it.
func advanceStatus(current, next BookingStatus) BookingStatus {
	if current == BookingStatusCancelled {
		return current
	}
	if bookingStatusRank[next] > bookingStatusRank[current] {
		return next
	}
	return current
}

// isTerminalBooking reports whether no further lifecycle operations apply
func isTerminalBooking(status BookingStatus) bool {
	return status == BookingStatusCancelled || status == BookingStatusCompleted
}
