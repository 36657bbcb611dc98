package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    ParticipantStatus
		to      ParticipantStatus
		allowed bool
	}{
		{"invited to accepted", ParticipantStatusInvited, ParticipantStatusAccepted, true},
		{"invited to declined", ParticipantStatusInvited, ParticipantStatusDeclined, true},
		{"invited to paid", ParticipantStatusInvited, ParticipantStatusPaid, false},
		{"pending to accepted", ParticipantStatusPendingAcceptance, ParticipantStatusAccepted, true},
		{"pending to declined", ParticipantStatusPendingAcceptance, ParticipantStatusDeclined, true},
		{"pending to paid", ParticipantStatusPendingAcceptance, ParticipantStatusPaid, false},
		{"accepted to paid", ParticipantStatusAccepted, ParticipantStatusPaid, true},
		{"accepted to cancelled", ParticipantStatusAccepted, ParticipantStatusCancelled, true},
		{"accepted to declined", ParticipantStatusAccepted, ParticipantStatusDeclined, false},
		{"paid to cancelled", ParticipantStatusPaid, ParticipantStatusCancelled, true},
		{"paid to accepted", ParticipantStatusPaid, ParticipantStatusAccepted, false},
		{"declined is terminal", ParticipantStatusDeclined, ParticipantStatusAccepted, false},
		{"cancelled is terminal", ParticipantStatusCancelled, ParticipantStatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestAdvanceStatus(t *testing.T) {
	assert.Equal(t, BookingStatusOpen, advanceStatus(BookingStatusPending, BookingStatusOpen))
	assert.Equal(t, BookingStatusFull, advanceStatus(BookingStatusOpen, BookingStatusFull))
	assert.Equal(t, BookingStatusConfirmed, advanceStatus(BookingStatusFull, BookingStatusConfirmed))

	// no backwards moves
	assert.Equal(t, BookingStatusFull, advanceStatus(BookingStatusFull, BookingStatusOpen))
	assert.Equal(t, BookingStatusConfirmed, advanceStatus(BookingStatusConfirmed, BookingStatusReadyForApproval))

	// cancelled absorbs everything
	assert.Equal(t, BookingStatusCancelled, advanceStatus(BookingStatusCancelled, BookingStatusConfirmed))
}

func TestIsTerminalBooking(t *testing.T) {
	assert.True(t, isTerminalBooking(BookingStatusCancelled))
	assert.True(t, isTerminalBooking(BookingStatusCompleted))
	assert.False(t, isTerminalBooking(BookingStatusPending))
	assert.False(t, isTerminalBooking(BookingStatusConfirmed))
}
