package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBooking(t *testing.T, svc *Service, organizerID int64, max, min int, price float64, model PaymentModel) *GroupBooking {
	t.Helper()

	req := &CreateBookingRequest{
		ServiceName:     "Kitesurf lesson",
		Title:           "Saturday group session",
		MaxParticipants: max,
		MinParticipants: min,
		PricePerPerson:  price,
		LessonDate:      time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		EndTime:         "12:00",
		DurationMinutes: 120,
		PaymentModel:    model,
	}

	booking, err := svc.Create(context.Background(), organizerID, req)
	require.NoError(t, err)
	return booking
}

func TestCreateBooking(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")

	booking := createTestBooking(t, svc, organizer, 4, 2, 25, PaymentModelIndividual)

	assert.Equal(t, BookingStatusPending, booking.Status)
	assert.Equal(t, organizer, booking.OrganizerID)

	details, err := svc.GetDetails(context.Background(), booking.ID, organizer)
	require.NoError(t, err)
	require.Len(t, details.Participants, 1)

	self := details.Participants[0]
	assert.True(t, self.IsOrganizer)
	assert.Equal(t, string(ParticipantStatusAccepted), self.Status)
	assert.Equal(t, 25.0, self.AmountDue)
	assert.Equal(t, 1, details.ParticipantCount)
}

func TestCreateBookingOrganizerPaysOwesNothing(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")

	booking := createTestBooking(t, svc, organizer, 4, 2, 25, PaymentModelOrganizerPays)

	details, err := svc.GetDetails(context.Background(), booking.ID, organizer)
	require.NoError(t, err)
	require.Len(t, details.Participants, 1)
	assert.Equal(t, 0.0, details.Participants[0].AmountDue)
}

func TestCreateBookingValidation(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")

	base := func() *CreateBookingRequest {
		return &CreateBookingRequest{
			ServiceName:     "Kitesurf lesson",
			Title:           "Saturday group session",
			MaxParticipants: 4,
			MinParticipants: 2,
			PricePerPerson:  25,
			LessonDate:      time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
			StartTime:       "10:00",
			EndTime:         "12:00",
			PaymentModel:    PaymentModelIndividual,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*CreateBookingRequest)
		wantErr error
	}{
		{"min above max", func(r *CreateBookingRequest) { r.MinParticipants = 5 }, ErrInvalidCapacity},
		{"zero max", func(r *CreateBookingRequest) { r.MaxParticipants = 0 }, ErrInvalidCapacity},
		{"zero min", func(r *CreateBookingRequest) { r.MinParticipants = 0 }, ErrInvalidCapacity},
		{"negative price", func(r *CreateBookingRequest) { r.PricePerPerson = -1 }, ErrNegativePrice},
		{"unknown payment model", func(r *CreateBookingRequest) { r.PaymentModel = "SPLIT" }, ErrInvalidPaymentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)
			_, err := svc.Create(context.Background(), organizer, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetDetailsTokenVisibility(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	viewer := backend.addUser("Bob", "bob@example.com")

	booking := createTestBooking(t, svc, organizer, 4, 2, 25, PaymentModelIndividual)

	_, err := svc.Invite(context.Background(), booking.ID, organizer, []InviteCandidate{
		{Email: "carol@example.com"},
	})
	require.NoError(t, err)

	organizerView, err := svc.GetDetails(context.Background(), booking.ID, organizer)
	require.NoError(t, err)
	require.Len(t, organizerView.Participants, 2)
	assert.NotNil(t, organizerView.Participants[1].InviteToken)

	outsiderView, err := svc.GetDetails(context.Background(), booking.ID, viewer)
	require.NoError(t, err)
	assert.Nil(t, outsiderView.Participants[1].InviteToken)
}

func TestGetDetailsUnknownBooking(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	viewer := backend.addUser("Alice", "alice@example.com")

	_, err := svc.GetDetails(context.Background(), 42, viewer)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListForUserSkipsCancelled(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")

	keep := createTestBooking(t, svc, organizer, 4, 2, 25, PaymentModelIndividual)
	drop := createTestBooking(t, svc, organizer, 4, 2, 25, PaymentModelIndividual)

	_, err := svc.Cancel(context.Background(), drop.ID, organizer, &CancelRequest{Reason: "weather"})
	require.NoError(t, err)

	bookings, err := svc.ListForUser(context.Background(), organizer)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, keep.ID, bookings[0].ID)
}
