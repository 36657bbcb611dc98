package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelRefundsWalletPayments(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	bob := backend.addUser("Bob", "bob@example.com")
	carol := backend.addUser("Carol", "carol@example.com")
	backend.balances[bob] = 20
	backend.balances[carol] = 20

	booking := createTestBooking(t, svc, organizer, 4, 2, 20, PaymentModelIndividual)
	pBob := seedAcceptedParticipant(t, svc, booking.ID, organizer, bob)
	pCarol := seedAcceptedParticipant(t, svc, booking.ID, organizer, carol)

	_, err := svc.SettleParticipant(context.Background(), pBob.ID, bob, &SettleRequest{Method: PaymentMethodWallet})
	require.NoError(t, err)
	_, err = svc.SettleParticipant(context.Background(), pCarol.ID, carol, &SettleRequest{Method: PaymentMethodWallet})
	require.NoError(t, err)

	result, err := svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "instructor injured"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.RefundedCount)

	// every cent captured via wallet came back
	assert.Equal(t, 20.0, backend.balances[bob])
	assert.Equal(t, 20.0, backend.balances[carol])

	cancelled, err := backend.GetBooking(context.Background(), nil, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Notes)
	assert.Contains(t, *cancelled.Notes, "instructor injured")

	participants, err := backend.ListParticipants(context.Background(), nil, booking.ID)
	require.NoError(t, err)
	for _, p := range participants {
		assert.Equal(t, ParticipantStatusCancelled, p.Status)
		if p.ID == pBob.ID || p.ID == pCarol.ID {
			assert.Equal(t, PaymentStatusRefunded, p.PaymentStatus)
		}
	}
}

func TestCancelReturnsPackageHours(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	bob := backend.addUser("Bob", "bob@example.com")
	pkg := backend.addPackage(bob, 5)

	booking := createTestBooking(t, svc, organizer, 4, 2, 20, PaymentModelIndividual)
	p := seedAcceptedParticipant(t, svc, booking.ID, organizer, bob)

	hoursUsed := 2.0
	_, err := svc.SettleParticipant(context.Background(), p.ID, bob, &SettleRequest{
		Method:            PaymentMethodPackage,
		CustomerPackageID: &pkg,
		HoursUsed:         &hoursUsed,
	})
	require.NoError(t, err)
	require.Equal(t, 3.0, backend.packages[pkg].remaining)

	result, err := svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "weather"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RefundedCount)
	assert.Equal(t, 5.0, backend.packages[pkg].remaining)

	refunded, err := backend.GetParticipant(context.Background(), nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusRefunded, refunded.PaymentStatus)
}

func TestCancelSkipsExternalPayments(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	bob := backend.addUser("Bob", "bob@example.com")

	booking := createTestBooking(t, svc, organizer, 4, 2, 20, PaymentModelIndividual)
	p := seedAcceptedParticipant(t, svc, booking.ID, organizer, bob)

	ref := "pos-receipt-11"
	_, err := svc.SettleParticipant(context.Background(), p.ID, bob, &SettleRequest{
		Method:            PaymentMethodExternal,
		ExternalReference: &ref,
	})
	require.NoError(t, err)

	result, err := svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "weather"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.RefundedCount)

	// the row is still cancelled, but the external charge is left alone
	external, err := backend.GetParticipant(context.Background(), nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ParticipantStatusCancelled, external.Status)
	assert.Equal(t, PaymentStatusPaid, external.PaymentStatus)
}

func TestCancelRollsBackOnMidRefundFailure(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	bob := backend.addUser("Bob", "bob@example.com")
	carol := backend.addUser("Carol", "carol@example.com")
	backend.balances[bob] = 20
	backend.balances[carol] = 20

	booking := createTestBooking(t, svc, organizer, 4, 2, 20, PaymentModelIndividual)
	pBob := seedAcceptedParticipant(t, svc, booking.ID, organizer, bob)
	pCarol := seedAcceptedParticipant(t, svc, booking.ID, organizer, carol)

	_, err := svc.SettleParticipant(context.Background(), pBob.ID, bob, &SettleRequest{Method: PaymentMethodWallet})
	require.NoError(t, err)
	_, err = svc.SettleParticipant(context.Background(), pCarol.ID, carol, &SettleRequest{Method: PaymentMethodWallet})
	require.NoError(t, err)

	backend.failCreditFor[carol] = true

	_, err = svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "weather"})
	require.Error(t, err)

	// no participant ends up refunded while a sibling is left unprocessed
	assert.Equal(t, 0.0, backend.balances[bob])
	assert.Equal(t, 0.0, backend.balances[carol])

	for _, id := range []int64{pBob.ID, pCarol.ID} {
		p, err := backend.GetParticipant(context.Background(), nil, id)
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPaid, p.PaymentStatus)
		assert.Equal(t, ParticipantStatusPaid, p.Status)
	}

	intact, err := backend.GetBooking(context.Background(), nil, booking.ID)
	require.NoError(t, err)
	assert.NotEqual(t, BookingStatusCancelled, intact.Status)
}

func TestCancelNotifiesOpenParticipants(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	bob := backend.addUser("Bob", "bob@example.com")
	carol := backend.addUser("Carol", "carol@example.com")

	booking := createTestBooking(t, svc, organizer, 4, 2, 20, PaymentModelIndividual)
	seedAcceptedParticipant(t, svc, booking.ID, organizer, bob)

	_, err := svc.AddByIdentity(context.Background(), booking.ID, organizer, []int64{carol})
	require.NoError(t, err)
	err = svc.Decline(context.Background(), booking.ID, carol, "busy")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "weather"})
	require.NoError(t, err)

	var bobCancellations int
	for _, n := range backend.notesFor(bob) {
		if n.kind == kindBookingCancelled {
			bobCancellations++
		}
	}
	assert.Equal(t, 1, bobCancellations)

	// declined participants are not told about the cancellation
	for _, n := range backend.notesFor(carol) {
		assert.NotEqual(t, kindBookingCancelled, n.kind)
	}
}

func TestCancelOnlyOrganizer(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	bob := backend.addUser("Bob", "bob@example.com")

	booking := createTestBooking(t, svc, organizer, 4, 2, 20, PaymentModelIndividual)
	seedAcceptedParticipant(t, svc, booking.ID, organizer, bob)

	_, err := svc.Cancel(context.Background(), booking.ID, bob, &CancelRequest{Reason: "nope"})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelTwice(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")

	booking := createTestBooking(t, svc, organizer, 4, 2, 20, PaymentModelIndividual)

	_, err := svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "weather"})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "weather"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelRefundsOrganizerGroupPayment(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	bob := backend.addUser("Bob", "bob@example.com")
	backend.balances[organizer] = 100

	booking := createTestBooking(t, svc, organizer, 4, 2, 10, PaymentModelOrganizerPays)
	seedAcceptedParticipant(t, svc, booking.ID, organizer, bob)

	_, err := svc.SettleOrganizer(context.Background(), booking.ID, organizer, &SettleGroupRequest{Method: PaymentMethodWallet})
	require.NoError(t, err)
	require.Equal(t, 80.0, backend.balances[organizer])

	result, err := svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "instructor injured"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RefundedCount)

	// the whole group capture came back to the organizer
	assert.Equal(t, 100.0, backend.balances[organizer])

	cancelled, err := backend.GetBooking(context.Background(), nil, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, cancelled.Status)

	participants, err := backend.ListParticipants(context.Background(), nil, booking.ID)
	require.NoError(t, err)
	for _, p := range participants {
		assert.Equal(t, ParticipantStatusCancelled, p.Status)
		assert.Equal(t, PaymentStatusRefunded, p.PaymentStatus)
	}
}

func TestCancelLeavesExternalGroupPayment(t *testing.T) {
	backend := newMemBackend()
	svc := newTestService(backend)
	organizer := backend.addUser("Alice", "alice@example.com")
	bob := backend.addUser("Bob", "bob@example.com")

	booking := createTestBooking(t, svc, organizer, 4, 2, 10, PaymentModelOrganizerPays)
	seedAcceptedParticipant(t, svc, booking.ID, organizer, bob)

	ref := "pos-receipt-118"
	_, err := svc.SettleOrganizer(context.Background(), booking.ID, organizer, &SettleGroupRequest{
		Method:            PaymentMethodExternal,
		ExternalReference: &ref,
	})
	require.NoError(t, err)

	result, err := svc.Cancel(context.Background(), booking.ID, organizer, &CancelRequest{Reason: "weather"})
	require.NoError(t, err)

	// an external capture is reversed outside the system
	assert.Equal(t, 0, result.RefundedCount)

	participants, err := backend.ListParticipants(context.Background(), nil, booking.ID)
	require.NoError(t, err)
	for _, p := range participants {
		assert.Equal(t, ParticipantStatusCancelled, p.Status)
		assert.Equal(t, PaymentStatusCoveredByOrganizer, p.PaymentStatus)
	}
}
