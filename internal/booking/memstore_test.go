package booking

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fkhayef/groupbook/internal/database"
	"github.com/fkhayef/groupbook/internal/hours"
	"github.com/fkhayef/groupbook/internal/wallet"
)

// memBackend is an in-memory stand-in for the Postgres store and its
// collaborators. WithinTx serializes callers on one mutex, which models the
// booking row lock, and restores a snapshot when the unit of work fails,
// which models transaction rollback.
type memBackend struct {
	mu sync.Mutex

	seq          int64
	bookings     map[int64]*GroupBooking
	participants map[int64]*Participant
	balances     map[int64]float64
	packages     map[int64]*memPackage

	// directory fixtures, read-only once the test starts
	names  map[int64]string
	emails map[string]int64

	sinkMu    sync.Mutex
	delivered []memNote
	processed []memProcessed

	failCreditFor map[int64]bool
}

type memPackage struct {
	userID    int64
	remaining float64
}

type memNote struct {
	recipientID int64
	title       string
	message     string
	kind        string
	entityID    int64
}

type memProcessed struct {
	recipientID int64
	entityID    int64
}

func newMemBackend() *memBackend {
	return &memBackend{
		bookings:      make(map[int64]*GroupBooking),
		participants:  make(map[int64]*Participant),
		balances:      make(map[int64]float64),
		packages:      make(map[int64]*memPackage),
		names:         make(map[int64]string),
		emails:        make(map[string]int64),
		failCreditFor: make(map[int64]bool),
	}
}

func newTestService(b *memBackend) *Service {
	return NewService(b, b, b, b, b, b, zap.NewNop())
}

func (m *memBackend) addUser(name, email string) int64 {
	m.seq++
	id := m.seq
	m.names[id] = name
	m.emails[strings.ToLower(email)] = id
	return id
}

func (m *memBackend) addPackage(userID int64, remaining float64) int64 {
	m.seq++
	m.packages[m.seq] = &memPackage{userID: userID, remaining: remaining}
	return m.seq
}

// --- TxRunner ---

type memSnapshot struct {
	seq          int64
	bookings     map[int64]*GroupBooking
	participants map[int64]*Participant
	balances     map[int64]float64
	packages     map[int64]*memPackage
}

func (m *memBackend) snapshot() *memSnapshot {
	s := &memSnapshot{
		seq:          m.seq,
		bookings:     make(map[int64]*GroupBooking, len(m.bookings)),
		participants: make(map[int64]*Participant, len(m.participants)),
		balances:     make(map[int64]float64, len(m.balances)),
		packages:     make(map[int64]*memPackage, len(m.packages)),
	}
	for id, b := range m.bookings {
		cp := *b
		s.bookings[id] = &cp
	}
	for id, p := range m.participants {
		cp := *p
		s.participants[id] = &cp
	}
	for id, v := range m.balances {
		s.balances[id] = v
	}
	for id, p := range m.packages {
		cp := *p
		s.packages[id] = &cp
	}
	return s
}

func (m *memBackend) restore(s *memSnapshot) {
	m.seq = s.seq
	m.bookings = s.bookings
	m.participants = s.participants
	m.balances = s.balances
	m.packages = s.packages
}

func (m *memBackend) WithinTx(ctx context.Context, fn func(database.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(nil); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// --- Store ---

func (m *memBackend) CreateBooking(ctx context.Context, q database.Querier, b *GroupBooking) (*GroupBooking, error) {
	m.seq++
	cp := *b
	cp.ID = m.seq
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.bookings[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *memBackend) GetBooking(ctx context.Context, q database.Querier, id int64) (*GroupBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	cp.OrganizerName = m.names[b.OrganizerID]
	return &cp, nil
}

func (m *memBackend) GetBookingForUpdate(ctx context.Context, q database.Querier, id int64) (*GroupBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memBackend) UpdateBookingStatus(ctx context.Context, q database.Querier, id int64, status BookingStatus) error {
	b, ok := m.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

func (m *memBackend) MarkBookingPaid(ctx context.Context, q database.Querier, id int64, totalAmount float64, method PaymentMethod, reference *string) error {
	b, ok := m.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.OrganizerPaid = true
	b.TotalAmount = &totalAmount
	b.PaymentMethod = &method
	b.PaymentReference = reference
	b.Status = BookingStatusConfirmed
	b.UpdatedAt = time.Now()
	return nil
}

func (m *memBackend) MarkBookingCancelled(ctx context.Context, q database.Querier, id int64, notes string) error {
	b, ok := m.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.Status = BookingStatusCancelled
	if b.Notes != nil && *b.Notes != "" {
		merged := *b.Notes + "\n" + notes
		b.Notes = &merged
	} else {
		b.Notes = &notes
	}
	b.UpdatedAt = time.Now()
	return nil
}

func (m *memBackend) ListBookingsForUser(ctx context.Context, q database.Querier, userID int64) ([]*GroupBooking, error) {
	seen := make(map[int64]bool)
	var out []*GroupBooking
	for _, b := range m.bookings {
		if b.Status == BookingStatusCancelled || seen[b.ID] {
			continue
		}
		member := b.OrganizerID == userID
		if !member {
			for _, p := range m.participants {
				if p.BookingID == b.ID && p.UserID != nil && *p.UserID == userID {
					member = true
					break
				}
			}
		}
		if member {
			seen[b.ID] = true
			cp := *b
			cp.OrganizerName = m.names[b.OrganizerID]
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memBackend) CreateParticipant(ctx context.Context, q database.Querier, p *Participant) (*Participant, error) {
	m.seq++
	cp := *p
	cp.ID = m.seq
	cp.CreatedAt = time.Now()
	m.participants[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (m *memBackend) GetParticipant(ctx context.Context, q database.Querier, id int64) (*Participant, error) {
	p, ok := m.participants[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memBackend) GetParticipantByToken(ctx context.Context, q database.Querier, token string) (*Participant, error) {
	for _, p := range m.participants {
		if p.InviteToken != nil && *p.InviteToken == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memBackend) GetParticipantByUser(ctx context.Context, q database.Querier, bookingID, userID int64) (*Participant, error) {
	for _, p := range m.participants {
		if p.BookingID == bookingID && p.UserID != nil && *p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memBackend) GetParticipantByEmail(ctx context.Context, q database.Querier, bookingID int64, email string) (*Participant, error) {
	for _, p := range m.participants {
		if p.BookingID == bookingID && p.InviteEmail != nil && strings.EqualFold(*p.InviteEmail, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memBackend) ListParticipants(ctx context.Context, q database.Querier, bookingID int64) ([]*Participant, error) {
	var out []*Participant
	for _, p := range m.participants {
		if p.BookingID != bookingID {
			continue
		}
		cp := *p
		if p.UserID != nil {
			cp.DisplayName = m.names[*p.UserID]
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsOrganizer != out[j].IsOrganizer {
			return out[i].IsOrganizer
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memBackend) CountParticipants(ctx context.Context, q database.Querier, bookingID int64) (ParticipantCounts, error) {
	var counts ParticipantCounts
	for _, p := range m.participants {
		if p.BookingID != bookingID {
			continue
		}
		if p.Status != ParticipantStatusDeclined && p.Status != ParticipantStatusCancelled {
			counts.NonTerminal++
		}
		if p.Status == ParticipantStatusAccepted || p.Status == ParticipantStatusPaid {
			counts.AcceptedOrPaid++
		}
		if p.Status == ParticipantStatusPaid {
			counts.Paid++
		}
		if p.Status == ParticipantStatusPendingAcceptance {
			counts.PendingAcceptance++
		}
	}
	return counts, nil
}

func (m *memBackend) AttachParticipantUser(ctx context.Context, q database.Querier, participantID, userID int64) error {
	p, ok := m.participants[participantID]
	if !ok {
		return errors.New("participant not found")
	}
	uid := userID
	now := time.Now()
	p.UserID = &uid
	p.Status = ParticipantStatusAccepted
	p.AcceptedAt = &now
	return nil
}

func (m *memBackend) SetParticipantAccepted(ctx context.Context, q database.Querier, participantID int64) error {
	p, ok := m.participants[participantID]
	if !ok {
		return errors.New("participant not found")
	}
	now := time.Now()
	p.Status = ParticipantStatusAccepted
	p.AcceptedAt = &now
	return nil
}

func (m *memBackend) SetParticipantDeclined(ctx context.Context, q database.Querier, participantID int64, reason string) error {
	p, ok := m.participants[participantID]
	if !ok {
		return errors.New("participant not found")
	}
	now := time.Now()
	p.Status = ParticipantStatusDeclined
	p.DeclinedAt = &now
	if reason != "" {
		r := reason
		p.DeclineReason = &r
	}
	return nil
}

func (m *memBackend) RecordParticipantPayment(ctx context.Context, q database.Querier, participantID int64, method PaymentMethod, reference *string, packageID *int64, hoursUsed *float64, amount float64) error {
	p, ok := m.participants[participantID]
	if !ok {
		return errors.New("participant not found")
	}
	now := time.Now()
	p.Status = ParticipantStatusPaid
	p.PaymentStatus = PaymentStatusPaid
	p.AmountPaid = amount
	p.PaymentMethod = &method
	p.PaymentReference = reference
	p.CustomerPackageID = packageID
	p.HoursUsed = hoursUsed
	p.PaidAt = &now
	return nil
}

func (m *memBackend) CoverParticipants(ctx context.Context, q database.Querier, bookingID int64) (int, error) {
	covered := 0
	now := time.Now()
	for _, p := range m.participants {
		if p.BookingID != bookingID {
			continue
		}
		if p.Status != ParticipantStatusAccepted && p.Status != ParticipantStatusPaid {
			continue
		}
		p.Status = ParticipantStatusPaid
		p.PaymentStatus = PaymentStatusCoveredByOrganizer
		p.AmountPaid = p.AmountDue
		p.PaidAt = &now
		covered++
	}
	return covered, nil
}

func (m *memBackend) RefundParticipant(ctx context.Context, q database.Querier, participantID int64) error {
	p, ok := m.participants[participantID]
	if !ok {
		return errors.New("participant not found")
	}
	p.PaymentStatus = PaymentStatusRefunded
	return nil
}

func (m *memBackend) CancelOpenParticipants(ctx context.Context, q database.Querier, bookingID int64) error {
	for _, p := range m.participants {
		if p.BookingID != bookingID {
			continue
		}
		if p.Status == ParticipantStatusDeclined || p.Status == ParticipantStatusCancelled {
			continue
		}
		p.Status = ParticipantStatusCancelled
	}
	return nil
}

// --- LedgerStore ---

func (m *memBackend) GetBalance(ctx context.Context, q database.Querier, userID int64) (float64, error) {
	return m.balances[userID], nil
}

func (m *memBackend) Debit(ctx context.Context, q database.Querier, userID int64, amount float64, reason string, referenceID *int64) (int64, error) {
	if m.balances[userID] < amount {
		return 0, wallet.ErrInsufficientFunds
	}
	m.balances[userID] -= amount
	m.seq++
	return m.seq, nil
}

func (m *memBackend) Credit(ctx context.Context, q database.Querier, userID int64, amount float64, reason string, referenceID *int64) (int64, error) {
	if m.failCreditFor[userID] {
		return 0, errors.New("ledger unavailable")
	}
	m.balances[userID] += amount
	m.seq++
	return m.seq, nil
}

// --- HoursStore ---

func (m *memBackend) GetRemainingHours(ctx context.Context, q database.Querier, packageID, userID int64) (float64, error) {
	pkg, ok := m.packages[packageID]
	if !ok || pkg.userID != userID {
		return 0, hours.ErrPackageNotFound
	}
	return pkg.remaining, nil
}

func (m *memBackend) DecrementHours(ctx context.Context, q database.Querier, packageID int64, hoursUsed float64) error {
	pkg, ok := m.packages[packageID]
	if !ok {
		return hours.ErrPackageNotFound
	}
	if pkg.remaining < hoursUsed {
		return hours.ErrInsufficientHours
	}
	pkg.remaining -= hoursUsed
	return nil
}

func (m *memBackend) IncrementHours(ctx context.Context, q database.Querier, packageID int64, hoursReturned float64) error {
	pkg, ok := m.packages[packageID]
	if !ok {
		return hours.ErrPackageNotFound
	}
	pkg.remaining += hoursReturned
	return nil
}

// --- DirectoryService ---

func (m *memBackend) ResolveByEmail(ctx context.Context, email string) (*int64, error) {
	if id, ok := m.emails[strings.ToLower(email)]; ok {
		uid := id
		return &uid, nil
	}
	return nil, nil
}

func (m *memBackend) DisplayName(ctx context.Context, userID int64) (string, error) {
	name, ok := m.names[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return name, nil
}

// --- NotificationSink ---

func (m *memBackend) Notify(ctx context.Context, recipientID int64, title, message, kind, entityType string, entityID int64) error {
	m.sinkMu.Lock()
	defer m.sinkMu.Unlock()
	m.delivered = append(m.delivered, memNote{
		recipientID: recipientID,
		title:       title,
		message:     message,
		kind:        kind,
		entityID:    entityID,
	})
	return nil
}

func (m *memBackend) MarkProcessed(ctx context.Context, recipientID int64, entityType string, entityID int64) error {
	m.sinkMu.Lock()
	defer m.sinkMu.Unlock()
	m.processed = append(m.processed, memProcessed{recipientID: recipientID, entityID: entityID})
	return nil
}

func (m *memBackend) notesFor(recipientID int64) []memNote {
	m.sinkMu.Lock()
	defer m.sinkMu.Unlock()
	var out []memNote
	for _, n := range m.delivered {
		if n.recipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}
