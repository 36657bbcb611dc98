package booking

import "time"

// BookingStatus represents the lifecycle status of a group booking
type BookingStatus string

const (
	BookingStatusPending          BookingStatus = "PENDING"
	BookingStatusOpen             BookingStatus = "OPEN"
	BookingStatusReadyForApproval BookingStatus = "READY_FOR_APPROVAL"
	BookingStatusFull             BookingStatus = "FULL"
	BookingStatusConfirmed        BookingStatus = "CONFIRMED"
	BookingStatusCancelled        BookingStatus = "CANCELLED"
	BookingStatusCompleted        BookingStatus = "COMPLETED"
)

// PaymentModel selects who pays for a group booking
type PaymentModel string

const (
	PaymentModelIndividual    PaymentModel = "INDIVIDUAL"
	PaymentModelOrganizerPays PaymentModel = "ORGANIZER_PAYS"
)

// ParticipantStatus represents the state of a single participant
type ParticipantStatus string

const (
	ParticipantStatusInvited           ParticipantStatus = "INVITED"
	ParticipantStatusPendingAcceptance ParticipantStatus = "PENDING_ACCEPTANCE"
	ParticipantStatusAccepted          ParticipantStatus = "ACCEPTED"
	ParticipantStatusDeclined          ParticipantStatus = "DECLINED"
	ParticipantStatusPaid              ParticipantStatus = "PAID"
	ParticipantStatusCancelled         ParticipantStatus = "CANCELLED"
)

// PaymentStatus represents how far a participant's payment has progressed
type PaymentStatus string

const (
	PaymentStatusNotApplicable      PaymentStatus = "NOT_APPLICABLE"
	PaymentStatusPending            PaymentStatus = "PENDING"
	PaymentStatusPaid               PaymentStatus = "PAID"
	PaymentStatusCoveredByOrganizer PaymentStatus = "COVERED_BY_ORGANIZER"
	PaymentStatusRefunded           PaymentStatus = "REFUNDED"
)

// PaymentMethod is the instrument used to settle a participant's share
type PaymentMethod string

const (
	PaymentMethodWallet   PaymentMethod = "WALLET"
	PaymentMethodPackage  PaymentMethod = "PACKAGE"
	PaymentMethodExternal PaymentMethod = "EXTERNAL"
)

// GroupBooking is the aggregate root for a multi-participant reservation of
// a shared service slot
type GroupBooking struct {
	ID                   int64          `json:"id"`
	OrganizerID          int64          `json:"organizer_id"`
	ServiceName          string         `json:"service_name"`
	InstructorID         *int64         `json:"instructor_id,omitempty"`
	Title                string         `json:"title"`
	Description          *string        `json:"description,omitempty"`
	MaxParticipants      int            `json:"max_participants"`
	MinParticipants      int            `json:"min_participants"`
	PricePerPerson       float64        `json:"price_per_person"`
	LessonDate           time.Time      `json:"lesson_date"`
	StartTime            string         `json:"start_time"`
	EndTime              string         `json:"end_time"`
	DurationMinutes      int            `json:"duration_minutes"`
	RegistrationDeadline *time.Time     `json:"registration_deadline,omitempty"`
	PaymentDeadline      *time.Time     `json:"payment_deadline,omitempty"`
	PaymentModel         PaymentModel   `json:"payment_model"`
	OrganizerPaid        bool           `json:"organizer_paid"`
	TotalAmount          *float64       `json:"total_amount,omitempty"`
	PaymentMethod        *PaymentMethod `json:"payment_method,omitempty"`
	PaymentReference     *string        `json:"payment_reference,omitempty"`
	Status               BookingStatus  `json:"status"`
	Notes                *string        `json:"notes,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`

	// Populated via JOIN
	OrganizerName string `json:"organizer_name,omitempty"`
}

// Participant is one person attached to a group booking, registered or not.
// Exactly one participant per booking is the organizer.
type Participant struct {
	ID                int64             `json:"id"`
	BookingID         int64             `json:"booking_id"`
	UserID            *int64            `json:"user_id,omitempty"`
	IsOrganizer       bool              `json:"is_organizer"`
	InviteEmail       *string           `json:"invite_email,omitempty"`
	InviteName        *string           `json:"invite_name,omitempty"`
	InvitePhone       *string           `json:"invite_phone,omitempty"`
	Status            ParticipantStatus `json:"status"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	AmountDue         float64           `json:"amount_due"`
	AmountPaid        float64           `json:"amount_paid"`
	PaymentMethod     *PaymentMethod    `json:"payment_method,omitempty"`
	PaymentReference  *string           `json:"payment_reference,omitempty"`
	CustomerPackageID *int64            `json:"customer_package_id,omitempty"`
	HoursUsed         *float64          `json:"hours_used,omitempty"`
	InviteToken       *string           `json:"invite_token,omitempty"`
	TokenExpiresAt    *time.Time        `json:"token_expires_at,omitempty"`
	AcceptedAt        *time.Time        `json:"accepted_at,omitempty"`
	DeclinedAt        *time.Time        `json:"declined_at,omitempty"`
	DeclineReason     *string           `json:"decline_reason,omitempty"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`

	// Populated via JOIN
	DisplayName string `json:"display_name,omitempty"`
}

// CountsTowardCapacity reports whether this participant occupies a slot.
// Declined and cancelled participants free their slot.
func (p *Participant) CountsTowardCapacity() bool {
	return p.Status != ParticipantStatusDeclined && p.Status != ParticipantStatusCancelled
}

// ParticipantCounts summarizes a booking's participant population, computed
// in one query so every caller sees a consistent snapshot.
type ParticipantCounts struct {
	NonTerminal       int
	AcceptedOrPaid    int
	Paid              int
	PendingAcceptance int
}
