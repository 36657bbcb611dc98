package booking

import "time"

// CreateBookingRequest represents the request to create a group booking
type CreateBookingRequest struct {
	ServiceName          string       `json:"service_name" validate:"required"`
	InstructorID         *int64       `json:"instructor_id,omitempty"`
	Title                string       `json:"title" validate:"required,min=1,max=200"`
	Description          *string      `json:"description,omitempty"`
	MaxParticipants      int          `json:"max_participants" validate:"required,min=1"`
	MinParticipants      int          `json:"min_participants" validate:"required,min=1"`
	PricePerPerson       float64      `json:"price_per_person"`
	LessonDate           time.Time    `json:"lesson_date" validate:"required"`
	StartTime            string       `json:"start_time" validate:"required"`
	EndTime              string       `json:"end_time" validate:"required"`
	DurationMinutes      int          `json:"duration_minutes"`
	RegistrationDeadline *time.Time   `json:"registration_deadline,omitempty"`
	PaymentDeadline      *time.Time   `json:"payment_deadline,omitempty"`
	PaymentModel         PaymentModel `json:"payment_model" validate:"required"`
}

// InviteCandidate is one person to invite by email
type InviteCandidate struct {
	Email string  `json:"email" validate:"required,email"`
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// InviteRequest represents the request to invite people by email
type InviteRequest struct {
	Participants []InviteCandidate `json:"participants" validate:"required,min=1,dive"`
}

// AddParticipantsRequest represents the request to add registered users
type AddParticipantsRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1"`
}

// DeclineRequest carries an optional reason for declining
type DeclineRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SettleRequest represents an individual payment attempt
type SettleRequest struct {
	Method            PaymentMethod `json:"method" validate:"required"`
	CustomerPackageID *int64        `json:"customer_package_id,omitempty"`
	HoursUsed         *float64      `json:"hours_used,omitempty"`
	ExternalReference *string       `json:"external_reference,omitempty"`
}

// SettleGroupRequest represents an organizer-pays payment attempt
type SettleGroupRequest struct {
	Method            PaymentMethod `json:"method" validate:"required"`
	ExternalReference *string       `json:"external_reference,omitempty"`
}

// CancelRequest carries the organizer's cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ParticipantResponse represents a participant in API responses. The
// invitation token fields are populated only for the organizer's view.
type ParticipantResponse struct {
	ID             int64   `json:"id"`
	UserID         *int64  `json:"user_id,omitempty"`
	DisplayName    string  `json:"display_name,omitempty"`
	InviteEmail    *string `json:"invite_email,omitempty"`
	IsOrganizer    bool    `json:"is_organizer"`
	Status         string  `json:"status"`
	PaymentStatus  string  `json:"payment_status"`
	AmountDue      float64 `json:"amount_due"`
	AmountPaid     float64 `json:"amount_paid"`
	PaymentMethod  *string `json:"payment_method,omitempty"`
	InviteToken    *string `json:"invite_token,omitempty"`
	TokenExpiresAt *string `json:"token_expires_at,omitempty"`
	AcceptedAt     *string `json:"accepted_at,omitempty"`
	DeclinedAt     *string `json:"declined_at,omitempty"`
	DeclineReason  *string `json:"decline_reason,omitempty"`
	PaidAt         *string `json:"paid_at,omitempty"`
}

// BookingResponse represents a booking with its composed participant view
type BookingResponse struct {
	ID                   int64                  `json:"id"`
	OrganizerID          int64                  `json:"organizer_id"`
	OrganizerName        string                 `json:"organizer_name,omitempty"`
	ServiceName          string                 `json:"service_name"`
	InstructorID         *int64                 `json:"instructor_id,omitempty"`
	Title                string                 `json:"title"`
	Description          *string                `json:"description,omitempty"`
	MaxParticipants      int                    `json:"max_participants"`
	MinParticipants      int                    `json:"min_participants"`
	PricePerPerson       float64                `json:"price_per_person"`
	LessonDate           string                 `json:"lesson_date"`
	StartTime            string                 `json:"start_time"`
	EndTime              string                 `json:"end_time"`
	DurationMinutes      int                    `json:"duration_minutes"`
	RegistrationDeadline *string                `json:"registration_deadline,omitempty"`
	PaymentDeadline      *string                `json:"payment_deadline,omitempty"`
	PaymentModel         string                 `json:"payment_model"`
	OrganizerPaid        bool                   `json:"organizer_paid"`
	TotalAmount          *float64               `json:"total_amount,omitempty"`
	Status               string                 `json:"status"`
	Notes                *string                `json:"notes,omitempty"`
	ParticipantCount     int                    `json:"participant_count"`
	PaidCount            int                    `json:"paid_count"`
	Participants         []*ParticipantResponse `json:"participants,omitempty"`
	CreatedAt            string                 `json:"created_at"`
}

// InvitationResponse is the public view of a resolved invitation token
type InvitationResponse struct {
	ParticipantID int64            `json:"participant_id"`
	InviteEmail   *string          `json:"invite_email,omitempty"`
	InviteName    *string          `json:"invite_name,omitempty"`
	Status        string           `json:"status"`
	Expired       bool             `json:"expired"`
	ExpiresAt     *string          `json:"expires_at,omitempty"`
	Booking       *BookingResponse `json:"booking"`
}

// SettlementResponse summarizes a captured payment
type SettlementResponse struct {
	ParticipantID int64   `json:"participant_id,omitempty"`
	BookingID     int64   `json:"booking_id"`
	AmountPaid    float64 `json:"amount_paid"`
	Method        string  `json:"method"`
	BookingStatus string  `json:"booking_status"`
	CoveredCount  int     `json:"covered_count,omitempty"`
}

// CancellationResponse summarizes a completed cancellation
type CancellationResponse struct {
	BookingID     int64 `json:"booking_id"`
	RefundedCount int   `json:"refunded_count"`
}

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timestampLayout)
	return &s
}

// ToResponse converts a Participant to its API shape. Token fields are
// stripped unless the viewer is the booking's organizer.
func (p *Participant) ToResponse(includeToken bool) *ParticipantResponse {
	resp := &ParticipantResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		DisplayName:   p.DisplayName,
		InviteEmail:   p.InviteEmail,
		IsOrganizer:   p.IsOrganizer,
		Status:        string(p.Status),
		PaymentStatus: string(p.PaymentStatus),
		AmountDue:     p.AmountDue,
		AmountPaid:    p.AmountPaid,
		AcceptedAt:    formatTime(p.AcceptedAt),
		DeclinedAt:    formatTime(p.DeclinedAt),
		DeclineReason: p.DeclineReason,
		PaidAt:        formatTime(p.PaidAt),
	}
	if p.PaymentMethod != nil {
		method := string(*p.PaymentMethod)
		resp.PaymentMethod = &method
	}
	if includeToken {
		resp.InviteToken = p.InviteToken
		resp.TokenExpiresAt = formatTime(p.TokenExpiresAt)
	}
	return resp
}

// ToResponse converts a GroupBooking to its API shape
func (b *GroupBooking) ToResponse() *BookingResponse {
	return &BookingResponse{
		ID:                   b.ID,
		OrganizerID:          b.OrganizerID,
		OrganizerName:        b.OrganizerName,
		ServiceName:          b.ServiceName,
		InstructorID:         b.InstructorID,
		Title:                b.Title,
		Description:          b.Description,
		MaxParticipants:      b.MaxParticipants,
		MinParticipants:      b.MinParticipants,
		PricePerPerson:       b.PricePerPerson,
		LessonDate:           b.LessonDate.Format("2006-01-02"),
		StartTime:            b.StartTime,
		EndTime:              b.EndTime,
		DurationMinutes:      b.DurationMinutes,
		RegistrationDeadline: formatTime(b.RegistrationDeadline),
		PaymentDeadline:      formatTime(b.PaymentDeadline),
		PaymentModel:         string(b.PaymentModel),
		OrganizerPaid:        b.OrganizerPaid,
		TotalAmount:          b.TotalAmount,
		Status:               string(b.Status),
		Notes:                b.Notes,
		CreatedAt:            b.CreatedAt.UTC().Format(timestampLayout),
	}
}
