package notification

import "time"

// Kind labels what triggered a notification
type Kind string

const (
	KindBookingInvite       Kind = "BOOKING_INVITE"
	KindParticipantDeclined Kind = "PARTICIPANT_DECLINED"
	KindBookingCancelled    Kind = "BOOKING_CANCELLED"
	KindBookingConfirmed    Kind = "BOOKING_CONFIRMED"
)

// ActionState tracks whether an actionable notification (one carrying
// accept/decline prompts) has been acted on. Processed notifications keep
// their history but render without action buttons.
type ActionState string

const (
	ActionStateNone      ActionState = "NONE"
	ActionStatePending   ActionState = "PENDING"
	ActionStateProcessed ActionState = "PROCESSED"
)

// Notification represents a notification in the system
type Notification struct {
	ID                int64       `json:"id"`
	RecipientID       int64       `json:"recipient_id"`
	Title             string      `json:"title"`
	Message           string      `json:"message"`
	Kind              Kind        `json:"kind"`
	ActionState       ActionState `json:"action_state"`
	IsRead            bool        `json:"is_read"`
	RelatedEntityType *string     `json:"related_entity_type,omitempty"`
	RelatedEntityID   *int64      `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}
