package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/groupbook/pkg/middleware"
	"github.com/fkhayef/groupbook/pkg/response"
)

// Handler handles HTTP requests for group booking operations
type Handler struct {
	service *Service
}

// NewHandler creates a new booking handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for booking endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateBooking)
	r.Get("/", h.ListBookings)
	r.Get("/{id}", h.GetBooking)
	r.Post("/{id}/invitations", h.InviteParticipants)
	r.Post("/{id}/participants", h.AddParticipants)
	r.Post("/{id}/accept", h.AcceptParticipation)
	r.Post("/{id}/decline", h.DeclineParticipation)
	r.Post("/{id}/pay", h.SettleGroup)
	r.Post("/{id}/cancel", h.CancelBooking)

	return r
}

// ParticipantRoutes returns the router for participant endpoints
func (h *Handler) ParticipantRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/{id}/pay", h.SettleParticipant)

	return r
}

// InvitationRoutes returns the router for token-based invitation endpoints.
// Resolve and decline are reachable without a resolved caller identity: the
// token itself is the capability. Accepting binds the invitation to a
// registered account, so only that route requires the caller header.
func (h *Handler) InvitationRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{token}", h.ResolveInvitation)
	r.Post("/{token}/decline", h.DeclineInvitation)

	r.Group(func(r chi.Router) {
		r.Use(middleware.CallerIdentity)
		r.Post("/{token}/accept", h.RedeemInvitation)
	})

	return r
}

// CreateBooking handles POST /bookings
// @Summary      Create a group booking
// @Description  Creates a group booking and adds the organizer as its first accepted participant
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        booking body CreateBookingRequest true "Booking details"
// @Success      201 {object} response.APIResponse{data=BookingResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /bookings [post]
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	booking, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	details, err := h.service.GetDetails(r.Context(), booking.ID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, details)
}

// ListBookings handles GET /bookings
// @Summary      List the caller's group bookings
// @Tags         bookings
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]BookingResponse}
// @Router       /bookings [get]
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	bookings, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, bookings)
}

// GetBooking handles GET /bookings/{id}
// @Summary      Get a group booking with its participants
// @Description  Invitation tokens are included only when the caller is the organizer
// @Tags         bookings
// @Produce      json
// @Param        id path int true "Booking ID"
// @Success      200 {object} response.APIResponse{data=BookingResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /bookings/{id} [get]
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	bookingID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	details, err := h.service.GetDetails(r.Context(), bookingID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, details)
}

// InviteParticipants handles POST /bookings/{id}/invitations
// @Summary      Invite people by email
// @Description  Creates token-based invitations; the whole batch is rejected when it would exceed capacity
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path int true "Booking ID"
// @Param        invitations body InviteRequest true "Invitation candidates"
// @Success      201 {object} response.APIResponse{data=[]ParticipantResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /bookings/{id}/invitations [post]
func (h *Handler) InviteParticipants(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	bookingID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	created, err := h.service.Invite(r.Context(), bookingID, userID, req.Participants)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]*ParticipantResponse, 0, len(created))
	for _, p := range created {
		out = append(out, p.ToResponse(true))
	}

	response.JSON(w, http.StatusCreated, out)
}

// AddParticipants handles POST /bookings/{id}/participants
// @Summary      Add registered users as participants
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path int true "Booking ID"
// @Param        participants body AddParticipantsRequest true "User IDs to add"
// @Success      201 {object} response.APIResponse{data=[]ParticipantResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /bookings/{id}/participants [post]
func (h *Handler) AddParticipants(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	bookingID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req AddParticipantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	created, err := h.service.AddByIdentity(r.Context(), bookingID, userID, req.UserIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]*ParticipantResponse, 0, len(created))
	for _, p := range created {
		out = append(out, p.ToResponse(false))
	}

	response.JSON(w, http.StatusCreated, out)
}

// AcceptParticipation handles POST /bookings/{id}/accept
// @Summary      Accept participation in a booking
// @Description  No-op success when the caller already accepted
// @Tags         bookings
// @Produce      json
// @Param        id path int true "Booking ID"
// @Success      200 {object} response.APIResponse{data=ParticipantResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /bookings/{id}/accept [post]
func (h *Handler) AcceptParticipation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	bookingID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	participant, err := h.service.Accept(r.Context(), bookingID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, participant.ToResponse(false))
}

// DeclineParticipation handles POST /bookings/{id}/decline
// @Summary      Decline participation in a booking
// @Description  Idempotent when the caller already declined; notifies the organizer
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path int true "Booking ID"
// @Param        decline body DeclineRequest false "Decline reason"
// @Success      200 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /bookings/{id}/decline [post]
func (h *Handler) DeclineParticipation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	bookingID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req DeclineRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.Decline(r.Context(), bookingID, userID, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Participation declined"})
}

// SettleGroup handles POST /bookings/{id}/pay
// @Summary      Pay for the whole group as the organizer
// @Description  Charges the organizer for every non-terminal participant and marks them covered
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path int true "Booking ID"
// @Param        payment body SettleGroupRequest true "Payment method"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /bookings/{id}/pay [post]
func (h *Handler) SettleGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	bookingID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req SettleGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settlement, err := h.service.SettleOrganizer(r.Context(), bookingID, userID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, settlement)
}

// CancelBooking handles POST /bookings/{id}/cancel
// @Summary      Cancel a group booking
// @Description  Refunds captured payments and moves every open participant to cancelled
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path int true "Booking ID"
// @Param        cancellation body CancelRequest true "Cancellation reason"
// @Success      200 {object} response.APIResponse{data=CancellationResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /bookings/{id}/cancel [post]
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	bookingID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.Cancel(r.Context(), bookingID, userID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// SettleParticipant handles POST /participants/{id}/pay
// @Summary      Pay an individual participant's share
// @Tags         participants
// @Accept       json
// @Produce      json
// @Param        id path int true "Participant ID"
// @Param        payment body SettleRequest true "Payment details"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /participants/{id}/pay [post]
func (h *Handler) SettleParticipant(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	participantID, err := parseID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid participant ID")
		return
	}

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settlement, err := h.service.SettleParticipant(r.Context(), participantID, userID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, settlement)
}

// ResolveInvitation handles GET /invitations/{token}
// @Summary      Resolve an invitation token
// @Description  Read-only preview of the invitation and its booking
// @Tags         invitations
// @Produce      json
// @Param        token path string true "Invitation token"
// @Success      200 {object} response.APIResponse{data=InvitationResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /invitations/{token} [get]
func (h *Handler) ResolveInvitation(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	invitation, err := h.service.ResolveByToken(r.Context(), token)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, invitation)
}

// RedeemInvitation handles POST /invitations/{token}/accept
// @Summary      Redeem an invitation token
// @Description  Binds the caller's identity to the invited participant and accepts
// @Tags         invitations
// @Produce      json
// @Param        token path string true "Invitation token"
// @Success      200 {object} response.APIResponse{data=ParticipantResponse}
// @Failure      409 {object} response.APIResponse
// @Failure      410 {object} response.APIResponse
// @Router       /invitations/{token}/accept [post]
func (h *Handler) RedeemInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	token := chi.URLParam(r, "token")

	participant, err := h.service.Redeem(r.Context(), token, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, participant.ToResponse(false))
}

// DeclineInvitation handles POST /invitations/{token}/decline
// @Summary      Decline an invitation token
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        token path string true "Invitation token"
// @Param        decline body DeclineRequest false "Decline reason"
// @Success      200 {object} response.APIResponse
// @Failure      410 {object} response.APIResponse
// @Router       /invitations/{token}/decline [post]
func (h *Handler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req DeclineRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.DeclineByToken(r.Context(), token, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Invitation declined"})
}

func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// writeError maps service errors onto the API's status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCapacity),
		errors.Is(err, ErrNegativePrice),
		errors.Is(err, ErrInvalidPaymentType),
		errors.Is(err, ErrNoCandidates),
		errors.Is(err, ErrMissingPackage),
		errors.Is(err, ErrMissingReference),
		errors.Is(err, ErrUnknownMethod):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrParticipantNotFound),
		errors.Is(err, ErrInvitationNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrCapacityExceeded):
		response.Conflict(w, "CAPACITY_EXCEEDED", err.Error())
	case errors.Is(err, ErrWrongPaymentModel):
		response.Conflict(w, "WRONG_PAYMENT_MODEL", err.Error())
	case errors.Is(err, ErrAlreadyPaid):
		response.Conflict(w, "ALREADY_PAID", err.Error())
	case errors.Is(err, ErrInvitationAlreadyProcessed):
		response.Conflict(w, "ALREADY_PROCESSED", err.Error())
	case errors.Is(err, ErrInvalidState):
		response.Conflict(w, "INVALID_STATE", err.Error())
	case errors.Is(err, ErrInvitationExpired):
		response.Gone(w, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		response.UnprocessableEntity(w, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, ErrInsufficientHours):
		response.UnprocessableEntity(w, "INSUFFICIENT_HOURS", err.Error())
	default:
		response.InternalError(w, "Something went wrong")
	}
}
