package hours

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/groupbook/pkg/middleware"
	"github.com/fkhayef/groupbook/pkg/response"
)

// PurchaseRequest represents the request body for buying a package
type PurchaseRequest struct {
	Name      string     `json:"name" validate:"required"`
	Hours     float64    `json:"hours" validate:"required,gt=0"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Handler handles HTTP requests for prepaid-package operations
type Handler struct {
	service *Service
}

// NewHandler creates a new hours handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for package endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Purchase)
	r.Get("/", h.List)

	return r
}

// Purchase handles POST /packages
// @Summary      Purchase a prepaid-hours package
// @Tags         packages
// @Accept       json
// @Produce      json
// @Param        request body PurchaseRequest true "Package purchase request"
// @Success      201 {object} response.APIResponse{data=CustomerPackage}
// @Failure      400 {object} response.APIResponse
// @Router       /packages [post]
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "Package name is required")
		return
	}

	pkg, err := h.service.Purchase(r.Context(), userID, req.Name, req.Hours, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, ErrInvalidHours) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to purchase package")
		return
	}

	response.JSON(w, http.StatusCreated, pkg)
}

// List handles GET /packages
// @Summary      List my prepaid packages
// @Tags         packages
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]CustomerPackage}
// @Router       /packages [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	packages, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list packages")
		return
	}

	response.JSON(w, http.StatusOK, packages)
}
