package wallet

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/groupbook/pkg/middleware"
	"github.com/fkhayef/groupbook/pkg/response"
)

// TopUpRequest represents the request body for funding a wallet
type TopUpRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// BalanceResponse represents the caller's balance
type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// Handler handles HTTP requests for wallet operations
type Handler struct {
	service *Service
}

// NewHandler creates a new wallet handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for wallet endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetBalance)
	r.Post("/top-up", h.TopUp)
	r.Get("/transactions", h.ListTransactions)

	return r
}

// GetBalance handles GET /wallet
// @Summary      Get wallet balance
// @Tags         wallet
// @Produce      json
// @Success      200 {object} response.APIResponse{data=BalanceResponse}
// @Router       /wallet [get]
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to get balance")
		return
	}

	response.JSON(w, http.StatusOK, &BalanceResponse{Balance: balance})
}

// TopUp handles POST /wallet/top-up
// @Summary      Fund the wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request body TopUpRequest true "Top-up request"
// @Success      201 {object} response.APIResponse
// @Failure      400 {object} response.APIResponse
// @Router       /wallet/top-up [post]
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		response.BadRequest(w, "Amount must be positive")
		return
	}

	txnID, err := h.service.TopUp(r.Context(), userID, req.Amount)
	if err != nil {
		response.InternalError(w, "Failed to top up wallet")
		return
	}

	response.JSON(w, http.StatusCreated, map[string]int64{"transaction_id": txnID})
}

// ListTransactions handles GET /wallet/transactions
// @Summary      List wallet transactions
// @Tags         wallet
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]Transaction}
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	transactions, total, err := h.service.ListTransactions(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list transactions")
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	response.JSONWithMeta(w, http.StatusOK, transactions, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}
