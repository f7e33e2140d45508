package server

import (
	"encoding/json"
	"net/http"

	"github.com/dinehub/ordering/internal/checkout"
	"github.com/dinehub/ordering/internal/orders"
)

type CheckoutHandler struct {
	engine *checkout.Engine
}

func NewCheckoutHandler(engine *checkout.Engine) *CheckoutHandler {
	return &CheckoutHandler{engine: engine}
}

type BuyNowRequestDTO struct {
	ItemID    string `json:"item_id"`
	Quantity  int64  `json:"quantity"`
	OrderType string `json:"order_type,omitempty"`
}

// Confirm converts the caller's cart into an order.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	confirmation, err := h.engine.ConfirmOrder(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, confirmation)
}

// BuyNow purchases a single item directly, bypassing the cart.
func (h *CheckoutHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req BuyNowRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	confirmation, err := h.engine.BuyNow(r.Context(), userID, req.ItemID, req.Quantity, orders.Type(req.OrderType))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, confirmation)
}
