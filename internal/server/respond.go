package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dinehub/ordering/internal/cart"
	"github.com/dinehub/ordering/internal/catalog"
	"github.com/dinehub/ordering/internal/checkout"
	"github.com/dinehub/ordering/internal/orders"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps the purchase-failure taxonomy to HTTP statuses.
// The error text carries the offending item's name where the services
// supply one, so it is passed through verbatim.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, checkout.ErrItemVanished),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, orders.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, cart.ErrUnsellable),
		errors.Is(err, checkout.ErrItemUnsellable):
		respondError(w, http.StatusConflict, "unsellable", err.Error())
	case errors.Is(err, catalog.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, cart.ErrBranchMismatch):
		respondError(w, http.StatusConflict, "branch_mismatch", err.Error())
	case errors.Is(err, cart.ErrInvalidInput),
		errors.Is(err, checkout.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, checkout.ErrTransactionFailed):
		respondError(w, http.StatusServiceUnavailable, "transaction_failed", "could not complete the purchase, please retry")
	default:
		log.Printf("unexpected error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
