package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/safar/marketplace-orders/internal/orders"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// respondOrderError maps placement errors onto HTTP statuses. Persistence
// failures hide the driver message.
func respondOrderError(w http.ResponseWriter, log zerolog.Logger, err error) {
	body := errorBody{
		Error:     err.Error(),
		ProductID: orders.ProductOf(err),
		Retryable: orders.Retryable(err),
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, orders.ErrInvalidRequest):
		status, body.Code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, orders.ErrForbidden):
		status, body.Code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, orders.ErrProductUnavailable):
		status, body.Code = http.StatusUnprocessableEntity, "PRODUCT_UNAVAILABLE"
	case errors.Is(err, orders.ErrInsufficientStock):
		status, body.Code = http.StatusConflict, "INSUFFICIENT_STOCK"
		body.Error = "insufficient stock, please try again"
	case errors.Is(err, orders.ErrPersistenceFailure):
		body.Code = "PERSISTENCE_FAILURE"
		body.Error = "order could not be recorded"
		if body.Retryable {
			status = http.StatusServiceUnavailable
			body.Error += ", please try again"
		} else {
			log.Error().Err(err).Msg("order rejected by the database")
		}
	default:
		log.Error().Err(err).Msg("unmapped order error")
		body.Error = "internal error"
	}

	respondJSON(w, status, body)
}

func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 || (max > 0 && v > max) {
		return def
	}
	return v
}
