package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"seatswap/ledger"
	"seatswap/native/market"
	"seatswap/observability"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeDomainError maps the marketplace error taxonomy onto HTTP statuses
// with stable codes so integrators can match on cause.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		authErr    *market.AuthorizationError
		stateErr   *market.StateError
		precondErr *market.PreconditionError
		timingErr  *market.TimingError
	)
	switch {
	case errors.As(err, &authErr):
		observability.Market().Rejections.WithLabelValues("authorization").Inc()
		writeJSONError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, market.ErrListingNotFound):
		observability.Market().Rejections.WithLabelValues("state").Inc()
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &stateErr):
		observability.Market().Rejections.WithLabelValues("state").Inc()
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.As(err, &precondErr):
		observability.Market().Rejections.WithLabelValues("precondition").Inc()
		writeJSONError(w, http.StatusBadRequest, "precondition_failed", err.Error())
	case errors.As(err, &timingErr):
		observability.Market().Rejections.WithLabelValues("timing").Inc()
		writeJSONError(w, http.StatusConflict, "deadline_not_reached", err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientAllowance),
		errors.Is(err, ledger.ErrNegativeAmount):
		observability.Market().Rejections.WithLabelValues("ledger").Inc()
		writeJSONError(w, http.StatusBadRequest, "ledger_rejected", err.Error())
	default:
		observability.Market().Rejections.WithLabelValues("internal").Inc()
		writeJSONError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
