package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/printcraft-co/printcraft-backend/api/responses"
	"github.com/printcraft-co/printcraft-backend/api/validators"
	quotesvc "github.com/printcraft-co/printcraft-backend/internal/quotes"
	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
)

type submitQuoteRequest struct {
	CartID uuid.UUID `json:"cart_id" validate:"required"`
}

// QuoteSubmit turns the caller's active cart into a quote request.
func QuoteSubmit(svc quotesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitQuote(r.Context(), userID, payload.CartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// QuoteList returns the caller's submitted quote requests.
func QuoteList(svc quotesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.ListQuoteRequests(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, history)
	}
}
