/**
 * @description
 * This file contains the HTTP handlers for the fare-service's API endpoints.
 * Handlers parse incoming requests, call the application service, and write
 * the HTTP response. They act as the bridge between the web layer and the
 * fare logic.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/transita/fare-service/internal/app"
	"github.com/transita/fare-service/internal/domain"
	"github.com/transita/fare-service/internal/store"
)

// FareHandlers holds the application service that handlers will use.
type FareHandlers struct {
	service *app.Service
}

// NewFareHandlers creates a new instance of FareHandlers.
func NewFareHandlers(service *app.Service) *FareHandlers {
	return &FareHandlers{service: service}
}

type createCardRequest struct {
	CardType       domain.CardKind `json:"card_type"`
	InitialBalance int64           `json:"initial_balance"`
}

type topUpRequest struct {
	Amount int64 `json:"amount"`
}

// tripRequest describes one boarding. Tariff defaults to the urban tariff;
// Time defaults to the service clock and exists so simulation drivers can
// control the timeline per request.
type tripRequest struct {
	CardID int64      `json:"card_id"`
	Line   string     `json:"line"`
	Tariff *int64     `json:"tariff,omitempty"`
	Time   *time.Time `json:"time,omitempty"`
}

type interurbanLineResponse struct {
	Line       string `json:"line"`
	Interurban bool   `json:"interurban"`
}

// CreateCardHandler registers a new fare card.
func (h *FareHandlers) CreateCardHandler(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, err := h.service.CreateCard(r.Context(), req.CardType, req.InitialBalance)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, status)
}

// GetCardHandler returns a card's current state.
func (h *FareHandlers) GetCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID, ok := h.cardIDParam(w, r)
	if !ok {
		return
	}
	status, err := h.service.GetCard(r.Context(), cardID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

// TopUpHandler credits a card with an accepted recharge amount.
func (h *FareHandlers) TopUpHandler(w http.ResponseWriter, r *http.Request) {
	cardID, ok := h.cardIDParam(w, r)
	if !ok {
		return
	}
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, err := h.service.TopUp(r.Context(), cardID, req.Amount)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

// TripHandler runs one trip and returns the issued ticket.
func (h *FareHandlers) TripHandler(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Line == "" {
		h.writeError(w, http.StatusBadRequest, "Line is required")
		return
	}
	ticket, err := h.service.IssueTicket(r.Context(), req.CardID, req.Line, req.Tariff, req.Time)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, ticket)
}

// GetTicketHandler returns a previously issued ticket.
func (h *FareHandlers) GetTicketHandler(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := h.ticketIDParam(w, r)
	if !ok {
		return
	}
	ticket, err := h.service.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ticket)
}

// TicketReportHandler returns the rider-facing receipt as plain text.
func (h *FareHandlers) TicketReportHandler(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := h.ticketIDParam(w, r)
	if !ok {
		return
	}
	report, err := h.service.TicketReport(r.Context(), ticketID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(report)); err != nil {
		log.Printf("level=error component=api msg=\"report write failed\" ticket_id=%s err=%v", ticketID, err)
	}
}

// ListCardTicketsHandler returns a card's tickets in issue order.
func (h *FareHandlers) ListCardTicketsHandler(w http.ResponseWriter, r *http.Request) {
	cardID, ok := h.cardIDParam(w, r)
	if !ok {
		return
	}
	tickets, err := h.service.ListTicketsForCard(r.Context(), cardID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tickets)
}

// AddInterurbanLineHandler registers a line as interurban.
func (h *FareHandlers) AddInterurbanLineHandler(w http.ResponseWriter, r *http.Request) {
	line := chi.URLParam(r, "line")
	h.service.AddInterurbanLine(line)
	h.writeJSON(w, http.StatusOK, interurbanLineResponse{Line: line, Interurban: true})
}

// RemoveInterurbanLineHandler unregisters an interurban line.
func (h *FareHandlers) RemoveInterurbanLineHandler(w http.ResponseWriter, r *http.Request) {
	line := chi.URLParam(r, "line")
	h.service.RemoveInterurbanLine(line)
	h.writeJSON(w, http.StatusOK, interurbanLineResponse{Line: line, Interurban: false})
}

// GetInterurbanLineHandler reports whether a line is interurban.
func (h *FareHandlers) GetInterurbanLineHandler(w http.ResponseWriter, r *http.Request) {
	line := chi.URLParam(r, "line")
	h.writeJSON(w, http.StatusOK, interurbanLineResponse{Line: line, Interurban: h.service.IsInterurbanLine(line)})
}

func (h *FareHandlers) cardIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	cardID, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid card id")
		return 0, false
	}
	return cardID, true
}

func (h *FareHandlers) ticketIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ticketID, err := uuid.Parse(chi.URLParam(r, "ticketID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid ticket id")
		return uuid.Nil, false
	}
	return ticketID, true
}

// writeServiceError maps service and domain errors onto HTTP statuses.
func (h *FareHandlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrCardNotFound):
		h.writeError(w, http.StatusNotFound, "Card not found")
	case errors.Is(err, store.ErrTicketNotFound):
		h.writeError(w, http.StatusNotFound, "Ticket not found")
	case errors.Is(err, app.ErrInvalidCardKind):
		h.writeError(w, http.StatusBadRequest, "Unknown card type")
	case errors.Is(err, app.ErrInvalidInitialBalance):
		h.writeError(w, http.StatusBadRequest, "Initial balance must not be negative")
	case errors.Is(err, domain.ErrNegativeTariff):
		h.writeError(w, http.StatusBadRequest, "Tariff must not be negative")
	case errors.Is(err, app.ErrTopUpRejected):
		h.writeError(w, http.StatusUnprocessableEntity, "Top-up amount not accepted")
	case errors.Is(err, domain.ErrPaymentRejected):
		h.writeError(w, http.StatusUnprocessableEntity, "Payment rejected by card")
	default:
		log.Printf("level=error component=api msg=\"unexpected service error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *FareHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *FareHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
