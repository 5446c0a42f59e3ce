/**
 * @description
 * This file defines the `Repository` interface, the contract for all card and
 * ticket access the fare-service needs. The interface decouples the business
 * logic from the concrete storage so the in-memory implementation used by the
 * simulation could later be swapped for a durable one without touching the
 * service layer.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: Ticket identifiers.
 * - internal/domain: The service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/transita/fare-service/internal/domain"
)

var (
	// ErrCardNotFound is returned when no card exists with the given id.
	ErrCardNotFound = errors.New("card not found")
	// ErrTicketNotFound is returned when no ticket exists with the given id.
	ErrTicketNotFound = errors.New("ticket not found")
)

// Repository defines the set of methods for card and ticket access. The
// repository owns the card-id sequence: ids are unique and strictly
// increasing in creation order.
type Repository interface {
	// Card methods
	CreateCard(ctx context.Context, kind domain.CardKind, initialBalance int64, rules domain.Rules) (*domain.Card, error)
	GetCard(ctx context.Context, id int64) (*domain.Card, error)

	// Ticket methods
	SaveTicket(ctx context.Context, ticket domain.Ticket) error
	GetTicket(ctx context.Context, id uuid.UUID) (domain.Ticket, error)
	ListTicketsForCard(ctx context.Context, cardID int64) ([]domain.Ticket, error)
}
