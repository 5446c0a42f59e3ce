/**
 * @description
 * In-memory Repository implementation. Cards live for the duration of the
 * process, which matches the simulation lifecycle the service is built for;
 * there is deliberately no durable backend. The repository holds the card-id
 * sequence so ids stay unique and increasing without any global counter.
 */

package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/transita/fare-service/internal/domain"
)

// MemoryRepository keeps cards and tickets in process memory.
type MemoryRepository struct {
	mu         sync.RWMutex
	nextCardID int64
	cards      map[int64]*domain.Card
	tickets    map[uuid.UUID]domain.Ticket
	byCard     map[int64][]uuid.UUID
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		cards:   make(map[int64]*domain.Card),
		tickets: make(map[uuid.UUID]domain.Ticket),
		byCard:  make(map[int64][]uuid.UUID),
	}
}

// CreateCard allocates the next card id and registers a new card.
func (r *MemoryRepository) CreateCard(_ context.Context, kind domain.CardKind, initialBalance int64, rules domain.Rules) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextCardID++
	card := domain.NewCard(r.nextCardID, kind, initialBalance, rules)
	r.cards[card.ID()] = card
	return card, nil
}

// GetCard returns the card with the given id.
func (r *MemoryRepository) GetCard(_ context.Context, id int64) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// SaveTicket retains an issued ticket, indexed by ticket id and by card.
func (r *MemoryRepository) SaveTicket(_ context.Context, ticket domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = ticket
	r.byCard[ticket.CardID] = append(r.byCard[ticket.CardID], ticket.ID)
	return nil
}

// GetTicket returns the ticket with the given id.
func (r *MemoryRepository) GetTicket(_ context.Context, id uuid.UUID) (domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return domain.Ticket{}, ErrTicketNotFound
	}
	return ticket, nil
}

// ListTicketsForCard returns the card's tickets in issue order.
func (r *MemoryRepository) ListTicketsForCard(_ context.Context, cardID int64) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byCard[cardID]
	tickets := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		tickets = append(tickets, r.tickets[id])
	}
	return tickets, nil
}
