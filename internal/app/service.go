/**
 * @description
 * The application service wires the fare domain to the outside world: it
 * creates cards through the repository, runs trips through the bus, retains
 * issued tickets, and publishes fare events when a broker is configured.
 * All timestamps flow through the injected clock so simulations stay
 * deterministic.
 *
 * @dependencies
 * - log/slog: Structured logging.
 * - internal/domain, internal/store: Core models and storage contract.
 * - pkg/rabbitmq: Event publication.
 */

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/transita/fare-service/internal/domain"
	"github.com/transita/fare-service/internal/store"
	"github.com/transita/fare-service/pkg/rabbitmq"
)

var (
	// ErrInvalidCardKind is returned when a card is requested with an
	// unknown card type.
	ErrInvalidCardKind = errors.New("invalid card kind")
	// ErrInvalidInitialBalance is returned when a card is requested with a
	// negative opening balance.
	ErrInvalidInitialBalance = errors.New("initial balance must not be negative")
	// ErrTopUpRejected is returned when the recharge amount is not on the
	// accepted allow-list.
	ErrTopUpRejected = errors.New("top-up amount not accepted")
)

// Service is the core application service for the fare-service.
type Service struct {
	repo     store.Repository
	bus      *domain.Bus
	rules    domain.Rules
	clock    domain.Clock
	producer rabbitmq.Publisher
	exchange string
	logger   *slog.Logger
}

// NewService creates the application service. producer may be nil when no
// broker is configured; events are then skipped.
func NewService(repo store.Repository, rules domain.Rules, clock domain.Clock, producer rabbitmq.Publisher, exchange string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		bus:      domain.NewBus(rules),
		rules:    rules,
		clock:    clock,
		producer: producer,
		exchange: exchange,
		logger:   logger,
	}
}

// Rules returns the fare rules the service operates under.
func (s *Service) Rules() domain.Rules { return s.rules }

// CreateCard registers a new card and returns its snapshot.
func (s *Service) CreateCard(ctx context.Context, kind domain.CardKind, initialBalance int64) (domain.CardStatus, error) {
	if !kind.Valid() {
		return domain.CardStatus{}, ErrInvalidCardKind
	}
	if initialBalance < 0 {
		return domain.CardStatus{}, ErrInvalidInitialBalance
	}
	card, err := s.repo.CreateCard(ctx, kind, initialBalance, s.rules)
	if err != nil {
		return domain.CardStatus{}, err
	}
	s.logger.Info("card created", "card_id", card.ID(), "card_type", string(kind), "balance", card.Balance())
	return card.Status(), nil
}

// GetCard returns the snapshot of an existing card.
func (s *Service) GetCard(ctx context.Context, cardID int64) (domain.CardStatus, error) {
	card, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return domain.CardStatus{}, err
	}
	return card.Status(), nil
}

// TopUp credits a card with one of the accepted recharge amounts. Amounts
// off the allow-list return ErrTopUpRejected with the card unchanged.
func (s *Service) TopUp(ctx context.Context, cardID int64, amount int64) (domain.CardStatus, error) {
	card, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return domain.CardStatus{}, err
	}

	// The card signals rejection by leaving its state unchanged, so compare
	// the credited total (balance plus pending) around the call.
	before := card.Balance() + card.PendingCredit()
	card.TopUp(amount)
	if card.Balance()+card.PendingCredit() == before {
		return card.Status(), ErrTopUpRejected
	}

	s.logger.Info("card topped up", "card_id", cardID, "amount", amount, "balance", card.Balance(), "pending_credit", card.PendingCredit())
	s.publishTopUp(ctx, card, amount)
	return card.Status(), nil
}

// IssueTicket runs one trip for a card. A nil tariff uses the default urban
// tariff; a nil at uses the service clock. The issued ticket is retained and
// announced on the event exchange.
func (s *Service) IssueTicket(ctx context.Context, cardID int64, line string, tariff *int64, at *time.Time) (domain.Ticket, error) {
	card, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return domain.Ticket{}, err
	}

	fare := s.rules.DefaultTariff
	if tariff != nil {
		fare = *tariff
	}
	now := s.clock()
	if at != nil {
		now = *at
	}

	ticket, err := s.bus.IssueTicket(card, line, fare, now)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentRejected) {
			s.logger.Info("trip rejected", "card_id", cardID, "line", line, "tariff", fare)
		}
		return domain.Ticket{}, err
	}

	if err := s.repo.SaveTicket(ctx, *ticket); err != nil {
		return domain.Ticket{}, err
	}
	s.logger.Info("ticket issued",
		"ticket_id", ticket.ID,
		"card_id", cardID,
		"line", line,
		"amount_charged", ticket.AmountCharged,
		"is_transfer", ticket.IsTransfer,
	)
	s.publishTicket(ctx, *ticket)
	return *ticket, nil
}

// GetTicket returns a previously issued ticket.
func (s *Service) GetTicket(ctx context.Context, ticketID uuid.UUID) (domain.Ticket, error) {
	return s.repo.GetTicket(ctx, ticketID)
}

// TicketReport renders the printed receipt for a previously issued ticket.
func (s *Service) TicketReport(ctx context.Context, ticketID uuid.UUID) (string, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	return ticket.Report(), nil
}

// ListTicketsForCard returns a card's tickets in issue order.
func (s *Service) ListTicketsForCard(ctx context.Context, cardID int64) ([]domain.Ticket, error) {
	if _, err := s.repo.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	return s.repo.ListTicketsForCard(ctx, cardID)
}

// AddInterurbanLine registers a line as interurban.
func (s *Service) AddInterurbanLine(line string) {
	s.bus.AddInterurbanLine(line)
	s.logger.Info("interurban line registered", "line", line)
}

// RemoveInterurbanLine unregisters an interurban line.
func (s *Service) RemoveInterurbanLine(line string) {
	s.bus.RemoveInterurbanLine(line)
	s.logger.Info("interurban line removed", "line", line)
}

// IsInterurbanLine reports whether a line charges the interurban tariff.
func (s *Service) IsInterurbanLine(line string) bool {
	return s.bus.IsInterurbanLine(line)
}

func (s *Service) publishTicket(ctx context.Context, ticket domain.Ticket) {
	if s.producer == nil {
		return
	}
	event := rabbitmq.TicketIssuedEvent{
		TicketID:   ticket.ID,
		CardID:     ticket.CardID,
		Line:       ticket.Line,
		Amount:     ticket.AmountCharged,
		IsTransfer: ticket.IsTransfer,
		IssuedAt:   ticket.IssuedAt,
	}
	if err := s.producer.PublishTicketIssued(ctx, s.exchange, event); err != nil {
		s.logger.Warn("ticket event publish failed", "ticket_id", ticket.ID, "error", err)
	}
}

func (s *Service) publishTopUp(ctx context.Context, card *domain.Card, amount int64) {
	if s.producer == nil {
		return
	}
	event := rabbitmq.CardToppedUpEvent{
		CardID:        card.ID(),
		Amount:        amount,
		NewBalance:    card.Balance(),
		PendingCredit: card.PendingCredit(),
		Timestamp:     s.clock(),
	}
	if err := s.producer.PublishCardToppedUp(ctx, s.exchange, event); err != nil {
		s.logger.Warn("top-up event publish failed", "card_id", card.ID(), "error", err)
	}
}
