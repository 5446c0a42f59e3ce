/**
 * @description
 * Bus orchestrates one trip: it resolves the effective tariff for the line,
 * decides transfer eligibility, charges the card under its own policy, and
 * issues the ticket. The bus keeps no card state; the interurban line set is
 * the only thing it owns.
 *
 * @notes
 * - A bus is safe to share across cards but not across concurrent trips on
 *   the same card; callers serialize per card.
 */

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrPaymentRejected means the card refused the charge: debt limit,
	// franchise-window violation, or the half-fare minimum gap. A normal
	// business outcome, not a bug.
	ErrPaymentRejected = errors.New("payment rejected by card")

	// ErrNegativeTariff flags a caller bug; a tariff can never be negative.
	ErrNegativeTariff = errors.New("tariff must not be negative")
)

// Bus issues tickets for trips against fare cards.
type Bus struct {
	rules      Rules
	interurban map[string]struct{}
}

// NewBus creates a bus operating under the given fare rules.
func NewBus(rules Rules) *Bus {
	return &Bus{rules: rules, interurban: make(map[string]struct{})}
}

// AddInterurbanLine registers a line as interurban; trips on it charge the
// fixed interurban tariff regardless of the tariff the terminal supplies.
func (b *Bus) AddInterurbanLine(line string) {
	b.interurban[line] = struct{}{}
}

// RemoveInterurbanLine unregisters an interurban line.
func (b *Bus) RemoveInterurbanLine(line string) {
	delete(b.interurban, line)
}

// IsInterurbanLine reports whether the line is registered as interurban.
func (b *Bus) IsInterurbanLine(line string) bool {
	_, ok := b.interurban[line]
	return ok
}

// IssueTicket runs one trip for the card on the given line and returns the
// receipt. A rejected payment returns ErrPaymentRejected and leaves the card
// untouched beyond the zeroed last-payment marker.
func (b *Bus) IssueTicket(card *Card, line string, tariff int64, now time.Time) (*Ticket, error) {
	if tariff < 0 {
		return nil, ErrNegativeTariff
	}

	effective := tariff
	if b.IsInterurbanLine(line) {
		effective = b.rules.InterurbanTariff
	}

	prior := card.Balance()
	isTransfer := false

	if b.transferApplies(card, line, now) {
		// Free transfer: charge zero, but the card's own gating (for
		// example the half-fare minimum gap) may still reject the trip.
		if !card.Pay(0, now) {
			return nil, ErrPaymentRejected
		}
		isTransfer = true
	} else {
		amount := effective
		if card.Kind() == KindNormal {
			amount = card.FrequentUseTariff(effective, now)
		}
		if !card.Pay(amount, now) {
			return nil, ErrPaymentRejected
		}
		// Only a trip that actually collected a fare opens or restarts the
		// transfer window; free franchise rides never grant transfers.
		if card.LastPaymentAmount() > 0 {
			card.startTransferWindow(now, line)
		}
	}

	charged := card.LastPaymentAmount()
	return &Ticket{
		ID:                 uuid.New(),
		IssuedAt:           now,
		CardType:           card.Kind().Label(),
		Line:               line,
		CardID:             card.ID(),
		Tariff:             effective,
		AmountCharged:      charged,
		PriorBalance:       prior,
		RemainingBalance:   card.Balance(),
		IsTransfer:         isTransfer,
		TransferWasCharged: isTransfer && charged > 0,
	}, nil
}

// transferApplies checks the three transfer conditions: an open window that
// has not aged past the validity span, the transfer schedule, and a line
// different from the one that opened the window.
func (b *Bus) transferApplies(card *Card, line string, now time.Time) bool {
	start := card.TransferWindowStart()
	if start.IsZero() {
		return false
	}
	if now.Sub(start) > b.rules.TransferValidity || now.Before(start) {
		return false
	}
	if !b.rules.TransferWindow.Contains(now) {
		return false
	}
	return card.TransferLine() != "" && card.TransferLine() != line
}
