/**
 * @description
 * Ticket is the immutable receipt for one completed trip. The bus builds it
 * after a successful payment and nothing mutates it afterward; Report renders
 * the printed form handed to the rider.
 */

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket records the outcome of one trip. Values are snapshots taken at issue
// time; treat the struct as read-only.
type Ticket struct {
	ID                 uuid.UUID `json:"id"`
	IssuedAt           time.Time `json:"issued_at"`
	CardType           string    `json:"card_type"`
	Line               string    `json:"line"`
	CardID             int64     `json:"card_id"`
	Tariff             int64     `json:"tariff"` // nominal tariff for the line, before discounts
	AmountCharged      int64     `json:"amount_charged"`
	PriorBalance       int64     `json:"prior_balance"`
	RemainingBalance   int64     `json:"remaining_balance"`
	IsTransfer         bool      `json:"is_transfer"`
	TransferWasCharged bool      `json:"transfer_was_charged"`
}

// Report renders the rider-facing receipt.
func (t Ticket) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", t.IssuedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Card type: %s\n", t.CardType)
	fmt.Fprintf(&b, "Line: %s\n", t.Line)
	fmt.Fprintf(&b, "Card ID: %d\n", t.CardID)
	fmt.Fprintf(&b, "Nominal tariff: %d\n", t.Tariff)
	fmt.Fprintf(&b, "Prior balance: %d\n", t.PriorBalance)
	fmt.Fprintf(&b, "Amount charged: %d\n", t.AmountCharged)
	fmt.Fprintf(&b, "Remaining balance: %d", t.RemainingBalance)
	if t.IsTransfer {
		if t.TransferWasCharged {
			b.WriteString("\nTRANSFER PAID")
		} else {
			b.WriteString("\nTRANSFER FREE")
		}
	}
	if t.PriorBalance < 0 {
		b.WriteString("\nNote: part of this charge settled prior debt.")
	}
	return b.String()
}
