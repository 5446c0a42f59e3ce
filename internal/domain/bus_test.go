package domain

import (
	"errors"
	"testing"
	"time"
)

func TestIssueTicketNormalTrip(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindNormal, 10000)

	ticket, err := bus.IssueTicket(card, "145", 1580, mondayAt(10, 0, 0))
	if err != nil {
		t.Fatalf("IssueTicket returned error: %v", err)
	}
	if ticket.AmountCharged != 1580 {
		t.Fatalf("amount charged = %d, want 1580", ticket.AmountCharged)
	}
	if ticket.RemainingBalance != 8420 {
		t.Fatalf("remaining balance = %d, want 8420", ticket.RemainingBalance)
	}
	if ticket.PriorBalance != 10000 {
		t.Fatalf("prior balance = %d, want 10000", ticket.PriorBalance)
	}
	if ticket.IsTransfer {
		t.Fatal("first trip should not be a transfer")
	}
	if ticket.CardID != card.ID() {
		t.Fatalf("card id = %d, want %d", ticket.CardID, card.ID())
	}
	if ticket.CardType != "Normal" {
		t.Fatalf("card type label = %q, want Normal", ticket.CardType)
	}
}

func TestIssueTicketFreeTransfer(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindNormal, 10000)

	if _, err := bus.IssueTicket(card, "145", 1580, mondayAt(10, 0, 0)); err != nil {
		t.Fatalf("first trip failed: %v", err)
	}

	ticket, err := bus.IssueTicket(card, "102", 1580, mondayAt(10, 30, 0))
	if err != nil {
		t.Fatalf("transfer trip failed: %v", err)
	}
	if !ticket.IsTransfer {
		t.Fatal("second trip on a different line within the hour should be a transfer")
	}
	if ticket.AmountCharged != 0 {
		t.Fatalf("transfer charged %d, want 0", ticket.AmountCharged)
	}
	if ticket.TransferWasCharged {
		t.Fatal("free transfer should not be marked as charged")
	}
	if ticket.RemainingBalance != 8420 {
		t.Fatalf("remaining balance = %d, want 8420", ticket.RemainingBalance)
	}

	// The zero-charge transfer must not restart the window.
	if !card.TransferWindowStart().Equal(mondayAt(10, 0, 0)) {
		t.Fatalf("transfer window restarted at %v", card.TransferWindowStart())
	}
}

func TestIssueTicketTransferRules(t *testing.T) {
	saturday := func(hour, min int) time.Time {
		return time.Date(2025, 6, 7, hour, min, 0, 0, time.UTC)
	}

	tests := []struct {
		name         string
		firstAt      time.Time
		firstLine    string
		secondAt     time.Time
		secondLine   string
		wantTransfer bool
	}{
		{"different line within hour", mondayAt(10, 0, 0), "145", mondayAt(10, 59, 0), "102", true},
		{"same line is charged", mondayAt(10, 0, 0), "145", mondayAt(10, 30, 0), "145", false},
		{"window expired", mondayAt(10, 0, 0), "145", mondayAt(11, 0, 1), "102", false},
		{"exactly one hour still valid", mondayAt(10, 0, 0), "145", mondayAt(11, 0, 0), "102", true},
		{"saturday transfers allowed", saturday(10, 0), "145", saturday(10, 30), "102", true},
		{"transfer schedule closes at ten pm", saturday(21, 30), "145", saturday(22, 0), "102", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus(DefaultRules())
			card := newTestCard(KindNormal, 20000)

			if _, err := bus.IssueTicket(card, tt.firstLine, 1580, tt.firstAt); err != nil {
				t.Fatalf("first trip failed: %v", err)
			}
			ticket, err := bus.IssueTicket(card, tt.secondLine, 1580, tt.secondAt)
			if err != nil {
				t.Fatalf("second trip failed: %v", err)
			}
			if ticket.IsTransfer != tt.wantTransfer {
				t.Fatalf("IsTransfer = %t, want %t", ticket.IsTransfer, tt.wantTransfer)
			}
			if tt.wantTransfer && ticket.AmountCharged != 0 {
				t.Fatalf("transfer charged %d, want 0", ticket.AmountCharged)
			}
			if !tt.wantTransfer && ticket.AmountCharged != 1580 {
				t.Fatalf("charged %d, want full 1580", ticket.AmountCharged)
			}
		})
	}
}

func TestTransferRejectedAfterScheduleClose(t *testing.T) {
	// Open the window late on Saturday; the follow-up trip lands after the
	// transfer schedule has closed and must pay full fare.
	bus := NewBus(DefaultRules())
	card := newTestCard(KindNormal, 20000)

	saturdayNight := time.Date(2025, 6, 7, 21, 30, 0, 0, time.UTC)
	if _, err := bus.IssueTicket(card, "145", 1580, saturdayNight); err != nil {
		t.Fatalf("first trip failed: %v", err)
	}
	// 22:15 the same Saturday is already outside the transfer schedule.
	ticket, err := bus.IssueTicket(card, "102", 1580, saturdayNight.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("second trip failed: %v", err)
	}
	if ticket.IsTransfer {
		t.Fatal("trip outside the transfer schedule must not be free")
	}
}

func TestFreeTripNeverOpensTransferWindow(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindFreeFare, 10000)

	first, err := bus.IssueTicket(card, "145", 1580, mondayAt(10, 0, 0))
	if err != nil {
		t.Fatalf("first trip failed: %v", err)
	}
	if first.AmountCharged != 0 {
		t.Fatalf("free-fare first trip charged %d", first.AmountCharged)
	}

	second, err := bus.IssueTicket(card, "102", 1580, mondayAt(10, 30, 0))
	if err != nil {
		t.Fatalf("second trip failed: %v", err)
	}
	if second.IsTransfer {
		t.Fatal("a trip that charged nothing must not grant a transfer")
	}
}

func TestChargedFranchiseTripOpensTransferWindow(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindFreeFare, 10000)

	// Exhaust the free allowance; the third trip collects a fare.
	bus.IssueTicket(card, "145", 1580, mondayAt(9, 0, 0))
	bus.IssueTicket(card, "145", 1580, mondayAt(10, 0, 0))
	third, err := bus.IssueTicket(card, "145", 1580, mondayAt(11, 0, 0))
	if err != nil {
		t.Fatalf("third trip failed: %v", err)
	}
	if third.AmountCharged != 1580 {
		t.Fatalf("third trip charged %d, want 1580", third.AmountCharged)
	}

	fourth, err := bus.IssueTicket(card, "102", 1580, mondayAt(11, 30, 0))
	if err != nil {
		t.Fatalf("fourth trip failed: %v", err)
	}
	if !fourth.IsTransfer {
		t.Fatal("charged trip should have opened a transfer window")
	}
	if fourth.AmountCharged != 0 {
		t.Fatalf("transfer charged %d, want 0", fourth.AmountCharged)
	}
}

func TestHalfFareGateStillAppliesToTransfers(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindHalfFare, 10000)

	if _, err := bus.IssueTicket(card, "145", 1580, mondayAt(10, 0, 0)); err != nil {
		t.Fatalf("first trip failed: %v", err)
	}

	// Transfer-eligible, but inside the half-fare 5-minute gap: rejected.
	_, err := bus.IssueTicket(card, "102", 1580, mondayAt(10, 3, 0))
	if !errors.Is(err, ErrPaymentRejected) {
		t.Fatalf("expected ErrPaymentRejected, got %v", err)
	}

	// Past the gap the same transfer goes through free.
	ticket, err := bus.IssueTicket(card, "102", 1580, mondayAt(10, 10, 0))
	if err != nil {
		t.Fatalf("transfer after the gap failed: %v", err)
	}
	if !ticket.IsTransfer || ticket.AmountCharged != 0 {
		t.Fatalf("transfer = %t charged %d, want free transfer", ticket.IsTransfer, ticket.AmountCharged)
	}
}

func TestInterurbanTariffOverride(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindNormal, 20000)

	bus.AddInterurbanLine("500")
	if !bus.IsInterurbanLine("500") {
		t.Fatal("line 500 should be interurban")
	}

	ticket, err := bus.IssueTicket(card, "500", 1580, mondayAt(10, 0, 0))
	if err != nil {
		t.Fatalf("interurban trip failed: %v", err)
	}
	if ticket.Tariff != 3000 || ticket.AmountCharged != 3000 {
		t.Fatalf("interurban tariff = %d charged %d, want 3000/3000", ticket.Tariff, ticket.AmountCharged)
	}

	bus.RemoveInterurbanLine("500")
	if bus.IsInterurbanLine("500") {
		t.Fatal("line 500 should no longer be interurban")
	}
	ticket, err = bus.IssueTicket(card, "500", 1580, mondayAt(12, 0, 0))
	if err != nil {
		t.Fatalf("urban trip failed: %v", err)
	}
	if ticket.Tariff != 1580 {
		t.Fatalf("tariff after removal = %d, want 1580", ticket.Tariff)
	}
}

func TestIssueTicketRejectsNegativeTariff(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindNormal, 10000)

	if _, err := bus.IssueTicket(card, "145", -1, mondayAt(10, 0, 0)); !errors.Is(err, ErrNegativeTariff) {
		t.Fatalf("expected ErrNegativeTariff, got %v", err)
	}
	if card.Balance() != 10000 {
		t.Fatalf("negative tariff changed balance to %d", card.Balance())
	}
}

func TestIssueTicketRejectedPaymentYieldsNoTicket(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindNormal, 1000)

	ticket, err := bus.IssueTicket(card, "145", 2500, mondayAt(10, 0, 0))
	if !errors.Is(err, ErrPaymentRejected) {
		t.Fatalf("expected ErrPaymentRejected, got %v", err)
	}
	if ticket != nil {
		t.Fatal("rejected payment must not produce a ticket")
	}
	if card.Balance() != 1000 {
		t.Fatalf("rejected payment changed balance to %d", card.Balance())
	}
}

func TestIssueTicketAppliesFrequentUseDiscount(t *testing.T) {
	bus := NewBus(DefaultRules())
	card := newTestCard(KindNormal, 56000)

	var ticket *Ticket
	var err error
	for trip := 1; trip <= 30; trip++ {
		// Space trips out so none qualifies as a transfer.
		at := mondayAt(10, 0, 0).Add(time.Duration(trip) * 2 * time.Hour)
		ticket, err = bus.IssueTicket(card, "145", 1580, at)
		if err != nil {
			t.Fatalf("trip %d failed: %v", trip, err)
		}
	}
	if ticket.AmountCharged != 1264 {
		t.Fatalf("trip 30 charged %d, want discounted 1264", ticket.AmountCharged)
	}
	if ticket.Tariff != 1580 {
		t.Fatalf("ticket nominal tariff = %d, want 1580", ticket.Tariff)
	}
}

func TestHalfFareTransferMarkedPaidWhenCharged(t *testing.T) {
	// A transfer trip still runs the card's own policy; for a half-fare card
	// past its daily allowance the "free" transfer collects a fare and the
	// ticket is flagged TransferWasCharged.
	bus := NewBus(DefaultRules())
	card := newTestCard(KindHalfFare, 20000)

	bus.IssueTicket(card, "145", 1580, mondayAt(9, 0, 0))
	bus.IssueTicket(card, "145", 1580, mondayAt(10, 30, 0))
	// Daily discount allowance used up; open window is from the 10:30 trip.
	ticket, err := bus.IssueTicket(card, "102", 1580, mondayAt(10, 40, 0))
	if err != nil {
		t.Fatalf("transfer trip failed: %v", err)
	}
	if !ticket.IsTransfer {
		t.Fatal("trip should be a transfer")
	}
	if ticket.AmountCharged != 0 {
		// Transfer trips charge tariff zero; half of zero is zero even past
		// the allowance, so nothing is collected.
		t.Fatalf("transfer charged %d, want 0", ticket.AmountCharged)
	}
	if ticket.TransferWasCharged {
		t.Fatal("zero-charge transfer must not be marked paid")
	}
}
