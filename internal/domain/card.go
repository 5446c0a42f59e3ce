/**
 * @description
 * Card is the fare-card state machine: balance and debt-limit accounting,
 * pending-credit overflow from capped top-ups, the frequent-use monthly
 * counter, and the per-variant daily state used by the subsidized card kinds.
 *
 * Card kinds share one struct and one Pay entry point that dispatches on the
 * kind tag. The balance mechanics are common; only the charging policy
 * diverges per kind.
 *
 * @notes
 * - Amounts are int64 in centavos, mirroring the ledger convention used by
 *   the rest of the platform.
 * - A Card assumes at most one in-flight operation at a time; callers that
 *   share a card across goroutines must serialize externally.
 */

package domain

import "time"

// CardKind tags the charging policy a card follows.
type CardKind string

const (
	KindNormal        CardKind = "normal"
	KindHalfFare      CardKind = "half_fare"
	KindFreeFare      CardKind = "free_fare"
	KindFullFranchise CardKind = "full_franchise"
)

// Valid reports whether k is a known card kind.
func (k CardKind) Valid() bool {
	switch k {
	case KindNormal, KindHalfFare, KindFreeFare, KindFullFranchise:
		return true
	}
	return false
}

// Label returns the human-readable form used on printed tickets.
func (k CardKind) Label() string {
	switch k {
	case KindHalfFare:
		return "Half Fare"
	case KindFreeFare:
		return "Free Fare"
	case KindFullFranchise:
		return "Full Franchise"
	default:
		return "Normal"
	}
}

// Card holds one rider's fare-card state. Create cards through a store so ids
// stay unique and increasing; NewCard itself takes the id it is given.
type Card struct {
	id    int64
	kind  CardKind
	rules Rules

	balance       int64
	pendingCredit int64

	lastPaymentAmount int64
	lastPaymentTime   time.Time

	// Frequent-use counter, normal cards only. Reset on month change.
	monthlyTrips int
	trackedMonth time.Month
	trackedYear  int

	// Free-transfer window, opened by the last charged trip.
	transferWindowStart time.Time
	transferLine        string

	// Daily state for half-fare and free-fare cards. Reset on date change.
	dailyTrips int
	trackedDay time.Time
	lastUsedAt time.Time
}

// NewCard builds a card of the given kind with an opening balance. The
// opening balance is trusted (it comes from the card factory, not a top-up)
// but is still capped at MaxBalance with the excess held as pending credit.
func NewCard(id int64, kind CardKind, initialBalance int64, rules Rules) *Card {
	c := &Card{id: id, kind: kind, rules: rules}
	if initialBalance > rules.MaxBalance {
		c.balance = rules.MaxBalance
		c.pendingCredit = initialBalance - rules.MaxBalance
	} else {
		c.balance = initialBalance
	}
	return c
}

// ID returns the card's unique increasing identifier.
func (c *Card) ID() int64 { return c.id }

// Kind returns the card's charging-policy tag.
func (c *Card) Kind() CardKind { return c.kind }

// Balance returns the current balance, possibly negative under allow_debt.
func (c *Card) Balance() int64 { return c.balance }

// PendingCredit returns top-up overflow waiting for balance headroom.
func (c *Card) PendingCredit() int64 { return c.pendingCredit }

// LastPaymentAmount returns the amount taken by the most recent Pay call,
// zero if it failed or charged nothing.
func (c *Card) LastPaymentAmount() int64 { return c.lastPaymentAmount }

// LastPaymentTime returns when the most recent successful Pay happened.
func (c *Card) LastPaymentTime() time.Time { return c.lastPaymentTime }

// MonthlyTrips returns the frequent-use counter for the tracked month.
func (c *Card) MonthlyTrips() int { return c.monthlyTrips }

// TransferWindowStart returns when the current transfer window opened; the
// zero time means no window is open.
func (c *Card) TransferWindowStart() time.Time { return c.transferWindowStart }

// TransferLine returns the line that opened the current transfer window.
func (c *Card) TransferLine() string { return c.transferLine }

// TopUp credits the card with one of the accepted recharge amounts. Amounts
// off the allow-list are rejected by returning the balance unchanged. Credit
// above MaxBalance is held as pending credit and applied after later
// payments free headroom. Returns the resulting balance either way.
func (c *Card) TopUp(amount int64) int64 {
	if !c.rules.acceptsTopUp(amount) {
		return c.balance
	}
	if c.balance+amount <= c.rules.MaxBalance {
		c.balance += amount
		return c.balance
	}
	c.pendingCredit += c.balance + amount - c.rules.MaxBalance
	c.balance = c.rules.MaxBalance
	return c.balance
}

// ApplyPendingCredit moves as much pending credit into the balance as the
// MaxBalance cap allows and returns the amount moved. Pay calls this after
// every successful charge.
func (c *Card) ApplyPendingCredit() int64 {
	if c.pendingCredit <= 0 || c.balance >= c.rules.MaxBalance {
		return 0
	}
	applied := c.rules.MaxBalance - c.balance
	if applied > c.pendingCredit {
		applied = c.pendingCredit
	}
	c.balance += applied
	c.pendingCredit -= applied
	return applied
}

// Pay charges the card for a trip with the given nominal tariff, dispatching
// to the kind's charging policy. It reports whether the trip was accepted;
// a rejected trip leaves all state unchanged except LastPaymentAmount, which
// is zeroed.
func (c *Card) Pay(tariff int64, now time.Time) bool {
	switch c.kind {
	case KindHalfFare:
		return c.payHalfFare(tariff, now)
	case KindFreeFare:
		return c.payFreeFare(tariff, now)
	case KindFullFranchise:
		return c.payFullFranchise(tariff, now)
	default:
		return c.charge(tariff, now)
	}
}

// charge is the shared balance mechanic: debit the amount under the
// configured overdraft policy, record the payment, then absorb pending
// credit into the freed headroom.
func (c *Card) charge(amount int64, now time.Time) bool {
	collected, ok := c.debit(amount)
	if !ok {
		c.lastPaymentAmount = 0
		return false
	}
	c.lastPaymentAmount = collected
	c.lastPaymentTime = now
	c.ApplyPendingCredit()
	return true
}

func (c *Card) debit(amount int64) (int64, bool) {
	if c.rules.Overdraft == OverdraftClampZero {
		if amount >= c.balance {
			collected := c.balance
			if collected < 0 {
				collected = 0
			}
			c.balance -= collected
			return collected, true
		}
		c.balance -= amount
		return amount, true
	}
	if c.balance-amount < c.rules.DebtLimit {
		return 0, false
	}
	c.balance -= amount
	return amount, true
}

func (c *Card) payHalfFare(tariff int64, now time.Time) bool {
	if !c.rules.FranchiseWindow.Contains(now) {
		c.lastPaymentAmount = 0
		return false
	}
	c.resetDailyState(now)
	if !c.lastUsedAt.IsZero() && sameCalendarDay(c.lastUsedAt, now) &&
		now.Sub(c.lastUsedAt) < c.rules.HalfFareMinGap {
		c.lastPaymentAmount = 0
		return false
	}
	amount := tariff
	if c.dailyTrips < c.rules.DailyDiscountTrips {
		amount = tariff / 2
	}
	if !c.charge(amount, now) {
		return false
	}
	c.dailyTrips++
	c.lastUsedAt = now
	return true
}

func (c *Card) payFreeFare(tariff int64, now time.Time) bool {
	if !c.rules.FranchiseWindow.Contains(now) {
		c.lastPaymentAmount = 0
		return false
	}
	c.resetDailyState(now)
	if c.dailyTrips < c.rules.DailyDiscountTrips {
		c.lastPaymentAmount = 0
		c.lastPaymentTime = now
		c.dailyTrips++
		c.lastUsedAt = now
		return true
	}
	if !c.charge(tariff, now) {
		return false
	}
	c.dailyTrips++
	c.lastUsedAt = now
	return true
}

func (c *Card) payFullFranchise(_ int64, now time.Time) bool {
	if !c.rules.FranchiseWindow.Contains(now) {
		c.lastPaymentAmount = 0
		return false
	}
	c.lastPaymentAmount = 0
	c.lastPaymentTime = now
	return true
}

// resetDailyState zeroes the daily trip counter when the clock has moved to a
// new calendar date since the last tracked trip.
func (c *Card) resetDailyState(now time.Time) {
	if c.trackedDay.IsZero() || !sameCalendarDay(c.trackedDay, now) {
		c.dailyTrips = 0
		c.trackedDay = now
	}
}

// FrequentUseTariff applies the monthly frequent-use discount for normal
// cards: it rolls the counter over on month change, counts this trip, and
// prices it by the tier the new count lands in. Other card kinds pass
// through untouched, with no counter movement.
func (c *Card) FrequentUseTariff(tariff int64, now time.Time) int64 {
	if c.kind != KindNormal {
		return tariff
	}
	if c.trackedYear != now.Year() || c.trackedMonth != now.Month() {
		c.monthlyTrips = 0
		c.trackedYear = now.Year()
		c.trackedMonth = now.Month()
	}
	c.monthlyTrips++
	switch {
	case c.monthlyTrips >= c.rules.TierOneMinTrip && c.monthlyTrips <= c.rules.TierOneMaxTrip:
		return tariff * c.rules.TierOnePayPct / 100
	case c.monthlyTrips >= c.rules.TierTwoMinTrip && c.monthlyTrips <= c.rules.TierTwoMaxTrip:
		return tariff * c.rules.TierTwoPayPct / 100
	default:
		return tariff
	}
}

// startTransferWindow opens (or restarts) the free-transfer window from a
// charged trip on the given line.
func (c *Card) startTransferWindow(now time.Time, line string) {
	c.transferWindowStart = now
	c.transferLine = line
}

// CardStatus is the read-only snapshot exposed through the API.
type CardStatus struct {
	ID                int64     `json:"id"`
	CardType          CardKind  `json:"card_type"`
	Balance           int64     `json:"balance"`
	PendingCredit     int64     `json:"pending_credit"`
	LastPaymentAmount int64     `json:"last_payment_amount"`
	LastPaymentTime   time.Time `json:"last_payment_time,omitempty"`
	MonthlyTrips      int       `json:"monthly_trips"`
}

// Status snapshots the card's observable state.
func (c *Card) Status() CardStatus {
	return CardStatus{
		ID:                c.id,
		CardType:          c.kind,
		Balance:           c.balance,
		PendingCredit:     c.pendingCredit,
		LastPaymentAmount: c.lastPaymentAmount,
		LastPaymentTime:   c.lastPaymentTime,
		MonthlyTrips:      c.monthlyTrips,
	}
}
