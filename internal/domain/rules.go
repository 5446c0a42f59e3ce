/**
 * @description
 * Rules gathers every fare constant in one value so the whole tariff contract
 * is configuration rather than scattered literals. The defaults reproduce the
 * published fare schedule; deployments override individual values through the
 * config package.
 */

package domain

import "time"

// OverdraftPolicy decides what happens when a positive-balance card is charged
// more than it holds. The fare authority has shipped both behaviors at
// different times, so the policy is an explicit knob instead of a guess.
type OverdraftPolicy string

const (
	// OverdraftAllowDebt lets the balance go negative down to DebtLimit; a
	// charge that would cross the limit is rejected outright.
	OverdraftAllowDebt OverdraftPolicy = "allow_debt"
	// OverdraftClampZero never lets the balance drop below zero: the card
	// pays what it has and the shortfall is forgiven.
	OverdraftClampZero OverdraftPolicy = "clamp_zero"
)

// Rules holds the complete fare contract for one deployment.
// All amounts are int64 in centavos, the smallest currency unit.
type Rules struct {
	MaxBalance     int64
	DebtLimit      int64 // most negative balance a card may reach
	AcceptedTopUps []int64

	DefaultTariff    int64
	InterurbanTariff int64

	Overdraft OverdraftPolicy

	// FranchiseWindow gates half-fare, free-fare, and full-franchise cards.
	// TransferWindow gates free transfers. They are independent schedules.
	FranchiseWindow TimeWindow
	TransferWindow  TimeWindow

	// TransferValidity is how long after a charged trip a different-line trip
	// may ride free.
	TransferValidity time.Duration

	HalfFareMinGap     time.Duration
	DailyDiscountTrips int // half-price or free trips allowed per day

	// Frequent-use tiers for normal cards: monthly trip counts inside
	// [TierOneMinTrip, TierOneMaxTrip] pay TierOnePayPct percent of the
	// tariff, and likewise for tier two. Any other count pays full price.
	TierOneMinTrip int
	TierOneMaxTrip int
	TierOnePayPct  int64
	TierTwoMinTrip int
	TierTwoMaxTrip int
	TierTwoPayPct  int64
}

// DefaultRules returns the published fare schedule.
func DefaultRules() Rules {
	return Rules{
		MaxBalance:     56000,
		DebtLimit:      -1200,
		AcceptedTopUps: []int64{2000, 3000, 4000, 5000, 8000, 10000, 15000, 20000, 25000, 30000},

		DefaultTariff:    1580,
		InterurbanTariff: 3000,

		Overdraft: OverdraftAllowDebt,

		FranchiseWindow: TimeWindow{
			FirstDay:     time.Monday,
			LastDay:      time.Friday,
			Open:         6 * time.Hour,
			Close:        22 * time.Hour,
			IncludeClose: true,
		},
		TransferWindow: TimeWindow{
			FirstDay:     time.Monday,
			LastDay:      time.Saturday,
			Open:         7 * time.Hour,
			Close:        22 * time.Hour,
			IncludeClose: false,
		},

		TransferValidity: time.Hour,

		HalfFareMinGap:     5 * time.Minute,
		DailyDiscountTrips: 2,

		TierOneMinTrip: 30,
		TierOneMaxTrip: 59,
		TierOnePayPct:  80,
		TierTwoMinTrip: 60,
		TierTwoMaxTrip: 80,
		TierTwoPayPct:  75,
	}
}

// acceptsTopUp reports whether amount is on the allow-list.
func (r Rules) acceptsTopUp(amount int64) bool {
	for _, accepted := range r.AcceptedTopUps {
		if amount == accepted {
			return true
		}
	}
	return false
}
