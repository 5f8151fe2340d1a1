package pricing

import (
	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
)

// ActiveTier returns the best tier unlocked at the given people count: the
// tier with the largest min_people still <= peopleCount. The second return is
// false when the count is below the smallest threshold, in which case callers
// fall back to the product's original price.
//
// Tiers must be pre-sorted ascending by min_people. Sorting is owned by
// whoever constructs the list (validated at product-edit time); this function
// never sorts or mutates.
func ActiveTier(tiers []models.PriceTier, peopleCount int) (models.PriceTier, bool) {
	var (
		best  models.PriceTier
		found bool
	)
	for _, tier := range tiers {
		if tier.MinPeople > peopleCount {
			break
		}
		best = tier
		found = true
	}
	return best, found
}

// PriceFor resolves the unit price at the given people count, falling back to
// originalPrice when no tier is reached.
func PriceFor(tiers []models.PriceTier, originalPrice int64, peopleCount int) int64 {
	if tier, ok := ActiveTier(tiers, peopleCount); ok {
		return tier.Price
	}
	return originalPrice
}

// TierIndex returns the zero-based index of the active tier, or -1 when no
// tier is reached. Campaigns cache this for display.
func TierIndex(tiers []models.PriceTier, peopleCount int) int {
	index := -1
	for i, tier := range tiers {
		if tier.MinPeople > peopleCount {
			break
		}
		index = i
	}
	return index
}

// Discount returns the percentage saved versus the original price, rounded to
// the nearest whole percent.
func Discount(originalPrice, currentPrice int64) int {
	if originalPrice <= 0 {
		return 0
	}
	saved := originalPrice - currentPrice
	if saved <= 0 {
		return 0
	}
	return int((saved*100 + originalPrice/2) / originalPrice)
}

// Split divides a price into the upfront deposit and the remaining balance.
// The deposit rounds up, so the balance never exceeds price - deposit owed.
func Split(price int64, depositPercent int) (deposit, balance int64) {
	if price <= 0 || depositPercent <= 0 {
		return 0, price
	}
	if depositPercent >= 100 {
		return price, 0
	}
	deposit = (price*int64(depositPercent) + 99) / 100
	balance = price - deposit
	return deposit, balance
}

// ValidateTiers enforces the tier-table contract: at least one tier, strictly
// increasing min_people, strictly positive thresholds and prices, and prices
// that never increase as more people join.
func ValidateTiers(tiers []models.PriceTier, originalPrice int64) error {
	if len(tiers) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one price tier is required")
	}
	prevMin := 0
	prevPrice := int64(0)
	for i, tier := range tiers {
		if tier.MinPeople <= 0 {
			return tierError(i, "min_people must be positive")
		}
		if tier.Price <= 0 {
			return tierError(i, "price must be positive")
		}
		if tier.MinPeople <= prevMin {
			return tierError(i, "min_people must be strictly increasing")
		}
		if i > 0 && tier.Price > prevPrice {
			return tierError(i, "price must not increase with people count")
		}
		if originalPrice > 0 && tier.Price > originalPrice {
			return tierError(i, "tier price exceeds original price")
		}
		prevMin = tier.MinPeople
		prevPrice = tier.Price
	}
	return nil
}

// TargetMatchesTier reports whether target equals some tier threshold.
// Campaign targets must land exactly on a tier so a full campaign always maps
// to a well-defined price.
func TargetMatchesTier(tiers []models.PriceTier, target int) bool {
	for _, tier := range tiers {
		if tier.MinPeople == target {
			return true
		}
	}
	return false
}

// HighestThreshold returns the largest tier min_people, or 0 when no tiers
// exist. New self-started campaigns target this.
func HighestThreshold(tiers []models.PriceTier) int {
	highest := 0
	for _, tier := range tiers {
		if tier.MinPeople > highest {
			highest = tier.MinPeople
		}
	}
	return highest
}

func tierError(index int, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid price tiers").
		WithDetails(map[string]any{"tier": index, "error": msg})
}
