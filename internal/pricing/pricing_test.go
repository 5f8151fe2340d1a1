package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
)

func tiers(pairs ...int64) []models.PriceTier {
	out := make([]models.PriceTier, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.PriceTier{MinPeople: int(pairs[i]), Price: pairs[i+1]})
	}
	return out
}

func TestActiveTier(t *testing.T) {
	t.Parallel()

	table := tiers(2, 90000, 5, 80000, 10, 70000)

	cases := []struct {
		name      string
		count     int
		wantPrice int64
		wantOK    bool
	}{
		{"below first threshold", 1, 0, false},
		{"exactly first threshold", 2, 90000, true},
		{"between thresholds", 4, 90000, true},
		{"exactly middle threshold", 5, 80000, true},
		{"above last threshold", 25, 70000, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, ok := ActiveTier(table, tc.count)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantPrice, tier.Price)
			}
		})
	}
}

func TestActiveTierEmpty(t *testing.T) {
	t.Parallel()

	_, ok := ActiveTier(nil, 100)
	assert.False(t, ok)
}

func TestPriceForFallsBackToOriginal(t *testing.T) {
	t.Parallel()

	table := tiers(3, 90000)
	assert.Equal(t, int64(120000), PriceFor(table, 120000, 1))
	assert.Equal(t, int64(90000), PriceFor(table, 120000, 3))
}

func TestTierIndex(t *testing.T) {
	t.Parallel()

	table := tiers(2, 90000, 5, 80000)
	assert.Equal(t, -1, TierIndex(table, 1))
	assert.Equal(t, 0, TierIndex(table, 2))
	assert.Equal(t, 0, TierIndex(table, 4))
	assert.Equal(t, 1, TierIndex(table, 5))
	assert.Equal(t, 1, TierIndex(table, 50))
}

func TestDiscount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 25, Discount(100000, 75000))
	assert.Equal(t, 33, Discount(150000, 100000))
	assert.Equal(t, 0, Discount(100000, 100000))
	assert.Equal(t, 0, Discount(0, 50000))
	assert.Equal(t, 0, Discount(100000, 120000))
}

func TestSplit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		price       int64
		percent     int
		wantDeposit int64
		wantBalance int64
	}{
		{"exact percentage", 100000, 30, 30000, 70000},
		{"rounds deposit up", 99999, 30, 30000, 69999},
		{"tiny price rounds to full deposit", 1, 30, 1, 0},
		{"zero price", 0, 30, 0, 0},
		{"zero percent", 100000, 0, 0, 100000},
		{"full deposit", 100000, 100, 100000, 0},
		{"percent above hundred clamps", 100000, 130, 100000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deposit, balance := Split(tc.price, tc.percent)
			assert.Equal(t, tc.wantDeposit, deposit)
			assert.Equal(t, tc.wantBalance, balance)
			assert.Equal(t, tc.price, deposit+balance)
		})
	}
}

func TestValidateTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		tiers   []models.PriceTier
		wantErr bool
	}{
		{"valid descending prices", tiers(2, 90000, 5, 80000, 10, 70000), false},
		{"valid flat price", tiers(2, 90000, 5, 90000), false},
		{"empty", nil, true},
		{"zero threshold", tiers(0, 90000), true},
		{"zero price", tiers(2, 0), true},
		{"duplicate threshold", tiers(2, 90000, 2, 80000), true},
		{"decreasing threshold", tiers(5, 90000, 2, 80000), true},
		{"price increases", tiers(2, 80000, 5, 90000), true},
		{"tier above original price", tiers(2, 130000), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTiers(tc.tiers, 120000)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestTargetMatchesTier(t *testing.T) {
	t.Parallel()

	table := tiers(2, 90000, 10, 70000)
	assert.True(t, TargetMatchesTier(table, 10))
	assert.False(t, TargetMatchesTier(table, 7))
	assert.False(t, TargetMatchesTier(nil, 10))
}

func TestHighestThreshold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, HighestThreshold(tiers(2, 90000, 10, 70000)))
	assert.Equal(t, 0, HighestThreshold(nil))
}
