package groupbuy

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/pkg/config"
	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  name_lo TEXT,
  description TEXT NOT NULL DEFAULT '',
  description_lo TEXT,
  images TEXT,
  original_price INTEGER NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  category TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS product_price_tiers (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  min_people INTEGER NOT NULL,
  price INTEGER NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS group_campaigns (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  current_people INTEGER NOT NULL DEFAULT 0,
  target_people INTEGER NOT NULL,
  current_tier INTEGER NOT NULL DEFAULT -1,
  status TEXT NOT NULL DEFAULT 'pending',
  expires_at DATETIME NOT NULL,
  is_official INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS group_members (
  id TEXT PRIMARY KEY,
  campaign_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  address TEXT NOT NULL,
  deposit_amount INTEGER NOT NULL,
  final_amount INTEGER NOT NULL,
  payment_method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'joined',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  campaign_id TEXT NOT NULL,
  member_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  unit_price INTEGER NOT NULL,
  total_price INTEGER NOT NULL,
  deposit_amount INTEGER NOT NULL,
  final_amount INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_deposit',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_proof_url TEXT,
  payment_ref TEXT,
  shipping_status TEXT,
  tracking_number TEXT,
  notes TEXT,
  counted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:groupbuy_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(testSchema).Error)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "groupbuy-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), &gormTxRunner{db: db}, config.GroupBuyConfig{
		DepositPercent:     30,
		DefaultCampaignTTL: 48 * time.Hour,
		ReapBatchSize:      50,
	}, logg)
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, originalPrice int64, tierPairs ...int64) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Rice Cooker",
		Description:   "10-cup rice cooker",
		OriginalPrice: originalPrice,
		Stock:         100,
		Category:      "kitchen",
		Status:        enums.ProductStatusActive,
	}
	require.NoError(t, db.Create(product).Error)
	for i := 0; i+1 < len(tierPairs); i += 2 {
		tier := &models.PriceTier{
			ID:        uuid.New(),
			ProductID: product.ID,
			MinPeople: int(tierPairs[i]),
			Price:     tierPairs[i+1],
		}
		require.NoError(t, db.Create(tier).Error)
	}
	return product
}

func seedCampaign(t *testing.T, db *gorm.DB, productID uuid.UUID, mutate func(*models.Campaign)) *models.Campaign {
	t.Helper()
	campaign := &models.Campaign{
		ID:           uuid.New(),
		ProductID:    productID,
		TargetPeople: 5,
		CurrentTier:  -1,
		Status:       enums.CampaignStatusPending,
		ExpiresAt:    time.Now().Add(24 * time.Hour).UTC(),
	}
	if mutate != nil {
		mutate(campaign)
	}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

func join(t *testing.T, svc *Service, campaignID uuid.UUID) *JoinResult {
	t.Helper()
	result, err := svc.Join(context.Background(), JoinInput{
		CampaignID:    campaignID,
		Name:          "Somchai",
		Phone:         "+8562055512345",
		Address:       "Vientiane Capital",
		PaymentMethod: enums.PaymentMethodBCEL,
	})
	require.NoError(t, err)
	return result
}

func reloadCampaign(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Campaign {
	t.Helper()
	var campaign models.Campaign
	require.NoError(t, db.First(&campaign, "id = ?", id).Error)
	return &campaign
}

func TestJoinFreezesPriceForNextParticipant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000, 5, 80000)
	campaign := seedCampaign(t, db, product.ID, nil)

	// First joiner counts as participant 1: below every threshold, so the
	// original price applies.
	first := join(t, svc, campaign.ID)
	assert.Equal(t, int64(120000), first.Order.UnitPrice)
	assert.Equal(t, int64(36000), first.Order.DepositAmount)
	assert.Equal(t, int64(84000), first.Order.FinalAmount)
	assert.Equal(t, enums.OrderStatusPendingDeposit, first.Order.Status)
	assert.Equal(t, enums.PaymentStatusPending, first.Order.PaymentStatus)

	// The counter only moves on verified payment, so the second joiner still
	// prices as participant 1.
	second := join(t, svc, campaign.ID)
	assert.Equal(t, int64(120000), second.Order.UnitPrice)

	assert.Equal(t, 0, reloadCampaign(t, db, campaign.ID).CurrentPeople)
}

func TestJoinPricesAtTierOncePaymentsCounted(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000, 5, 80000)
	campaign := seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.CurrentPeople = 1
	})

	// current_people+1 = 2 unlocks the first tier.
	result := join(t, svc, campaign.ID)
	assert.Equal(t, int64(90000), result.Order.UnitPrice)
	assert.Equal(t, int64(27000), result.Order.DepositAmount)
	assert.Equal(t, int64(63000), result.Order.FinalAmount)
}

func TestJoinRejections(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000)

	cases := []struct {
		name    string
		mutate  func(*models.Campaign)
		message string
	}{
		{
			name:    "terminal campaign",
			mutate:  func(c *models.Campaign) { c.Status = enums.CampaignStatusFailed },
			message: "campaign is closed",
		},
		{
			name:    "expired campaign",
			mutate:  func(c *models.Campaign) { c.ExpiresAt = time.Now().Add(-time.Minute).UTC() },
			message: "campaign has expired",
		},
		{
			name: "full campaign",
			mutate: func(c *models.Campaign) {
				c.TargetPeople = 2
				c.CurrentPeople = 2
				c.Status = enums.CampaignStatusSuccess
			},
			message: "campaign is closed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			campaign := seedCampaign(t, db, product.ID, tc.mutate)
			_, err := svc.Join(context.Background(), JoinInput{
				CampaignID:    campaign.ID,
				Name:          "Noy",
				Phone:         "+8562099987654",
				Address:       "Savannakhet",
				PaymentMethod: enums.PaymentMethodTransfer,
			})
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
			assert.Equal(t, tc.message, typed.Message())
		})
	}
}

func TestJoinUnknownCampaign(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Join(context.Background(), JoinInput{
		CampaignID:    uuid.New(),
		Name:          "Noy",
		Phone:         "+8562099987654",
		Address:       "Pakse",
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestConfirmPaymentAdvancesCounter(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000, 5, 80000)
	campaign := seedCampaign(t, db, product.ID, nil)

	result := join(t, svc, campaign.ID)

	updated, err := svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentPeople)
	assert.Equal(t, enums.CampaignStatusPending, updated.Status)
	assert.Equal(t, -1, updated.CurrentTier)

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", result.Order.ID).Error)
	require.NotNil(t, order.CountedAt)
	assert.Equal(t, enums.OrderStatusDepositPaid, order.Status)

	var member models.GroupMember
	require.NoError(t, db.First(&member, "id = ?", result.Member.ID).Error)
	assert.Equal(t, enums.MemberStatusPaidDeposit, member.Status)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000)
	campaign := seedCampaign(t, db, product.ID, nil)

	result := join(t, svc, campaign.ID)

	_, err := svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// Counter untouched by the replay.
	assert.Equal(t, 1, reloadCampaign(t, db, campaign.ID).CurrentPeople)
}

func TestConfirmPaymentCompletesCampaign(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000)
	campaign := seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.TargetPeople = 2
	})

	first := join(t, svc, campaign.ID)
	second := join(t, svc, campaign.ID)

	_, err := svc.ConfirmPayment(context.Background(), first.Order.ID)
	require.NoError(t, err)

	updated, err := svc.ConfirmPayment(context.Background(), second.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentPeople)
	assert.Equal(t, enums.CampaignStatusSuccess, updated.Status)
	assert.Equal(t, 0, updated.CurrentTier)

	// A third verified payment cannot push the counter past the target.
	third := seedOrphanOrder(t, db, campaign.ID, product.ID)
	_, err = svc.ConfirmPayment(context.Background(), third)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Equal(t, 2, reloadCampaign(t, db, campaign.ID).CurrentPeople)
}

// seedOrphanOrder inserts an uncounted order directly, bypassing Join's open
// check, to exercise the counter's own guard.
func seedOrphanOrder(t *testing.T, db *gorm.DB, campaignID, productID uuid.UUID) uuid.UUID {
	t.Helper()
	member := &models.GroupMember{
		ID:            uuid.New(),
		CampaignID:    campaignID,
		Name:          "Late",
		Phone:         "+8562077700000",
		Address:       "Luang Prabang",
		DepositAmount: 27000,
		FinalAmount:   63000,
		PaymentMethod: enums.PaymentMethodBCEL,
		Status:        enums.MemberStatusJoined,
	}
	require.NoError(t, db.Create(member).Error)
	order := &models.Order{
		ID:            uuid.New(),
		CampaignID:    campaignID,
		MemberID:      member.ID,
		ProductID:     productID,
		Quantity:      1,
		UnitPrice:     90000,
		TotalPrice:    90000,
		DepositAmount: 27000,
		FinalAmount:   63000,
		Status:        enums.OrderStatusPendingDeposit,
		PaymentStatus: enums.PaymentStatusPending,
	}
	require.NoError(t, db.Create(order).Error)
	return order.ID
}

func TestReapFailsExpiredUnderfilledCampaign(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000)
	campaign := seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.ExpiresAt = time.Now().Add(-time.Hour).UTC()
		c.CurrentPeople = 1
	})

	require.NoError(t, svc.Reap(context.Background(), campaign.ID))
	assert.Equal(t, enums.CampaignStatusFailed, reloadCampaign(t, db, campaign.ID).Status)
}

func TestReapLeavesLiveAndFilledCampaignsAlone(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000)

	live := seedCampaign(t, db, product.ID, nil)
	err := svc.Reap(context.Background(), live.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	filled := seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.TargetPeople = 2
		c.CurrentPeople = 2
		c.Status = enums.CampaignStatusSuccess
		c.ExpiresAt = time.Now().Add(-time.Hour).UTC()
	})
	err = svc.Reap(context.Background(), filled.ID)
	require.Error(t, err)
	assert.Equal(t, enums.CampaignStatusSuccess, reloadCampaign(t, db, filled.ID).Status)
}

func TestReapDueSweepsBatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000)

	expiredA := seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.ExpiresAt = time.Now().Add(-2 * time.Hour).UTC()
	})
	expiredB := seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.ExpiresAt = time.Now().Add(-time.Hour).UTC()
	})
	live := seedCampaign(t, db, product.ID, nil)

	reaped, err := svc.ReapDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reaped)
	assert.Equal(t, enums.CampaignStatusFailed, reloadCampaign(t, db, expiredA.ID).Status)
	assert.Equal(t, enums.CampaignStatusFailed, reloadCampaign(t, db, expiredB.ID).Status)
	assert.Equal(t, enums.CampaignStatusPending, reloadCampaign(t, db, live.ID).Status)
}

func TestCreateCampaignValidatesTarget(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000, 5, 80000)

	_, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		ProductID:    product.ID,
		TargetPeople: 3,
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	created, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		ProductID:    product.ID,
		TargetPeople: 5,
		ExpiresAt:    time.Now().Add(time.Hour),
		IsOfficial:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, created.TargetPeople)
	assert.Equal(t, -1, created.CurrentTier)
	assert.True(t, created.IsOfficial)
}

func TestCreateCampaignRejectsPastExpiry(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000)

	_, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		ProductID:    product.ID,
		TargetPeople: 2,
		ExpiresAt:    time.Now().Add(-time.Minute),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
