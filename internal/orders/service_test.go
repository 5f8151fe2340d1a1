package orders

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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(testSchema).Error)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), logg)
	require.NoError(t, err)
	return svc
}

type seedOpts struct {
	phone     string
	createdAt time.Time
	status    enums.OrderStatus
	payment   enums.PaymentStatus
	campaign  uuid.UUID
}

func seedOrder(t *testing.T, db *gorm.DB, opts seedOpts) *models.Order {
	t.Helper()
	if opts.phone == "" {
		opts.phone = "+8562055500011"
	}
	if opts.createdAt.IsZero() {
		opts.createdAt = time.Now().UTC()
	}
	if opts.status == "" {
		opts.status = enums.OrderStatusPendingDeposit
	}
	if opts.payment == "" {
		opts.payment = enums.PaymentStatusPending
	}
	if opts.campaign == uuid.Nil {
		opts.campaign = uuid.New()
	}

	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Electric Fan",
		Description:   "16 inch stand fan",
		OriginalPrice: 250000,
		Category:      "home",
		Status:        enums.ProductStatusActive,
	}
	require.NoError(t, db.Create(product).Error)

	member := &models.GroupMember{
		ID:            uuid.New(),
		CampaignID:    opts.campaign,
		Name:          "Khamla",
		Phone:         opts.phone,
		Address:       "Vientiane",
		DepositAmount: 75000,
		FinalAmount:   175000,
		PaymentMethod: enums.PaymentMethodBCEL,
		Status:        enums.MemberStatusJoined,
	}
	require.NoError(t, db.Create(member).Error)

	order := &models.Order{
		ID:            uuid.New(),
		CampaignID:    opts.campaign,
		MemberID:      member.ID,
		ProductID:     product.ID,
		Quantity:      1,
		UnitPrice:     250000,
		TotalPrice:    250000,
		DepositAmount: 75000,
		FinalAmount:   175000,
		Status:        opts.status,
		PaymentStatus: opts.payment,
		CreatedAt:     opts.createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestByIDPreloadsAssociations(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	seeded := seedOrder(t, db, seedOpts{})

	campaign := &models.Campaign{
		ID:           seeded.CampaignID,
		ProductID:    seeded.ProductID,
		TargetPeople: 5,
		CurrentTier:  -1,
		Status:       enums.CampaignStatusPending,
		ExpiresAt:    time.Now().Add(24 * time.Hour).UTC(),
	}
	require.NoError(t, db.Create(campaign).Error)

	order, err := svc.ByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, order.Product)
	require.NotNil(t, order.Member)
	require.NotNil(t, order.Campaign)
	assert.Equal(t, "Electric Fan", order.Product.Name)
	assert.Equal(t, "Khamla", order.Member.Name)
}

func TestByIDNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.ByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestByPhoneNewestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	base := time.Now().Add(-time.Hour).UTC()

	older := seedOrder(t, db, seedOpts{phone: "+8562099912345", createdAt: base})
	newer := seedOrder(t, db, seedOpts{phone: "+8562099912345", createdAt: base.Add(10 * time.Minute)})
	seedOrder(t, db, seedOpts{phone: "+8562077788888", createdAt: base.Add(20 * time.Minute)})

	orders, err := svc.ByPhone(context.Background(), "+8562099912345")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestByPhoneRequiresPhone(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.ByPhone(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListAllPaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 3; i++ {
		seedOrder(t, db, seedOpts{createdAt: base.Add(time.Duration(i) * time.Minute)})
	}

	first, cursor, err := svc.ListAll(context.Background(), ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, cursor)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	rest, next, err := svc.ListAll(context.Background(), ListParams{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
}

func TestListAllFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	campaignID := uuid.New()

	seedOrder(t, db, seedOpts{payment: enums.PaymentStatusPendingVerify, campaign: campaignID})
	seedOrder(t, db, seedOpts{payment: enums.PaymentStatusVerified, campaign: campaignID})
	seedOrder(t, db, seedOpts{payment: enums.PaymentStatusPendingVerify})

	pendingVerify := enums.PaymentStatusPendingVerify
	orders, _, err := svc.ListAll(context.Background(), ListParams{
		PaymentStatus: &pendingVerify,
		CampaignID:    &campaignID,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, campaignID, orders[0].CampaignID)
}

func TestListAllRejectsBadCursor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, _, err := svc.ListAll(context.Background(), ListParams{Cursor: "???"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateFulfillment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	seeded := seedOrder(t, db, seedOpts{})

	shipped := enums.OrderStatusShipped
	shipping := enums.ShippingStatusInTransit
	tracking := "ANX-7729"
	updated, err := svc.UpdateFulfillment(context.Background(), seeded.ID, FulfillmentInput{
		Status:         &shipped,
		ShippingStatus: &shipping,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	require.NotNil(t, updated.ShippingStatus)
	assert.Equal(t, enums.ShippingStatusInTransit, *updated.ShippingStatus)
	require.NotNil(t, updated.TrackingNumber)
	assert.Equal(t, "ANX-7729", *updated.TrackingNumber)

	// Payment status is untouched by fulfillment updates.
	assert.Equal(t, enums.PaymentStatusPending, updated.PaymentStatus)
}

func TestUpdateFulfillmentValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	seeded := seedOrder(t, db, seedOpts{})

	_, err := svc.UpdateFulfillment(context.Background(), seeded.ID, FulfillmentInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	bogus := enums.OrderStatus("teleported")
	_, err = svc.UpdateFulfillment(context.Background(), seeded.ID, FulfillmentInput{Status: &bogus})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	status := enums.OrderStatusShipped
	_, err = svc.UpdateFulfillment(context.Background(), uuid.New(), FulfillmentInput{Status: &status})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
