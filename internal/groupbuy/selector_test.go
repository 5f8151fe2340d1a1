package groupbuy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
)

func TestSelectOrCreatePrefersOfficialThenFuller(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000, 5, 80000)

	fuller := seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.CurrentPeople = 3
	})
	official := seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.CurrentPeople = 1
		c.IsOfficial = true
	})
	seedCampaign(t, db, product.ID, nil)

	result, err := svc.SelectOrCreate(context.Background(), product.ID)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, official.ID, result.Campaign.ID)

	// Without the official pool the fullest campaign wins.
	require.NoError(t, db.Model(&models.Campaign{}).
		Where("id = ?", official.ID).
		Update("status", enums.CampaignStatusFailed).Error)

	result, err = svc.SelectOrCreate(context.Background(), product.ID)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, fuller.ID, result.Campaign.ID)
}

func TestSelectOrCreateSkipsExpiredAndClosed(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000, 5, 80000)

	seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.ExpiresAt = time.Now().Add(-time.Hour).UTC()
	})
	seedCampaign(t, db, product.ID, func(c *models.Campaign) {
		c.Status = enums.CampaignStatusSuccess
	})

	result, err := svc.SelectOrCreate(context.Background(), product.ID)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, 5, result.Campaign.TargetPeople)
	assert.Equal(t, enums.CampaignStatusPending, result.Campaign.Status)
	assert.False(t, result.Campaign.IsOfficial)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), result.Campaign.ExpiresAt, time.Minute)
}

func TestSelectOrCreateCreatesAtHighestTier(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000, 5, 80000, 10, 70000)

	result, err := svc.SelectOrCreate(context.Background(), product.ID)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, 10, result.Campaign.TargetPeople)
	assert.Equal(t, -1, result.Campaign.CurrentTier)
}

func TestSelectOrCreateRejectsInactiveProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, 120000, 2, 90000)
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("status", enums.ProductStatusInactive).Error)

	_, err := svc.SelectOrCreate(context.Background(), product.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSelectOrCreateUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.SelectOrCreate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
