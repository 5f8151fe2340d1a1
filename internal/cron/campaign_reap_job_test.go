package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

type stubReaper struct {
	reaped int
	err    error
	calls  int
}

func (s *stubReaper) ReapDue(ctx context.Context) (int, error) {
	s.calls++
	return s.reaped, s.err
}

func TestCampaignReapJobRun(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
	reaper := &stubReaper{reaped: 3}

	job, err := NewCampaignReapJob(CampaignReapJobParams{Logger: logg, Reaper: reaper})
	require.NoError(t, err)
	assert.Equal(t, "campaign-reap", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, reaper.calls)
}

func TestCampaignReapJobPropagatesError(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
	reaper := &stubReaper{err: errors.New("db down")}

	job, err := NewCampaignReapJob(CampaignReapJobParams{Logger: logg, Reaper: reaper})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCampaignReapJobValidation(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})

	_, err := NewCampaignReapJob(CampaignReapJobParams{Reaper: &stubReaper{}})
	require.Error(t, err)

	_, err = NewCampaignReapJob(CampaignReapJobParams{Logger: logg})
	require.Error(t, err)
}
