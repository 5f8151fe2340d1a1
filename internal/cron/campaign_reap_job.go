package cron

import (
	"context"
	"fmt"

	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// campaignReaper is the slice of the group-buy service the job needs.
type campaignReaper interface {
	ReapDue(ctx context.Context) (int, error)
}

// CampaignReapJobParams configure the expired-campaign sweeper.
type CampaignReapJobParams struct {
	Logger *logger.Logger
	Reaper campaignReaper
}

// NewCampaignReapJob builds the cron job that fails pending campaigns past
// their deadline. Selection queries already filter expired campaigns out, so
// the sweep is bookkeeping, not a correctness gate.
func NewCampaignReapJob(params CampaignReapJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reaper == nil {
		return nil, fmt.Errorf("reaper required")
	}
	return &campaignReapJob{
		logg:   params.Logger,
		reaper: params.Reaper,
	}, nil
}

type campaignReapJob struct {
	logg   *logger.Logger
	reaper campaignReaper
}

func (j *campaignReapJob) Name() string { return "campaign-reap" }

func (j *campaignReapJob) Run(ctx context.Context) error {
	reaped, err := j.reaper.ReapDue(ctx)
	if err != nil {
		return fmt.Errorf("reap due campaigns: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "count", reaped), "campaign reap loop complete")
	return nil
}
