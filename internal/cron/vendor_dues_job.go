package cron

import (
	"context"
	"errors"

	"github.com/unieats/unieats-backend/internal/dues"
	"github.com/unieats/unieats-backend/pkg/logger"
)

const vendorDuesJobName = "vendor-dues-reconciliation"

// duesRunner is the slice of the dues service the job needs.
type duesRunner interface {
	Run(ctx context.Context, dryRun bool) (*dues.RunResult, error)
}

// VendorDuesJobParams configure the reconciliation job.
type VendorDuesJobParams struct {
	Dues   duesRunner
	Logger *logger.Logger
	DryRun bool
}

// VendorDuesJob batches unsettled COD/UPI orders into vendor dues on the
// cron cadence.
type VendorDuesJob struct {
	dues   duesRunner
	logg   *logger.Logger
	dryRun bool
}

// NewVendorDuesJob builds the reconciliation job.
func NewVendorDuesJob(params VendorDuesJobParams) (*VendorDuesJob, error) {
	if params.Dues == nil {
		return nil, errors.New("dues service required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &VendorDuesJob{
		dues:   params.Dues,
		logg:   params.Logger,
		dryRun: params.DryRun,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *VendorDuesJob) Name() string { return vendorDuesJobName }

// Run executes one reconciliation pass.
func (j *VendorDuesJob) Run(ctx context.Context) error {
	result, err := j.dues.Run(ctx, j.dryRun)
	if err != nil {
		return err
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"dues_created":   result.DuesCreated,
		"orders_stamped": result.OrdersStamped,
		"dry_run":        result.DryRun,
	})
	j.logg.Info(ctx, "vendor dues reconciled")
	return nil
}
