package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/unieats/unieats-backend/internal/dues"
	"github.com/unieats/unieats-backend/pkg/logger"
)

type fakeDuesService struct {
	calls  int
	dryRun bool
	err    error
}

func (f *fakeDuesService) Run(_ context.Context, dryRun bool) (*dues.RunResult, error) {
	f.calls++
	f.dryRun = dryRun
	if f.err != nil {
		return nil, f.err
	}
	return &dues.RunResult{DuesCreated: 2, OrdersStamped: 5, DryRun: dryRun}, nil
}

func TestVendorDuesJobRunsService(t *testing.T) {
	svc := &fakeDuesService{}
	job, err := NewVendorDuesJob(VendorDuesJobParams{
		Dues:   svc,
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "vendor-dues-reconciliation" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if svc.calls != 1 {
		t.Fatalf("expected one run, got %d", svc.calls)
	}
	if svc.dryRun {
		t.Fatalf("expected a live run")
	}
}

func TestVendorDuesJobPropagatesFailure(t *testing.T) {
	svc := &fakeDuesService{err: errors.New("listing failed")}
	job, err := NewVendorDuesJob(VendorDuesJobParams{
		Dues:   svc,
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestVendorDuesJobRequiresDeps(t *testing.T) {
	if _, err := NewVendorDuesJob(VendorDuesJobParams{}); err == nil {
		t.Fatalf("expected dependency error")
	}
}
