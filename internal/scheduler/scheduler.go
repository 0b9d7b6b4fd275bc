// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler runs the recurring pipeline jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"gunmerch/internal/pipeline"
)

// Job names.
const (
	JobScan        = "scan"
	JobGenerate    = "generate"
	JobSales       = "sales"
	JobMaintenance = "maintenance"
)

// ErrUnknownJob is returned by Run for names other than the Job constants.
var ErrUnknownJob = errors.New("scheduler: unknown job")

// Pipeline is the part of pipeline.Service the jobs call.
type Pipeline interface {
	ScanTrends(ctx context.Context) (pipeline.Summary, error)
	GenerateDesigns(ctx context.Context, count int) (pipeline.Summary, error)
	SyncSales(ctx context.Context) (*pipeline.SalesReport, error)
	Maintenance(ctx context.Context) (pipeline.Summary, error)
}

// Config holds one standard five-field cron expression per job. An empty
// expression disables the job.
type Config struct {
	Scan        string
	Generate    string
	Sales       string
	Maintenance string
	Timeout     time.Duration // per run, default 10m
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron    *cron.Cron
	p       Pipeline
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// New registers the configured jobs. A run that is still in progress
// when its next tick fires causes that tick to be skipped.
func New(p Pipeline, cfg Config) (*Scheduler, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	logger := slogLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		p:       p,
		timeout: cfg.Timeout,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for _, j := range []struct{ name, spec string }{
		{JobScan, cfg.Scan},
		{JobGenerate, cfg.Generate},
		{JobSales, cfg.Sales},
		{JobMaintenance, cfg.Maintenance},
	} {
		if j.spec == "" {
			slog.Info("scheduled job disabled", "job", j.name)
			continue
		}
		name := j.name
		if _, err := s.cron.AddFunc(j.spec, func() { s.Run(s.ctx, name) }); err != nil {
			s.cancel()
			return nil, fmt.Errorf("schedule %s %q: %w", name, j.spec, err)
		}
		slog.Info("job scheduled", "job", name, "spec", j.spec)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and cancels running jobs, then waits for them to
// return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out with jobs still running")
	}
}

// Run executes one job now with the configured timeout and logs its
// summary. It backs both the cron entries and the on-demand job endpoint.
func (s *Scheduler) Run(ctx context.Context, name string) (sum pipeline.Summary, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	switch name {
	case JobScan:
		sum, err = s.p.ScanTrends(ctx)
	case JobGenerate:
		sum, err = s.p.GenerateDesigns(ctx, 0)
	case JobSales:
		var rep *pipeline.SalesReport
		rep, err = s.p.SyncSales(ctx)
		if rep != nil {
			sum = rep.Summary
		}
	case JobMaintenance:
		sum, err = s.p.Maintenance(ctx)
	default:
		return sum, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}

	if err != nil {
		slog.Error("job failed", "job", name, "duration", time.Since(start), "error", err)
		return sum, err
	}
	slog.Info("job complete", "job", name, "duration", time.Since(start), "summary", sum.Message)
	return sum, nil
}

// slogLogger adapts slog to cron.Logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
