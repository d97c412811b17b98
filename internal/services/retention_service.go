package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/repositories"
)

// RetentionReport counts the rows removed by one sweep
type RetentionReport struct {
	RefreshTokens     int64
	BlacklistedTokens int64
	AuditLogs         int64
	LinkEvents        int64
}

func (r RetentionReport) Total() int64 {
	return r.RefreshTokens + r.BlacklistedTokens + r.AuditLogs + r.LinkEvents
}

// RetentionService purges expired tokens and history older than the configured ages
type RetentionService struct {
	refreshTokenRepo     repositories.RefreshTokenRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	auditRepo            repositories.AuditLogRepositoryInterface
	eventRepo            repositories.LinkEventRepositoryInterface
	cfg                  config.RetentionConfig
	metrics              MetricsRecorderInterface
	logger               *slog.Logger
}

func NewRetentionService(
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	eventRepo repositories.LinkEventRepositoryInterface,
	cfg config.RetentionConfig,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) *RetentionService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &RetentionService{
		refreshTokenRepo:     refreshTokenRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		auditRepo:            auditRepo,
		eventRepo:            eventRepo,
		cfg:                  cfg,
		metrics:              metrics,
		logger:               logger,
	}
}

// Sweep runs every purge. A failing table does not stop the others; the failures are joined.
func (s *RetentionService) Sweep() (RetentionReport, error) {
	var (
		report RetentionReport
		errs   []error
	)

	purge := func(table string, dst *int64, fn func() (int64, error)) {
		n, err := fn()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", table, err))
			return
		}
		*dst = n
		s.metrics.RecordGauge(MetricRetentionPurged, float64(n), map[string]string{"table": table})
	}

	purge("refresh_tokens", &report.RefreshTokens, s.refreshTokenRepo.DeleteExpired)
	purge("blacklisted_tokens", &report.BlacklistedTokens, s.blacklistedTokenRepo.DeleteExpired)
	if s.cfg.AuditLogs > 0 {
		purge("audit_logs", &report.AuditLogs, func() (int64, error) {
			return s.auditRepo.DeleteOlderThan(s.cfg.AuditLogs)
		})
	}
	if s.cfg.LinkEvents > 0 {
		purge("link_events", &report.LinkEvents, func() (int64, error) {
			return s.eventRepo.DeleteOlderThan(s.cfg.LinkEvents)
		})
	}

	return report, errors.Join(errs...)
}

// Run sweeps every cfg.Interval until ctx is done
func (s *RetentionService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.Sweep()
			if err != nil {
				s.logger.Warn("retention sweep failed", "error", err)
			}
			if report.Total() > 0 {
				s.logger.Info("retention sweep",
					"refresh_tokens", report.RefreshTokens,
					"blacklisted_tokens", report.BlacklistedTokens,
					"audit_logs", report.AuditLogs,
					"link_events", report.LinkEvents)
			}
		}
	}
}
