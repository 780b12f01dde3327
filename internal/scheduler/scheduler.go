// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avolkov/personal-site/internal/geoip"
	"github.com/avolkov/personal-site/internal/store"
)

// Scheduler handles background maintenance tasks such as pruning old
// event log entries and refreshing the GeoIP database.
type Scheduler struct {
	db            *sql.DB
	cron          *cron.Cron
	logger        *slog.Logger
	geo           *geoip.Lookup
	retentionDays int
}

// New creates a scheduler. geo may be nil when GeoIP is not configured.
func New(db *sql.DB, logger *slog.Logger, geo *geoip.Lookup, retentionDays int) *Scheduler {
	return &Scheduler{
		db:            db,
		cron:          cron.New(),
		logger:        logger,
		geo:           geo,
		retentionDays: retentionDays,
	}
}

// Start registers the maintenance jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// Prune the event log daily at 03:15
	_, err := s.cron.AddFunc("15 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	if s.geo != nil {
		// Pick up replaced GeoIP database files hourly
		_, err = s.cron.AddFunc("@hourly", func() {
			if err := s.geo.Reload(); err != nil {
				s.logger.Warn("geoip reload failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneEvents deletes event log entries older than the retention window.
func (s *Scheduler) pruneEvents() error {
	if s.retentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := store.New(s.db).DeleteEventsBefore(context.Background(), cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Info("pruned old events", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
