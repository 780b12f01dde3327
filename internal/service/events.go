// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic shared by handlers, including
// event logging for the audit trail.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/avolkov/personal-site/internal/geoip"
	"github.com/avolkov/personal-site/internal/store"
)

// EventService writes audit events enriched with request context.
type EventService struct {
	queries *store.Queries
	geo     *geoip.Lookup
}

// NewEventService creates an EventService. geo may be nil when GeoIP is
// not configured.
func NewEventService(db *sql.DB, geo *geoip.Lookup) *EventService {
	return &EventService{
		queries: store.New(db),
		geo:     geo,
	}
}

// LogEvent creates an event log entry. Metadata is stored as JSON.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to log event", "error", err, "category", category)
		return err
	}
	return nil
}

// LogRequestEvent logs an event enriched with the client IP, country and
// parsed user agent of the request.
func (s *EventService) LogRequestEvent(ctx context.Context, r *http.Request, level, category, message string, userID *int64, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	ip := ClientIP(r)
	metadata["ip"] = ip
	if s.geo != nil {
		if country := s.geo.Country(ip); country != "" {
			metadata["country"] = country
		}
	}

	if uaHeader := r.UserAgent(); uaHeader != "" {
		ua := useragent.Parse(uaHeader)
		if ua.Name != "" {
			metadata["browser"] = ua.Name
		}
		if ua.OS != "" {
			metadata["os"] = ua.OS
		}
		if ua.Bot {
			metadata["bot"] = true
		}
	}

	return s.LogEvent(ctx, level, category, message, userID, metadata)
}

// LogAuthEvent logs an authentication event with request enrichment.
func (s *EventService) LogAuthEvent(ctx context.Context, r *http.Request, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogRequestEvent(ctx, r, level, store.EventCategoryAuth, message, userID, metadata)
}

// LogCommentEvent logs a comment event with request enrichment.
func (s *EventService) LogCommentEvent(ctx context.Context, r *http.Request, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogRequestEvent(ctx, r, level, store.EventCategoryComment, message, userID, metadata)
}

// ClientIP extracts the client IP from the request. RemoteAddr carries
// the real client address once chi's RealIP middleware has run.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
