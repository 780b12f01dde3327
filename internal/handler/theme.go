// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/avolkov/personal-site/internal/service"
	"github.com/avolkov/personal-site/internal/store"
	"github.com/avolkov/personal-site/internal/theme"
)

// sessionPreferenceStore adapts the session manager to theme.PreferenceStore
// for a single request context.
type sessionPreferenceStore struct {
	sm  *scs.SessionManager
	ctx context.Context
}

func (s sessionPreferenceStore) Get(key string) (string, bool) {
	v := s.sm.GetString(s.ctx, key)
	return v, v != ""
}

func (s sessionPreferenceStore) Set(key, value string) error {
	s.sm.Put(s.ctx, key, value)
	return nil
}

// ThemeHandler persists the visitor's theme preference.
type ThemeHandler struct {
	sessionManager *scs.SessionManager
	events         *service.EventService
}

// NewThemeHandler creates a new ThemeHandler.
func NewThemeHandler(sm *scs.SessionManager, events *service.EventService) *ThemeHandler {
	return &ThemeHandler{sessionManager: sm, events: events}
}

// Select stores the selected theme in the session so the next paint can
// resolve it server-side. The client controller applies it immediately.
// POST /theme
func (h *ThemeHandler) Select(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	selected, ok := theme.Parse(r.FormValue("theme"))
	if !ok {
		_ = h.events.LogRequestEvent(r.Context(), r, store.EventLevelWarning, store.EventCategoryTheme,
			"Rejected unknown theme value", nil, map[string]any{"value": r.FormValue("theme")})
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	prefs := sessionPreferenceStore{sm: h.sessionManager, ctx: r.Context()}
	if err := prefs.Set(theme.PreferenceKey, string(selected)); err != nil {
		logAndInternalError(w, "failed to store theme preference", "error", err)
		return
	}

	// Form posts navigate back; fetch callers get 204
	if target := safeReturnPath(r.FormValue("return")); target != "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// safeReturnPath accepts only local absolute paths to prevent open redirects.
func safeReturnPath(raw string) string {
	if raw == "" || raw[0] != '/' {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() != "" || len(raw) > 1 && raw[1] == '/' {
		return ""
	}
	return u.Path
}
