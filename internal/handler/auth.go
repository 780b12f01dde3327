// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avolkov/personal-site/internal/auth"
	"github.com/avolkov/personal-site/internal/middleware"
	"github.com/avolkov/personal-site/internal/render"
	"github.com/avolkov/personal-site/internal/service"
	"github.com/avolkov/personal-site/internal/store"
)

// AuthHandler handles OAuth sign-in and sign-out.
type AuthHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	providers      auth.Providers
	events         *service.EventService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, providers auth.Providers, events *service.EventService) *AuthHandler {
	return &AuthHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		providers:      providers,
		events:         events,
	}
}

// Login starts the OAuth authorization code flow for a provider.
// GET /login/{provider}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	provider := h.providers.Lookup(chi.URLParam(r, "provider"))
	if provider == nil {
		flashError(w, r, h.renderer, redirectHome, "Sign-in with this provider is not available")
		return
	}

	// Redirect already-authenticated users
	if h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID) > 0 {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}

	// State nonce ties the callback to this session
	state := uuid.NewString()
	h.sessionManager.Put(r.Context(), middleware.SessionKeyOAuthState, state)

	_ = h.events.LogAuthEvent(r.Context(), r, store.EventLevelInfo, "Login started", nil,
		map[string]any{"provider": provider.Name})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the OAuth flow: validates state, exchanges the code,
// fetches the user info and signs the user in.
// GET /login/{provider}/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := h.providers.Lookup(chi.URLParam(r, "provider"))
	if provider == nil {
		flashError(w, r, h.renderer, redirectHome, "Sign-in with this provider is not available")
		return
	}

	expectedState := h.sessionManager.PopString(r.Context(), middleware.SessionKeyOAuthState)
	state := r.URL.Query().Get("state")
	if expectedState == "" || state != expectedState {
		_ = h.events.LogAuthEvent(r.Context(), r, store.EventLevelWarning,
			"OAuth callback state mismatch", nil, map[string]any{"provider": provider.Name})
		flashError(w, r, h.renderer, redirectHome, "Sign-in failed, please try again")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		// Provider denied or the user cancelled
		flashError(w, r, h.renderer, redirectHome, "Sign-in was cancelled")
		return
	}

	token, err := provider.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("oauth code exchange failed", "error", err, "provider", provider.Name)
		_ = h.events.LogAuthEvent(r.Context(), r, store.EventLevelWarning,
			"OAuth code exchange failed", nil, map[string]any{"provider": provider.Name})
		flashError(w, r, h.renderer, redirectHome, "Sign-in failed, please try again")
		return
	}

	info, err := provider.FetchUserInfo(r.Context(), token)
	if err != nil {
		slog.Error("oauth userinfo fetch failed", "error", err, "provider", provider.Name)
		flashError(w, r, h.renderer, redirectHome, "Sign-in failed, please try again")
		return
	}

	user, err := h.upsertUser(r, provider.Name, info)
	if err != nil {
		logAndInternalError(w, "failed to upsert user", "error", err, "provider", provider.Name)
		return
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "provider", provider.Name)
	_ = h.events.LogAuthEvent(r.Context(), r, store.EventLevelInfo, "User logged in",
		&user.ID, map[string]any{"provider": provider.Name})

	flashSuccess(w, r, h.renderer, redirectHome, fmt.Sprintf("Welcome, %s", user.Name))
}

// upsertUser finds or creates the user for an OAuth identity and refreshes
// the profile fields the provider reports.
func (h *AuthHandler) upsertUser(r *http.Request, provider string, info auth.UserInfo) (store.User, error) {
	now := time.Now()

	user, err := h.queries.GetUserByProvider(r.Context(), store.GetUserByProviderParams{
		Provider:       provider,
		ProviderUserID: info.ID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		user, err = h.queries.CreateUser(r.Context(), store.CreateUserParams{
			Provider:       provider,
			ProviderUserID: info.ID,
			Email:          info.Email,
			Name:           displayName(info),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return store.User{}, err
		}
		_ = h.events.LogAuthEvent(r.Context(), r, store.EventLevelInfo, "User registered",
			&user.ID, map[string]any{"provider": provider})
	} else if err != nil {
		return store.User{}, err
	} else if user.Email != info.Email || user.Name != displayName(info) {
		if err := h.queries.UpdateUserProfile(r.Context(), store.UpdateUserProfileParams{
			Email:     info.Email,
			Name:      displayName(info),
			UpdatedAt: now,
			ID:        user.ID,
		}); err != nil {
			slog.Error("failed to refresh user profile", "error", err, "user_id", user.ID)
		} else {
			user.Email = info.Email
			user.Name = displayName(info)
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: now, Valid: true},
		ID:          user.ID,
	}); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
		// Don't block login on this error
	}

	return user, nil
}

// displayName picks a presentable name for a user, falling back to the
// email and finally the provider user ID.
func displayName(info auth.UserInfo) string {
	if info.Name != "" {
		return info.Name
	}
	if info.Email != "" {
		return info.Email
	}
	return info.ID
}

// Logout destroys the session and redirects home.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	// Log before destroying the session so the user ID is still known
	if userID > 0 {
		_ = h.events.LogAuthEvent(r.Context(), r, store.EventLevelInfo, "User logged out", &userID, nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)
	flashAndRedirect(w, r, h.renderer, redirectHome, "You have been signed out", "info")
}
