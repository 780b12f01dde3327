// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/avolkov/personal-site/internal/middleware"
	"github.com/avolkov/personal-site/internal/render"
)

// FrontendHandler serves the public site pages.
type FrontendHandler struct {
	renderer *render.Renderer
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(renderer *render.Renderer) *FrontendHandler {
	return &FrontendHandler{renderer: renderer}
}

// Home renders the homepage.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "home", render.TemplateData{
		Title: "Home",
	}); err != nil {
		logAndInternalError(w, "failed to render home page", "error", err)
	}
}

// About renders the about page.
func (h *FrontendHandler) About(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "about", render.TemplateData{
		Title: "About",
	}); err != nil {
		logAndInternalError(w, "failed to render about page", "error", err)
	}
}

// Contacts renders the contacts page.
func (h *FrontendHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "contacts", render.TemplateData{
		Title: "Contacts",
	}); err != nil {
		logAndInternalError(w, "failed to render contacts page", "error", err)
	}
}

// Profile renders the signed-in user's profile page. The route is wrapped
// with the auth middleware, so an authenticated user is always present.
func (h *FrontendHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "profile", render.TemplateData{
		Title: "Profile",
		User:  user,
	}); err != nil {
		logAndInternalError(w, "failed to render profile page", "error", err)
	}
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(HeaderContentType, "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := h.renderer.Render(w, r, "404", render.TemplateData{
		Title: "Page Not Found",
	}); err != nil {
		http.Error(w, "Page Not Found", http.StatusNotFound)
	}
}
