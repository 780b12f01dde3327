// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/personal-site/internal/middleware"
	"github.com/avolkov/personal-site/internal/render"
	"github.com/avolkov/personal-site/internal/service"
	"github.com/avolkov/personal-site/internal/store"
)

// MaxCommentLength is the maximum comment body length after trimming.
const MaxCommentLength = 500

// CommentsHandler handles the comments page and comment mutations.
type CommentsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	events   *service.EventService
}

// NewCommentsHandler creates a new CommentsHandler.
func NewCommentsHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService) *CommentsHandler {
	return &CommentsHandler{
		queries:  store.New(db),
		renderer: renderer,
		events:   events,
	}
}

// commentsPageData holds data for the comments template.
type commentsPageData struct {
	Comments []store.ListCommentsRow
}

// List renders the comments page, newest first.
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.queries.ListComments(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "comments", render.TemplateData{
		Title: "Comments",
		Data:  commentsPageData{Comments: comments},
	}); err != nil {
		logAndInternalError(w, "failed to render comments page", "error", err)
	}
}

// Create handles the comment form submission. The route is wrapped with
// the auth middleware.
func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, redirectComments, "Invalid form data")
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" {
		flashError(w, r, h.renderer, redirectComments, "Comment cannot be empty")
		return
	}
	if len([]rune(body)) > MaxCommentLength {
		flashError(w, r, h.renderer, redirectComments, "Comment is too long (500 characters max)")
		return
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		Body:      body,
		UserID:    user.ID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create comment", "error", err, "user_id", user.ID)
		return
	}

	_ = h.events.LogCommentEvent(r.Context(), r, store.EventLevelInfo, "Comment created",
		&user.ID, map[string]any{"comment_id": comment.ID})

	flashSuccess(w, r, h.renderer, redirectComments, "Comment posted")
}

// Delete removes a comment. Authors may delete only their own comments.
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		flashError(w, r, h.renderer, redirectComments, "Comment not found")
		return
	}

	comment, err := h.queries.GetComment(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, redirectComments, "Comment not found")
			return
		}
		logAndInternalError(w, "failed to get comment", "error", err, "comment_id", id)
		return
	}

	if comment.UserID != user.ID {
		_ = h.events.LogCommentEvent(r.Context(), r, store.EventLevelWarning,
			"Comment delete denied: not the author", &user.ID, map[string]any{"comment_id": id})
		flashError(w, r, h.renderer, redirectComments, "You can only delete your own comments")
		return
	}

	if err := h.queries.DeleteComment(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to delete comment", "error", err, "comment_id", id)
		return
	}

	_ = h.events.LogCommentEvent(r.Context(), r, store.EventLevelInfo, "Comment deleted",
		&user.ID, map[string]any{"comment_id": id})

	flashSuccess(w, r, h.renderer, redirectComments, "Comment deleted")
}
