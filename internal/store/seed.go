// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Seed creates demo content: a placeholder user and a couple of comments.
// It is a no-op unless doSeed is true or when any comments already exist.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		return nil
	}

	queries := New(db)

	count, err := queries.CountComments(ctx)
	if err != nil {
		return fmt.Errorf("counting comments: %w", err)
	}
	if count > 0 {
		slog.Info("comments already exist, skipping seed")
		return nil
	}

	now := time.Now()
	user, err := queries.GetUserByProvider(ctx, GetUserByProviderParams{
		Provider:       "seed",
		ProviderUserID: "demo",
	})
	if errors.Is(err, sql.ErrNoRows) {
		user, err = queries.CreateUser(ctx, CreateUserParams{
			Provider:       "seed",
			ProviderUserID: "demo",
			Email:          "demo@example.com",
			Name:           "Demo Visitor",
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	if err != nil {
		return fmt.Errorf("creating seed user: %w", err)
	}

	bodies := []string{
		"Welcome! This is a seeded comment.",
		"Markdown works here: **bold**, _italic_, and `code`.",
	}
	for i, body := range bodies {
		if _, err := queries.CreateComment(ctx, CreateCommentParams{
			Body:      body,
			UserID:    user.ID,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}); err != nil {
			return fmt.Errorf("creating seed comment: %w", err)
		}
	}

	slog.Info("seeded demo content", "user_id", user.ID, "comments", len(bodies))
	return nil
}
