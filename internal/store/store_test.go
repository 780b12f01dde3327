// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB creates an in-memory SQLite database with the application schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider TEXT NOT NULL,
			provider_user_id TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME,
			UNIQUE (provider, provider_user_id)
		);
		CREATE TABLE comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			body TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, q *Queries, provider, providerUserID string) User {
	t.Helper()
	now := time.Now()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		Provider:       provider,
		ProviderUserID: providerUserID,
		Email:          providerUserID + "@example.com",
		Name:           "Test User",
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	user := createTestUser(t, q, "yandex", "12345")
	assert.Equal(t, "yandex", user.Provider)
	assert.Equal(t, "12345", user.ProviderUserID)
	assert.False(t, user.LastLoginAt.Valid)

	got, err := q.GetUserByProvider(ctx, GetUserByProviderParams{
		Provider:       "yandex",
		ProviderUserID: "12345",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = q.GetUserByProvider(ctx, GetUserByProviderParams{
		Provider:       "google",
		ProviderUserID: "12345",
	})
	assert.True(t, errors.Is(err, sql.ErrNoRows), "same provider id under another provider must not match")
}

func TestUpdateUserLastLogin(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	user := createTestUser(t, q, "google", "abc")

	loginAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	err := q.UpdateUserLastLogin(ctx, UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: loginAt, Valid: true},
		ID:          user.ID,
	})
	require.NoError(t, err)

	got, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, got.LastLoginAt.Valid)
	assert.True(t, got.LastLoginAt.Time.Equal(loginAt))
}

func TestUpdateUserProfile(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	user := createTestUser(t, q, "yandex", "42")

	err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{
		Email:     "new@example.com",
		Name:      "Renamed",
		UpdatedAt: time.Now(),
		ID:        user.ID,
	})
	require.NoError(t, err)

	got, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "Renamed", got.Name)
}

func TestComments_CreateListDelete(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	user := createTestUser(t, q, "yandex", "1")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := q.CreateComment(ctx, CreateCommentParams{
		Body: "first", UserID: user.ID, CreatedAt: base,
	})
	require.NoError(t, err)
	second, err := q.CreateComment(ctx, CreateCommentParams{
		Body: "second", UserID: user.ID, CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	comments, err := q.ListComments(ctx)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	// Newest first
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, first.ID, comments[1].ID)
	assert.Equal(t, "Test User", comments[0].AuthorName)

	count, err := q.CountComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, q.DeleteComment(ctx, first.ID))

	_, err = q.GetComment(ctx, first.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	count, err = q.CountComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEvents_CreateAndPrune(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -100)
	recent := time.Now()

	_, err := q.CreateEvent(ctx, CreateEventParams{
		Level: EventLevelInfo, Category: EventCategoryAuth,
		Message: "old login", Metadata: "{}", CreatedAt: old,
	})
	require.NoError(t, err)

	kept, err := q.CreateEvent(ctx, CreateEventParams{
		Level: EventLevelWarning, Category: EventCategorySystem,
		Message: "recent warning", Metadata: `{"k":"v"}`, CreatedAt: recent,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, kept.Metadata)

	deleted, err := q.DeleteEventsBefore(ctx, time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db, false), "seed disabled should be a no-op")

	q := New(db)
	count, err := q.CountComments(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, Seed(ctx, db, true))

	count, err = q.CountComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Seeding twice must not duplicate content.
	require.NoError(t, Seed(ctx, db, true))
	count, err = q.CountComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
