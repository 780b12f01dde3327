// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// User roles are implicit: everyone who can log in is a regular visitor.
// Event log levels and categories.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"

	EventCategoryAuth    = "auth"
	EventCategoryComment = "comment"
	EventCategoryTheme   = "theme"
	EventCategorySystem  = "system"
)

// User represents a site visitor provisioned via OAuth login.
type User struct {
	ID             int64
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLoginAt    sql.NullTime
}

// Comment is a visitor comment.
type Comment struct {
	ID        int64
	Body      string
	UserID    int64
	CreatedAt time.Time
}

// Event is an event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

// Queries wraps a database handle with typed query methods.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance for the given database.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// GetUserByID returns the user with the given ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_user_id, email, name, created_at, updated_at, last_login_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByProviderParams identifies a user by OAuth provider identity.
type GetUserByProviderParams struct {
	Provider       string
	ProviderUserID string
}

// GetUserByProvider returns the user matching an OAuth provider identity.
func (q *Queries) GetUserByProvider(ctx context.Context, arg GetUserByProviderParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_user_id, email, name, created_at, updated_at, last_login_at
		FROM users WHERE provider = ? AND provider_user_id = ?`,
		arg.Provider, arg.ProviderUserID)
	return scanUser(row)
}

// CreateUserParams holds fields for creating a user.
type CreateUserParams struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateUser inserts a new user and returns it.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO users (provider, provider_user_id, email, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Provider, arg.ProviderUserID, arg.Email, arg.Name, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// UpdateUserProfileParams holds fields refreshed from the OAuth provider on login.
type UpdateUserProfileParams struct {
	Email     string
	Name      string
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserProfile refreshes the user's email and name.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET email = ?, name = ?, updated_at = ? WHERE id = ?`,
		arg.Email, arg.Name, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserLastLoginParams holds fields for recording a login.
type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

// UpdateUserLastLogin records the user's last login timestamp.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET last_login_at = ? WHERE id = ?`, arg.LastLoginAt, arg.ID)
	return err
}

// ListCommentsRow is a comment joined with its author's name.
type ListCommentsRow struct {
	ID         int64
	Body       string
	UserID     int64
	AuthorName string
	CreatedAt  time.Time
}

// ListComments returns all comments newest-first with author names.
func (q *Queries) ListComments(ctx context.Context) ([]ListCommentsRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.body, c.user_id, u.name, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		ORDER BY c.created_at DESC, c.id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var comments []ListCommentsRow
	for rows.Next() {
		var c ListCommentsRow
		if err := rows.Scan(&c.ID, &c.Body, &c.UserID, &c.AuthorName, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateCommentParams holds fields for creating a comment.
type CreateCommentParams struct {
	Body      string
	UserID    int64
	CreatedAt time.Time
}

// CreateComment inserts a new comment and returns it.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO comments (body, user_id, created_at) VALUES (?, ?, ?)`,
		arg.Body, arg.UserID, arg.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Comment{}, err
	}
	return q.GetComment(ctx, id)
}

// GetComment returns the comment with the given ID.
func (q *Queries) GetComment(ctx context.Context, id int64) (Comment, error) {
	var c Comment
	err := q.db.QueryRowContext(ctx, `
		SELECT id, body, user_id, created_at FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.Body, &c.UserID, &c.CreatedAt)
	return c, err
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}

// CountComments returns the total number of comments.
func (q *Queries) CountComments(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n)
	return n, err
}

// CreateEventParams holds fields for creating an event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an event log entry and returns it.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO events (level, category, message, user_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt)
	if err != nil {
		return Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Event{}, err
	}
	var e Event
	err = q.db.QueryRowContext(ctx, `
		SELECT id, level, category, message, user_id, metadata, created_at
		FROM events WHERE id = ?`, id).
		Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt)
	return e, err
}

// ListRecentEvents returns the most recent events, newest first.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, level, category, message, user_id, metadata, created_at
		FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEventsBefore removes events created before the cutoff and reports how many.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Provider, &u.ProviderUserID, &u.Email, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}
