package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/avolkov/personal-site/internal/middleware"
	"github.com/avolkov/personal-site/internal/render"
	"github.com/avolkov/personal-site/internal/service"
	"github.com/avolkov/personal-site/internal/store"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

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
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
		);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testTemplatesFS is a minimal template tree matching the production layout.
var testTemplatesFS = fstest.MapFS{
	"layouts/base.html": &fstest.MapFile{Data: []byte(
		`{{define "base"}}<!doctype html><html{{if .ThemeAttr}} data-bs-theme="{{.ThemeAttr}}"{{end}}><body>` +
			`{{if .Flash}}<div class="flash-{{.FlashType}}">{{.Flash}}</div>{{end}}` +
			`{{template "content" .}}</body></html>{{end}}`)},
	"pages/home.html":     &fstest.MapFile{Data: []byte(`{{define "content"}}home{{end}}`)},
	"pages/about.html":    &fstest.MapFile{Data: []byte(`{{define "content"}}about{{end}}`)},
	"pages/contacts.html": &fstest.MapFile{Data: []byte(`{{define "content"}}contacts{{end}}`)},
	"pages/profile.html":  &fstest.MapFile{Data: []byte(`{{define "content"}}profile: {{.User.Name}}{{end}}`)},
	"pages/comments.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}{{range .Data.Comments}}<article>{{markdown .Body}} by {{.AuthorName}}</article>{{end}}{{end}}`)},
	"pages/404.html": &fstest.MapFile{Data: []byte(`{{define "content"}}not found{{end}}`)},
}

// testRenderer creates a renderer over the minimal template tree.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	r, err := render.New(render.Config{
		TemplatesFS:    testTemplatesFS,
		SessionManager: sm,
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("failed to create test renderer: %v", err)
	}
	return r
}

// testEventService creates an event service without GeoIP.
func testEventService(db *sql.DB) *service.EventService {
	return service.NewEventService(db, nil)
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *sql.DB, provider, providerUserID, email, name string) store.User {
	t.Helper()

	now := time.Now()
	user, err := store.New(db).CreateUser(t.Context(), store.CreateUserParams{
		Provider:       provider,
		ProviderUserID: providerUserID,
		Email:          email,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// do runs a handler inside the session middleware, optionally signing the
// request in as the given user.
func do(t *testing.T, sm *scs.SessionManager, user *store.User, r *http.Request, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	wrapped := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if user != nil {
			sm.Put(req.Context(), middleware.SessionKeyUserID, user.ID)
			req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyUser, *user))
		}
		h(w, req)
	}))
	wrapped.ServeHTTP(rec, r)
	return rec
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
