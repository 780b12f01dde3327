package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/avolkov/personal-site/internal/store"
	"github.com/avolkov/personal-site/internal/theme"
)

func themeForm(value, returnPath string) *strings.Reader {
	form := url.Values{"theme": {value}}
	if returnPath != "" {
		form.Set("return", returnPath)
	}
	return strings.NewReader(form.Encode())
}

func TestThemeSelectPersists(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	h := NewThemeHandler(sm, testEventService(db))

	for _, value := range []string{"light", "dark", "auto"} {
		req := httptest.NewRequest("POST", "/theme", themeForm(value, ""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var stored string
		rec := do(t, sm, nil, req, func(w http.ResponseWriter, r *http.Request) {
			h.Select(w, r)
			stored = sm.GetString(r.Context(), theme.PreferenceKey)
		})

		assertStatus(t, rec.Code, 204)
		if stored != value {
			t.Errorf("stored preference = %q; want %q", stored, value)
		}
	}
}

func TestThemeSelectRedirectsBack(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	h := NewThemeHandler(sm, testEventService(db))

	req := httptest.NewRequest("POST", "/theme", themeForm("dark", "/comments"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, sm, nil, req, h.Select)

	assertStatus(t, rec.Code, 303)
	if got := rec.Header().Get("Location"); got != "/comments" {
		t.Errorf("Location = %q; want %q", got, "/comments")
	}
}

func TestThemeSelectRejectsUnknownValue(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	h := NewThemeHandler(sm, testEventService(db))

	for _, value := range []string{"", "blue", "DARK", "Auto"} {
		req := httptest.NewRequest("POST", "/theme", themeForm(value, ""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var stored string
		rec := do(t, sm, nil, req, func(w http.ResponseWriter, r *http.Request) {
			h.Select(w, r)
			stored = sm.GetString(r.Context(), theme.PreferenceKey)
		})

		assertStatus(t, rec.Code, 400)
		if stored != "" {
			t.Errorf("stored preference = %q for value %q; want nothing stored", stored, value)
		}
	}

	events, err := store.New(db).ListRecentEvents(t.Context(), 10)
	if err != nil {
		t.Fatalf("listing events: %v", err)
	}
	if len(events) == 0 {
		t.Error("expected audit events for rejected theme values")
	}
}

func TestSafeReturnPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"/comments", "/comments"},
		{"/", "/"},
		{"", ""},
		{"https://evil.example", ""},
		{"//evil.example", ""},
		{"comments", ""},
	}
	for _, tt := range tests {
		if got := safeReturnPath(tt.raw); got != tt.want {
			t.Errorf("safeReturnPath(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}
