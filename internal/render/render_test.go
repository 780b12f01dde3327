// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/personal-site/internal/middleware"
	"github.com/avolkov/personal-site/internal/theme"
)

var templatesFS = fstest.MapFS{
	"layouts/base.html": &fstest.MapFile{Data: []byte(
		`{{define "base"}}<html{{if .ThemeAttr}} data-bs-theme="{{.ThemeAttr}}"{{end}}><head><title>{{.Title}}</title></head><body>` +
			`{{if .Flash}}<div class="flash-{{.FlashType}}">{{.Flash}}</div>{{end}}` +
			`{{template "content" .}}{{template "footer" .}}</body></html>{{end}}`)},
	"partials/footer.html": &fstest.MapFile{Data: []byte(
		`{{define "footer"}}<footer>{{.CurrentYear}}</footer>{{end}}`)},
	"pages/home.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}<main>{{markdown "**hi**"}}</main>{{end}}`)},
}

func newTestRenderer(t *testing.T, sm *scs.SessionManager) *Renderer {
	t.Helper()

	r, err := New(Config{TemplatesFS: templatesFS, SessionManager: sm, IsDev: true})
	require.NoError(t, err)
	return r
}

// serve runs fn inside the session middleware and returns the response.
func serve(t *testing.T, sm *scs.SessionManager, req *http.Request, fn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	sm.LoadAndSave(fn).ServeHTTP(rec, req)
	return rec
}

func TestRenderPage(t *testing.T) {
	sm := scs.New()
	r := newTestRenderer(t, sm)

	req := httptest.NewRequest("GET", "/", nil)
	rec := serve(t, sm, req, func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, r.Render(w, req, "home", TemplateData{Title: "Home"}))
	})

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Home</title>")
	assert.Contains(t, body, "<strong>hi</strong>", "markdown func should render")
	assert.Contains(t, body, time.Now().Format("2006"), "current year in footer")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRenderUnknownTemplate(t *testing.T) {
	sm := scs.New()
	r := newTestRenderer(t, sm)

	req := httptest.NewRequest("GET", "/", nil)
	serve(t, sm, req, func(w http.ResponseWriter, req *http.Request) {
		err := r.Render(w, req, "missing", TemplateData{})
		assert.Error(t, err)
	})
}

func TestRenderPopsFlash(t *testing.T) {
	sm := scs.New()
	r := newTestRenderer(t, sm)

	req := httptest.NewRequest("GET", "/", nil)
	rec := serve(t, sm, req, func(w http.ResponseWriter, req *http.Request) {
		r.SetFlash(req, "Saved", "success")
		require.NoError(t, r.Render(w, req, "home", TemplateData{}))

		// Flash is consumed by the render
		assert.Empty(t, sm.GetString(req.Context(), middleware.SessionKeyFlash))
	})

	assert.Contains(t, rec.Body.String(), `<div class="flash-success">Saved</div>`)
}

func TestRenderThemeResolution(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		hint       string
		wantAttr   string
		wantNoAttr bool
	}{
		{"no preference, no hint", "", "", "", true},
		{"no preference, dark hint", "", "dark", "dark", false},
		{"stored light beats dark hint", "light", "dark", "light", false},
		{"stored dark", "dark", "", "dark", false},
		{"stored auto leaves attribute off for ambient styling", "auto", "dark", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := scs.New()
			r := newTestRenderer(t, sm)

			req := httptest.NewRequest("GET", "/", nil)
			if tt.hint != "" {
				req.Header.Set("Sec-CH-Prefers-Color-Scheme", tt.hint)
			}

			rec := serve(t, sm, req, func(w http.ResponseWriter, req *http.Request) {
				if tt.stored != "" {
					sm.Put(req.Context(), theme.PreferenceKey, tt.stored)
				}
				require.NoError(t, r.Render(w, req, "home", TemplateData{}))
			})

			body := rec.Body.String()
			if tt.wantNoAttr {
				assert.NotContains(t, body, "data-bs-theme")
			} else {
				assert.Contains(t, body, `data-bs-theme="`+tt.wantAttr+`"`)
			}
		})
	}
}

func TestMarkdownSanitizes(t *testing.T) {
	sm := scs.New()
	r := newTestRenderer(t, sm)

	out := string(r.Markdown("**bold** <script>alert(1)</script> [link](https://example.com)"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.NotContains(t, out, "<script>")

	out = string(r.Markdown(`<img src=x onerror="alert(1)">`))
	assert.False(t, strings.Contains(out, "onerror"))
}
