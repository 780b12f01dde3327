// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewYandex_RedirectURL(t *testing.T) {
	p := NewYandex("id", "secret", "https://example.com")

	assert.Equal(t, "https://example.com/login/yandex/callback", p.Config.RedirectURL)
	assert.Equal(t, ProviderYandex, p.Name)

	u := p.AuthCodeURL("state123")
	assert.Contains(t, u, "oauth.yandex.com")
	assert.Contains(t, u, "state=state123")
	assert.Contains(t, u, "client_id=id")
}

func TestNewGoogle_RedirectURL(t *testing.T) {
	p := NewGoogle("id", "secret", "https://example.com")

	assert.Equal(t, "https://example.com/login/google/callback", p.Config.RedirectURL)
	assert.Contains(t, p.AuthCodeURL("s"), "accounts.google.com")
}

func TestParseYandexUserInfo(t *testing.T) {
	body := []byte(`{
		"id": "123456",
		"default_email": "user@yandex.ru",
		"real_name": "Ivan Petrov",
		"display_name": "ivan"
	}`)

	info, err := parseYandexUserInfo(body)
	require.NoError(t, err)
	assert.Equal(t, "123456", info.ID)
	assert.Equal(t, "user@yandex.ru", info.Email)
	assert.Equal(t, "Ivan Petrov", info.Name)
}

func TestParseYandexUserInfo_FallsBackToDisplayName(t *testing.T) {
	body := []byte(`{"id": "7", "default_email": "a@b.ru", "display_name": "nick"}`)

	info, err := parseYandexUserInfo(body)
	require.NoError(t, err)
	assert.Equal(t, "nick", info.Name)
}

func TestParseGoogleUserInfo(t *testing.T) {
	body := []byte(`{"sub": "g-999", "email": "user@gmail.com", "name": "Jane Roe"}`)

	info, err := parseGoogleUserInfo(body)
	require.NoError(t, err)
	assert.Equal(t, "g-999", info.ID)
	assert.Equal(t, "user@gmail.com", info.Email)
	assert.Equal(t, "Jane Roe", info.Name)
}

func TestFetchUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The oauth2 transport must attach the bearer token.
		if !strings.Contains(r.Header.Get("Authorization"), "test-token") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "42", "default_email": "x@y.ru", "real_name": "X Y"}`))
	}))
	defer srv.Close()

	p := NewYandex("id", "secret", "https://example.com")
	p.UserInfoURL = srv.URL

	info, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "test-token"})
	require.NoError(t, err)
	assert.Equal(t, UserInfo{ID: "42", Email: "x@y.ru", Name: "X Y"}, info)
}

func TestFetchUserInfo_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewGoogle("id", "secret", "https://example.com")
	p.UserInfoURL = srv.URL

	_, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "t"})
	assert.Error(t, err)
}

func TestFetchUserInfo_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"default_email": "x@y.ru"}`))
	}))
	defer srv.Close()

	p := NewYandex("id", "secret", "https://example.com")
	p.UserInfoURL = srv.URL

	_, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "t"})
	assert.Error(t, err)
}

func TestProvidersLookup(t *testing.T) {
	ps := Providers{
		ProviderYandex: NewYandex("id", "secret", "https://example.com"),
	}

	assert.NotNil(t, ps.Lookup("yandex"))
	assert.Nil(t, ps.Lookup("google"))
	assert.Nil(t, ps.Lookup("github"))
}
