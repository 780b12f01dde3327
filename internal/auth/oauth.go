// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth implements the OAuth 2.0 authorization-code flow against the
// supported identity providers (Yandex and Google).
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Provider names used in routes and in the users table.
const (
	ProviderYandex = "yandex"
	ProviderGoogle = "google"
)

// maxUserInfoBody caps the userinfo response size.
const maxUserInfoBody = 1 << 20

// UserInfo is the provider-agnostic identity returned after a login.
type UserInfo struct {
	ID    string
	Email string
	Name  string
}

// Provider is a configured OAuth 2.0 identity provider.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	parse       func([]byte) (UserInfo, error)
}

// NewYandex creates the Yandex provider. The callback URL is derived from
// the site base URL.
func NewYandex(clientID, clientSecret, baseURL string) *Provider {
	return &Provider{
		Name: ProviderYandex,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.Yandex,
			RedirectURL:  baseURL + "/login/yandex/callback",
			Scopes:       []string{"login:info", "login:email", "login:avatar"},
		},
		UserInfoURL: "https://login.yandex.ru/info?format=json",
		parse:       parseYandexUserInfo,
	}
}

// NewGoogle creates the Google provider.
func NewGoogle(clientID, clientSecret, baseURL string) *Provider {
	return &Provider{
		Name: ProviderGoogle,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.Google,
			RedirectURL:  baseURL + "/login/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		parse:       parseGoogleUserInfo,
	}
}

// AuthCodeURL returns the provider authorization URL for the given state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// Exchange swaps an authorization code for a token.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code with %s: %w", p.Name, err)
	}
	return tok, nil
}

// FetchUserInfo retrieves and parses the provider's userinfo document.
func (p *Provider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (UserInfo, error) {
	client := p.Config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("building userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("fetching userinfo from %s: %w", p.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("userinfo from %s: unexpected status %d", p.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBody))
	if err != nil {
		return UserInfo{}, fmt.Errorf("reading userinfo response: %w", err)
	}

	info, err := p.parse(body)
	if err != nil {
		return UserInfo{}, fmt.Errorf("parsing userinfo from %s: %w", p.Name, err)
	}
	if info.ID == "" {
		return UserInfo{}, fmt.Errorf("userinfo from %s has no user id", p.Name)
	}
	return info, nil
}

func parseYandexUserInfo(body []byte) (UserInfo, error) {
	var data struct {
		ID           string `json:"id"`
		DefaultEmail string `json:"default_email"`
		RealName     string `json:"real_name"`
		DisplayName  string `json:"display_name"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return UserInfo{}, err
	}

	// Prefer the real name, fall back to the display name.
	name := data.RealName
	if name == "" {
		name = data.DisplayName
	}

	return UserInfo{ID: data.ID, Email: data.DefaultEmail, Name: name}, nil
}

func parseGoogleUserInfo(body []byte) (UserInfo, error) {
	var data struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return UserInfo{}, err
	}
	return UserInfo{ID: data.Sub, Email: data.Email, Name: data.Name}, nil
}

// Providers is the set of enabled providers keyed by name.
type Providers map[string]*Provider

// Lookup returns the provider by name, or nil if it is not enabled.
func (ps Providers) Lookup(name string) *Provider {
	return ps[name]
}
