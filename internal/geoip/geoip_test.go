// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutDatabase(t *testing.T) {
	g, err := New("")
	require.NoError(t, err)
	assert.False(t, g.Enabled())
	assert.NoError(t, g.Close())
}

func TestNewMissingFile(t *testing.T) {
	g, err := New("/nonexistent/GeoLite2-Country.mmdb")
	require.Error(t, err)
	assert.False(t, g.Enabled())
}

func TestCountryLocalAddresses(t *testing.T) {
	g, err := New("")
	require.NoError(t, err)

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", "LOCAL"},
		{"::1", "LOCAL"},
		{"10.1.2.3", "LOCAL"},
		{"172.16.0.1", "LOCAL"},
		{"192.168.1.100", "LOCAL"},
		{"fe80::1", "LOCAL"},
		{"not-an-ip", ""},
		{"", ""},
		// Public address with no database loaded
		{"8.8.8.8", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Country(tt.ip), "ip: %q", tt.ip)
	}
}

func TestReloadWithoutPath(t *testing.T) {
	g, err := New("")
	require.NoError(t, err)
	assert.NoError(t, g.Reload())
}
