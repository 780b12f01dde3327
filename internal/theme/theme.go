// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

// Package theme implements the visual theme preference controller.
//
// A preference is one of light, dark, or auto. It is persisted in an
// injected key-value store under the "theme" key and reflected on the
// document root as the data-bs-theme attribute: absent for auto, set to
// "light" or "dark" otherwise. The store, document, and selection controls
// are capabilities passed in by the caller, so the controller runs the same
// against a browser session, an HTTP session, or test fakes.
package theme

import "errors"

// ErrUnknownTheme is returned when selecting a value outside the enum.
var ErrUnknownTheme = errors.New("theme: unknown theme value")

// Theme is a named visual mode.
type Theme string

// Theme values.
const (
	Light Theme = "light"
	Dark  Theme = "dark"
	Auto  Theme = "auto"
)

// PreferenceKey is the key under which the preference is persisted.
const PreferenceKey = "theme"

// RootAttr is the document root attribute carrying the effective theme.
const RootAttr = "data-bs-theme"

// Valid reports whether t is one of the three known theme values.
func (t Theme) Valid() bool {
	return t == Light || t == Dark || t == Auto
}

// Parse converts a stored string into a Theme. The second return value is
// false for anything outside the three known values, including "".
func Parse(s string) (Theme, bool) {
	t := Theme(s)
	return t, t.Valid()
}

// PreferenceStore is the persisted key-value capability. A missing key is a
// distinct state from any stored value.
type PreferenceStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Document abstracts the document root attribute the stylesheet keys off.
type Document interface {
	SetRootAttr(value string)
	RemoveRootAttr()
}

// Control is a selectable theme control tagged with the theme it represents.
type Control interface {
	Theme() Theme
	SetActive(active bool)
}

// Resolve determines the initial theme. A stored preference wins verbatim;
// otherwise the ambient signal decides between dark and light. The ambient
// signal is only consulted here, never when applying "auto" later.
func Resolve(stored string, prefersDark bool) Theme {
	if t, ok := Parse(stored); ok {
		return t
	}
	if prefersDark {
		return Dark
	}
	return Light
}

// Apply sets the document root attribute for the theme. Auto removes the
// attribute entirely so ambient styling takes over. Idempotent.
func Apply(doc Document, t Theme) {
	if t == Auto {
		doc.RemoveRootAttr()
		return
	}
	doc.SetRootAttr(string(t))
}

// AttrValue returns the root attribute value for a theme and whether the
// attribute should be present at all.
func AttrValue(t Theme) (string, bool) {
	if t == Auto || !t.Valid() {
		return "", false
	}
	return string(t), true
}

// Controller wires a preference store, a document, and a set of controls.
type Controller struct {
	store    PreferenceStore
	doc      Document
	controls []Control
	current  Theme
}

// NewController creates a controller over the given capabilities.
func NewController(store PreferenceStore, doc Document, controls ...Control) *Controller {
	return &Controller{store: store, doc: doc, controls: controls}
}

// Init resolves the initial preference, applies it, and marks the matching
// control active. Runs once per page load, before any selection is possible.
func (c *Controller) Init(prefersDark bool) Theme {
	stored, _ := c.store.Get(PreferenceKey)
	t := Resolve(stored, prefersDark)
	Apply(c.doc, t)
	c.markActive(t)
	c.current = t
	return t
}

// Select persists the chosen theme, applies it, and moves the active marker.
// A storage failure propagates after the visual state has been applied; the
// attribute and the persisted value may then disagree, which is tolerable
// since the next successful selection overwrites both.
func (c *Controller) Select(t Theme) error {
	if !t.Valid() {
		return ErrUnknownTheme
	}
	err := c.store.Set(PreferenceKey, string(t))
	Apply(c.doc, t)
	c.markActive(t)
	c.current = t
	return err
}

// Current returns the last applied theme. Zero value before Init.
func (c *Controller) Current() Theme {
	return c.current
}

// markActive clears the active marker on every control and sets it on the
// one matching t, keeping exactly one control active.
func (c *Controller) markActive(t Theme) {
	for _, ctl := range c.controls {
		ctl.SetActive(ctl.Theme() == t)
	}
}
