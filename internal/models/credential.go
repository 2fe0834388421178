package models

import (
	"errors"
	"time"
)

// SpotifyTokenKey is the fixed key the Spotify access token is stored under.
const SpotifyTokenKey = "spotify_access_token"

// Credential is a named bearer credential. It implements [Model] with the key as its ID.
type Credential struct {
	key       string
	value     string
	expiresAt *time.Time
	createdAt time.Time
	updatedAt time.Time
}

// NewCredential creates a credential stored under key. A zero expiresAt means the expiry is unknown.
func NewCredential(key, value string, expiresAt time.Time) *Credential {
	now := time.Now().UTC()
	c := &Credential{key: key, value: value, createdAt: now, updatedAt: now}
	if !expiresAt.IsZero() {
		c.expiresAt = &expiresAt
	}
	return c
}

func (c *Credential) ID() string           { return c.key }
func (c *Credential) Value() string        { return c.value }
func (c *Credential) CreatedAt() time.Time { return c.createdAt }
func (c *Credential) UpdatedAt() time.Time { return c.updatedAt }

// ExpiresAt returns the expiry, or nil when unknown.
func (c *Credential) ExpiresAt() *time.Time { return c.expiresAt }

// Expired reports whether the credential has a known expiry that is before now.
func (c *Credential) Expired(now time.Time) bool {
	return c.expiresAt != nil && !now.Before(*c.expiresAt)
}

func (c *Credential) SetValue(v string)         { c.value = v }
func (c *Credential) SetCreatedAt(t time.Time)  { c.createdAt = t }
func (c *Credential) SetUpdatedAt(t time.Time)  { c.updatedAt = t }
func (c *Credential) SetExpiresAt(t *time.Time) { c.expiresAt = t }

func (c *Credential) Validate() error {
	if c.key == "" {
		return errors.New("credential key is required")
	}
	if c.value == "" {
		return errors.New("credential value is required")
	}
	return nil
}
