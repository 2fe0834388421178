// Package session holds the music-service bearer credential.
//
// A [Session] is created once and passed by reference to every component that calls the music service.
// Its lifecycle is an explicit state machine:
//
//	Anonymous --Acquire--> Authenticated --Invalidate(401)--> Expired
//	    ^                        |                               |
//	    +---------Clear----------+-------------Clear-------------+
//
// Acquire from any state replaces the token. Invalidate only applies to the token that produced the 401,
// so a late failure from a stale request cannot log out a freshly acquired token.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/repositories"
	"github.com/desertthunder/tunesmith/internal/shared"
	"golang.org/x/oauth2"
)

// State is the lifecycle state of a [Session].
type State int

const (
	Anonymous State = iota
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return ""
	}
}

// Store persists the credential between runs. [repositories.CredentialRepository] satisfies it.
type Store interface {
	Put(c *models.Credential) error
	Get(key string) (*models.Credential, error)
	Delete(key string) error
}

// Session holds at most one bearer token and the owning user's ID.
type Session struct {
	mu      sync.RWMutex
	state   State
	token   *oauth2.Token
	ownerID string
	store   Store
	logger  *log.Logger
	now     func() time.Time
}

// New creates an anonymous session. store and logger may be nil.
func New(store Store, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{
		state:  Anonymous,
		store:  store,
		logger: shared.WithLogger(logger, "component", "session"),
		now:    time.Now,
	}
}

// Restore loads a persisted token, if any. An expired persisted token is deleted and the session stays anonymous.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}

	cred, err := s.store.Get(models.SpotifyTokenKey)
	if err != nil {
		s.logger.Debug("no stored credential", "error", err)
		return nil
	}

	if cred.Expired(s.now()) {
		s.logger.Info("stored credential expired, discarding")
		if err := s.store.Delete(models.SpotifyTokenKey); err != nil {
			return fmt.Errorf("failed to discard expired credential: %w", err)
		}
		return nil
	}

	token := &oauth2.Token{AccessToken: cred.Value(), TokenType: "Bearer"}
	if exp := cred.ExpiresAt(); exp != nil {
		token.Expiry = *exp
	}

	s.mu.Lock()
	s.token = token
	s.state = Authenticated
	s.mu.Unlock()
	return nil
}

// Acquire stores a new access token. A zero expiresIn means the expiry is unknown.
func (s *Session) Acquire(accessToken string, expiresIn time.Duration) error {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidInput)
	}

	token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	if expiresIn > 0 {
		token.Expiry = s.now().Add(expiresIn).UTC()
	}

	if s.store != nil {
		if err := s.store.Put(models.NewCredential(models.SpotifyTokenKey, accessToken, token.Expiry)); err != nil {
			return fmt.Errorf("failed to persist credential: %w", err)
		}
	}

	s.mu.Lock()
	s.token = token
	s.ownerID = ""
	s.state = Authenticated
	s.mu.Unlock()

	s.logger.Info("credential acquired", "expires", token.Expiry)
	return nil
}

// Token returns a copy of the held token.
//
// It fails with [shared.ErrNotAuthenticated] when no token is held and with [shared.ErrTokenExpired]
// when the token is past its known expiry (which also invalidates it).
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	state, token := s.state, s.token
	s.mu.RUnlock()

	switch {
	case state == Expired:
		return nil, shared.ErrTokenExpired
	case token == nil:
		return nil, shared.ErrNotAuthenticated
	case !token.Expiry.IsZero() && !s.now().Before(token.Expiry):
		s.Invalidate(token.AccessToken)
		return nil, shared.ErrTokenExpired
	}

	cp := *token
	return &cp, nil
}

// SetAuthHeader sets the bearer Authorization header on req and returns the access token it used,
// so the caller can pass it to [Session.Invalidate] if the request is rejected.
func (s *Session) SetAuthHeader(req *http.Request) (string, error) {
	token, err := s.Token()
	if err != nil {
		return "", err
	}
	token.SetAuthHeader(req)
	return token.AccessToken, nil
}

// Invalidate marks the session expired when stale is still the held token, and deletes the persisted copy.
// It reports whether this call performed the transition; repeated calls for the same token are no-ops.
func (s *Session) Invalidate(stale string) bool {
	s.mu.Lock()
	if s.state != Authenticated || s.token == nil || s.token.AccessToken != stale {
		s.mu.Unlock()
		return false
	}
	s.state = Expired
	s.token = nil
	s.ownerID = ""
	s.mu.Unlock()

	s.logger.Warn("credential rejected by music service, sign in again")
	_ = s.forget()
	return true
}

// Clear logs out: the token and owner are dropped from memory and storage.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.state = Anonymous
	s.token = nil
	s.ownerID = ""
	s.mu.Unlock()

	s.logger.Info("credential cleared")
	return s.forget()
}

func (s *Session) forget() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(models.SpotifyTokenKey); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Error("failed to delete stored credential", "error", err)
		return fmt.Errorf("failed to delete stored credential: %w", err)
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.State() == Authenticated
}

// SetOwner records the ID of the user the token belongs to.
func (s *Session) SetOwner(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticated {
		s.ownerID = id
	}
}

// Owner returns the recorded owner ID, or "" if the profile has not been read yet.
func (s *Session) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}
