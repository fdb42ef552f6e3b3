// Package auth manages the signed-in user's bearer credential and profile.
//
// A Session adopts a credential from the authorization redirect or restores
// it from storage, fetches the profile once per credential, and forgets both
// on logout. There is no refresh: a credential stays in use until the user
// logs out, and a rejected credential only surfaces through the calls that
// use it.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/youtube/v3"

	ythttp "ytlists/http"
	"ytlists/internal/logging"
	"ytlists/storage"
)

// DefaultUserInfoURL is the profile endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo?alt=json"

// Scopes requested at login.
var Scopes = []string{
	youtube.YoutubeReadonlyScope,
	youtube.YoutubeForceSslScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
}

// Config identifies the OAuth client.
type Config struct {
	ClientID    string
	RedirectURL string
	// AuthURL overrides the provider's authorization endpoint.
	AuthURL string
	// UserInfoURL overrides DefaultUserInfoURL.
	UserInfoURL string
}

// Session owns the credential and profile.
type Session struct {
	oauth       *oauth2.Config
	userInfoURL string
	records     *storage.Records
	client      *ythttp.Client
	agent       UserAgent
	log         zerolog.Logger

	mu         sync.RWMutex
	credential string
	profile    *Profile
	fetching   bool

	inflight sync.WaitGroup
}

// NewSession creates a signed-out session. Call Start to pick up a redirect
// or a stored credential.
func NewSession(cfg Config, records *storage.Records, client *ythttp.Client, agent UserAgent) *Session {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	return &Session{
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Scopes:      Scopes,
			Endpoint:    endpoint,
		},
		userInfoURL: userInfoURL,
		records:     records,
		client:      client,
		agent:       agent,
		log:         logging.For("auth"),
	}
}

// LoginURL returns the implicit-grant authorization URL.
func (s *Session) LoginURL() string {
	return s.oauth.AuthCodeURL("",
		oauth2.SetAuthURLParam("response_type", "token"),
		oauth2.ApprovalForce,
	)
}

// Login sends the user agent to the authorization URL.
func (s *Session) Login() {
	if err := s.agent.Navigate(s.LoginURL()); err != nil {
		s.log.Error().Err(err).Msg("login navigation failed")
	}
}

// Start adopts a credential from the current redirect fragment, or restores
// the stored one, and then resolves the profile. A profile fetch, if needed,
// runs in the background; use Wait to block on it.
func (s *Session) Start(ctx context.Context) {
	if token := tokenFromFragment(s.agent.Fragment()); token != "" {
		s.adopt(ctx, token)
		s.agent.ClearFragment()
	} else {
		s.restore(ctx)
	}
	s.resolveProfile(ctx)
}

// CompleteRedirect adopts the credential carried by a pasted redirect URL.
func (s *Session) CompleteRedirect(ctx context.Context, redirectURL string) error {
	frag, err := fragmentOf(redirectURL)
	if err != nil {
		return err
	}
	token := tokenFromFragment(frag)
	if token == "" {
		return ErrNoToken
	}
	s.adopt(ctx, token)
	s.resolveProfile(ctx)
	return nil
}

// Logout forgets the credential and profile, in storage and in memory, and
// navigates to the root path.
func (s *Session) Logout(ctx context.Context, navigate func(path string)) error {
	err := errors.Join(
		s.records.Remove(ctx, storage.KeyAccessToken),
		s.records.Remove(ctx, storage.KeyUserInfo),
	)
	if err != nil {
		s.log.Error().Err(err).Msg("logout: removing stored records failed")
	}

	s.mu.Lock()
	s.credential = ""
	s.profile = nil
	s.mu.Unlock()

	s.log.Info().Msg("logged out")
	if navigate != nil {
		navigate("/")
	}
	return err
}

// Credential returns the current bearer token.
func (s *Session) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.credential != ""
}

// Profile returns a copy of the current profile.
func (s *Session) Profile() (*Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil, false
	}
	p := *s.profile
	return &p, true
}

// Wait blocks until any in-flight profile fetch has settled.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) adopt(ctx context.Context, token string) {
	s.mu.Lock()
	s.credential = token
	s.mu.Unlock()

	if err := s.records.Set(ctx, storage.KeyAccessToken, token); err != nil {
		s.log.Error().Err(err).Msg("persisting credential failed")
	}
	s.log.Info().Msg("credential adopted from redirect")
}

func (s *Session) restore(ctx context.Context) {
	token, ok, err := s.records.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		s.log.Error().Err(err).Msg("reading stored credential failed")
		return
	}
	if !ok || token == "" {
		return
	}
	s.mu.Lock()
	s.credential = token
	s.mu.Unlock()
	s.log.Debug().Msg("credential restored")
}

// resolveProfile prefers the stored profile unconditionally and otherwise
// starts a single fetch with the current credential.
func (s *Session) resolveProfile(ctx context.Context) {
	raw, ok, err := s.records.Get(ctx, storage.KeyUserInfo)
	if err != nil {
		s.log.Error().Err(err).Msg("reading stored profile failed")
	}
	if ok {
		var p Profile
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			s.mu.Lock()
			s.profile = &p
			s.mu.Unlock()
			return
		}
		s.log.Warn().Msg("stored profile is not valid JSON, fetching a new one")
	}

	s.mu.Lock()
	token := s.credential
	if token == "" || s.fetching {
		s.mu.Unlock()
		return
	}
	s.fetching = true
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		s.fetchProfile(ctx, token)
		s.mu.Lock()
		s.fetching = false
		s.mu.Unlock()
	}()
}

// fetchProfile makes one attempt. Any failure is logged and leaves the
// profile unset.
func (s *Session) fetchProfile(ctx context.Context, token string) {
	resp, err := s.client.Get(ctx, s.userInfoURL, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		s.log.Warn().Err(err).Int("status", ythttp.StatusCode(err)).Msg("profile fetch failed")
		return
	}

	var p Profile
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		s.log.Warn().Err(err).Msg("profile response is not valid JSON")
		return
	}

	s.mu.Lock()
	if s.credential != token {
		// Logged out or replaced while the request was in flight.
		s.mu.Unlock()
		return
	}
	s.profile = &p
	s.mu.Unlock()

	if err := s.records.Set(ctx, storage.KeyUserInfo, string(resp.Body)); err != nil {
		s.log.Error().Err(err).Msg("persisting profile failed")
	}
	s.log.Info().Str("email", p.Email).Msg("profile fetched")
}
