package auth

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

// UserAgent is whatever the user authorizes through: a browser, or a
// terminal where the user opens the URL and pastes the redirect back.
type UserAgent interface {
	// Navigate sends the user to url.
	Navigate(url string) error
	// Fragment returns the fragment of the current location, without '#'.
	Fragment() string
	// ClearFragment removes the fragment from the current location.
	ClearFragment()
}

// TerminalAgent prints authorization URLs and holds a pasted redirect.
type TerminalAgent struct {
	out io.Writer

	mu       sync.Mutex
	fragment string
}

// NewTerminalAgent writes navigation requests to out.
func NewTerminalAgent(out io.Writer) *TerminalAgent {
	return &TerminalAgent{out: out}
}

func (a *TerminalAgent) Navigate(u string) error {
	_, err := fmt.Fprintf(a.out, "Open this URL in your browser:\n\n  %s\n\n", u)
	return err
}

func (a *TerminalAgent) Fragment() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fragment
}

func (a *TerminalAgent) ClearFragment() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fragment = ""
}

// SetLocation records the redirect URL the user landed on.
func (a *TerminalAgent) SetLocation(redirectURL string) error {
	frag, err := fragmentOf(redirectURL)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.fragment = frag
	a.mu.Unlock()
	return nil
}

// fragmentOf returns the fragment of rawURL. A bare fragment, with or
// without a leading '#', is accepted as is.
func fragmentOf(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		return strings.TrimPrefix(rawURL, "#"), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("auth: parse redirect: %w", err)
	}
	return u.EscapedFragment(), nil
}

// tokenFromFragment extracts access_token from a fragment.
func tokenFromFragment(fragment string) string {
	if fragment == "" {
		return ""
	}
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return ""
	}
	return values.Get("access_token")
}
