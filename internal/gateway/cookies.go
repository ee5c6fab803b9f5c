package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/portalctl/internal/errors"
)

// CookieStore persists the backend session cookies between CLI invocations.
// The backend authenticates with a session cookie, so without persistence
// every command would need a fresh login.
type CookieStore struct {
	path string
}

// NewCookieStore creates a cookie store backed by the given file
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Save writes the jar's cookies for the backend URL to disk
func (s *CookieStore) Save(jar http.CookieJar, u *url.URL) error {
	if jar == nil {
		return nil
	}

	cookies := jar.Cookies(u)
	saved := make([]savedCookie, 0, len(cookies))
	for _, c := range cookies {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeCookieStoreFailed, "cannot encode cookies", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeCookieStoreFailed, "cannot create state directory", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeCookieStoreFailed, "cannot write cookie file", err)
	}
	return nil
}

// Restore loads persisted cookies into the jar. A missing file is not an
// error; it just means no prior session.
func (s *CookieStore) Restore(jar http.CookieJar, u *url.URL) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeCookieStoreFailed, "cannot read cookie file", err)
	}

	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return errors.Wrap(errors.ErrCodeCookieStoreFailed, "corrupt cookie file", err)
	}

	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	jar.SetCookies(u, cookies)
	return nil
}

// Drop removes the persisted cookie file
func (s *CookieStore) Drop() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeCookieStoreFailed, "cannot remove cookie file", err)
	}
	return nil
}
