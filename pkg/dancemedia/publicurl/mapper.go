// Package publicurl maps object keys to public URLs and back.
package publicurl

import (
	"fmt"
	"net/url"
	"strings"
)

// Mapper is the single place where object keys become public URLs and public
// URLs become keys again.
type Mapper struct {
	base *url.URL
}

// New parses a public domain. "media.example.com", "https://media.example.com/"
// and "http://localhost:8080/files" are all accepted; a missing scheme means https.
func New(publicDomain string) (*Mapper, error) {
	raw := strings.TrimSpace(publicDomain)
	if raw == "" {
		return nil, fmt.Errorf("public domain is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse public domain %q: %w", publicDomain, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("public domain %q has no host", publicDomain)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return &Mapper{base: u}, nil
}

// Base returns the normalized public base URL without a trailing slash.
func (m *Mapper) Base() string {
	return m.base.String()
}

// URL returns the public URL of key.
func (m *Mapper) URL(key string) string {
	return m.Base() + "/" + strings.TrimLeft(key, "/")
}

// Key reverses URL. ok is false when rawURL is not under the public base.
// The scheme is not compared, so http and https links to the same host both
// resolve.
func (m *Mapper) Key(rawURL string) (string, bool) {
	raw := strings.TrimSpace(rawURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, m.base.Host) {
		return "", false
	}
	prefix := m.base.Path + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}
