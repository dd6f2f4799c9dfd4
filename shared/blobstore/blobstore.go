// Package blobstore fronts the external blob store's capability-URL scheme.
// Binary payloads never pass through this service: clients receive a signed,
// time-limited URL and talk to the store directly. The store's gateway
// verifies the same HMAC signature produced here.
package blobstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Signer issues and verifies capability URLs for blob keys.
type Signer struct {
	baseURL string
	secret  []byte
	now     func() time.Time
}

// NewSigner creates a Signer. The secret must be non-empty; it comes from
// configuration resolved at process start, never from a compiled-in fallback.
func NewSigner(baseURL string, secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("blob signing secret is required")
	}
	return &Signer{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		now:     time.Now,
	}, nil
}

// Capability is a signed, time-limited URL for one blob operation.
type Capability struct {
	URL       string
	ExpiresAt time.Time
}

// SignDownload issues a GET capability for key, valid for ttl.
func (s *Signer) SignDownload(key string, ttl time.Duration) (*Capability, error) {
	return s.sign("GET", key, ttl)
}

// SignUpload issues a PUT capability for key, valid for ttl.
func (s *Signer) SignUpload(key string, ttl time.Duration) (*Capability, error) {
	return s.sign("PUT", key, ttl)
}

func (s *Signer) sign(method, key string, ttl time.Duration) (*Capability, error) {
	if key == "" {
		return nil, errors.New("blob key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("capability ttl must be positive")
	}

	expiresAt := s.now().Add(ttl)
	q := url.Values{}
	q.Set("method", method)
	q.Set("expires", strconv.FormatInt(expiresAt.Unix(), 10))
	q.Set("sig", s.signature(method, key, expiresAt.Unix()))

	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}

	return &Capability{
		URL:       fmt.Sprintf("%s/%s?%s", s.baseURL, strings.Join(escaped, "/"), q.Encode()),
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks a capability's signature and expiry, as the store's gateway
// would.
func (s *Signer) Verify(method, key string, expires int64, sig string) bool {
	if s.now().Unix() > expires {
		return false
	}
	want := s.signature(method, key, expires)
	return hmac.Equal([]byte(want), []byte(sig))
}

func (s *Signer) signature(method, key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%s\n%d", method, key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
