package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	minSecretLength = 32
	signedPrefix    = "s:"
)

// Manager reads and writes cookies, signing values with the first secret
// and verifying them against all of them.
type Manager struct {
	secrets  []string
	defaults Options
}

// New creates a Manager. Every secret must be at least 32 characters.
func New(secrets []string, opts ...Option) (*Manager, error) {
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	defaults = applyOptions(defaults, opts)

	return &Manager{
		secrets:  secrets,
		defaults: defaults,
	}, nil
}

// Set writes a cookie. The value is percent-encoded on the wire.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	options := applyOptions(m.defaults, opts)

	cookie := &http.Cookie{
		Name:     name,
		Value:    encodeValue(value),
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}
	if options.MaxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(options.MaxAge) * time.Second).UTC()
	}

	http.SetCookie(w, cookie)
	return nil
}

// Get returns the decoded cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return decodeValue(cookie.Value), nil
}

// Delete expires the named cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
		Secure:   m.defaults.Secure,
	}
	http.SetCookie(w, cookie)
}

// SetSigned writes "s:<value>.<signature>".
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	return m.Set(w, name, m.Sign(value), opts...)
}

// GetSigned reads and verifies a signed cookie.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	signed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	return m.Unsign(signed)
}

// Sign returns value in the signed cookie format with the first secret:
// "s:" + value + "." + unpadded base64 HMAC-SHA256.
func (m *Manager) Sign(value string) string {
	return signedPrefix + sign(value, m.secrets[0])
}

// Unsign verifies a value produced by Sign against every secret.
// Returns ErrInvalidFormat when the prefix or separator is missing.
func (m *Manager) Unsign(signed string) (string, error) {
	raw, ok := strings.CutPrefix(signed, signedPrefix)
	if !ok {
		return "", ErrInvalidFormat
	}

	dot := strings.LastIndexByte(raw, '.')
	if dot < 0 {
		return "", ErrInvalidFormat
	}
	value := raw[:dot]

	for _, secret := range m.secrets {
		if subtle.ConstantTimeCompare([]byte(raw), []byte(sign(value, secret))) == 1 {
			return value, nil
		}
	}

	return "", ErrInvalidSignature
}

func sign(value, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return value + "." + base64.RawStdEncoding.EncodeToString(mac.Sum(nil))
}

// encodeValue matches JavaScript's encodeURIComponent for cookie values.
func encodeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

func decodeValue(v string) string {
	if !strings.Contains(v, "%") {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
