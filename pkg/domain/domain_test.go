package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/callgate/pkg/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host   string
		kind   domain.Kind
		domain string
	}{
		{"a.b.example.co.uk", domain.Listed, "example.co.uk"},
		{"example.co.uk", domain.Listed, "example.co.uk"},
		{"www.example.com", domain.Listed, "example.com"},
		{"WWW.Example.COM:8080", domain.Listed, "example.com"},
		{"example.com.", domain.Listed, "example.com"},
		{"app.foo.blogspot.com", domain.Listed, "blogspot.com"},
		{"co.uk", domain.Listed, "co.uk"},
		{"api.corp.lan", domain.NotListed, "corp.lan"},
		{"a.b.c.intranetzz", domain.NotListed, "c.intranetzz"},
		{"myhost", domain.NotListed, "myhost"},
		{"localhost", domain.Reserved, "localhost"},
		{"localhost:3000", domain.Reserved, "localhost"},
		{"app.dev.test", domain.Reserved, "app.dev.test"},
		{"printer.home.arpa", domain.Reserved, "printer.home.arpa"},
		{"127.0.0.1", domain.IP, "127.0.0.1"},
		{"127.0.0.1:8080", domain.IP, "127.0.0.1"},
		{"[::1]:8080", domain.IP, "::1"},
		{"::1", domain.IP, "::1"},
		{"", domain.Invalid, ""},
		{"a..b.com", domain.Invalid, "a..b.com"},
		{"-bad.com", domain.Invalid, "-bad.com"},
		{"bad host.com", domain.Invalid, "bad host.com"},
		{strings.Repeat("a", 64) + ".com", domain.Invalid, strings.Repeat("a", 64) + ".com"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			res := domain.Classify(tt.host)
			assert.Equal(t, tt.kind, res.Kind, "kind %s", res.Kind)
			assert.Equal(t, tt.domain, res.Domain)
			assert.Equal(t, tt.domain, domain.Resolve(tt.host))
		})
	}
}

func TestClassify_Unicode(t *testing.T) {
	t.Parallel()
	res := domain.Classify("www.bücher.de")
	assert.Equal(t, domain.Listed, res.Kind)
	assert.Equal(t, "xn--bcher-kva.de", res.Domain)
}

func TestKind_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "listed", domain.Listed.String())
	assert.Equal(t, "invalid", domain.Kind(99).String())
}
