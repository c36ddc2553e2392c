package domain

import (
	"net"
	"net/netip"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Kind classifies a hostname against the public suffix list.
type Kind int

const (
	// Invalid hostnames are empty, too long, or contain malformed labels.
	Invalid Kind = iota
	// IP literals, v4 or v6.
	IP
	// Reserved hosts end in a top-level name that never resolves publicly.
	Reserved
	// NotListed hosts end in a suffix absent from the ICANN section.
	NotListed
	// Listed hosts end in an ICANN public suffix.
	Listed
)

func (k Kind) String() string {
	switch k {
	case IP:
		return "ip"
	case Reserved:
		return "reserved"
	case NotListed:
		return "not_listed"
	case Listed:
		return "listed"
	default:
		return "invalid"
	}
}

// Result is the classification of a hostname and the cookie domain
// derived from it.
type Result struct {
	Kind   Kind
	Host   string
	Domain string
}

const (
	maxHostLength  = 253
	maxLabelLength = 63
)

var reservedTLDs = map[string]struct{}{
	"localhost":   {},
	"local":       {},
	"localdomain": {},
	"test":        {},
	"example":     {},
	"invalid":     {},
	"onion":       {},
	"internal":    {},
}

// Resolve returns the domain a session cookie should be scoped to for
// hostname. See Classify.
func Resolve(hostname string) string {
	return Classify(hostname).Domain
}

// Classify normalizes hostname (lower case, no port, no trailing dot) and
// derives the cookie domain:
//
//	Listed     registrable domain: a.b.example.co.uk -> example.co.uk
//	NotListed  last two labels:    a.b.corp.lan      -> corp.lan
//	otherwise  the normalized host unchanged
func Classify(hostname string) Result {
	host := normalize(hostname)
	res := Result{Kind: Invalid, Host: host, Domain: host}

	if host == "" {
		return res
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		res.Kind = IP
		res.Host = addr.String()
		res.Domain = res.Host
		return res
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || !validHost(ascii) {
		return res
	}
	res.Host, res.Domain = ascii, ascii

	labels := strings.Split(ascii, ".")
	if isReserved(labels) {
		res.Kind = Reserved
		return res
	}

	suffix, ok := icannSuffix(ascii)
	if !ok {
		res.Kind = NotListed
		if len(labels) > 2 {
			res.Domain = strings.Join(labels[len(labels)-2:], ".")
		}
		return res
	}

	res.Kind = Listed
	if ascii == suffix {
		return res
	}
	rest := strings.TrimSuffix(ascii, "."+suffix)
	res.Domain = rest[strings.LastIndexByte(rest, '.')+1:] + "." + suffix
	return res
}

func normalize(hostname string) string {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	return strings.TrimSuffix(host, ".")
}

func validHost(host string) bool {
	if host == "" || len(host) > maxHostLength {
		return false
	}
	for label := range strings.SplitSeq(host, ".") {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range []byte(label) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func isReserved(labels []string) bool {
	tld := labels[len(labels)-1]
	if _, ok := reservedTLDs[tld]; ok {
		return true
	}
	n := len(labels)
	return n >= 2 && labels[n-2] == "home" && tld == "arpa"
}

// icannSuffix returns the ICANN public suffix of host. Private-section
// matches such as blogspot.com are reduced to their ICANN parent.
func icannSuffix(host string) (string, bool) {
	candidate := host
	for {
		suffix, icann := publicsuffix.PublicSuffix(candidate)
		if icann {
			return suffix, true
		}
		i := strings.IndexByte(suffix, '.')
		if i < 0 {
			return "", false
		}
		candidate = suffix[i+1:]
	}
}
