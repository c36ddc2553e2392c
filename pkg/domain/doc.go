// Package domain derives the cookie domain for a request hostname so a
// session cookie is shared across subdomains of the same registrable domain.
// Suffix data comes from golang.org/x/net/publicsuffix; only the ICANN
// section counts as listed.
package domain
