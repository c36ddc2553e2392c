// Package clientip resolves the originating client address of HTTP requests
// and duplex-channel handshakes running behind reverse proxies.
//
// The lookup prefers X-Real-IP (the header our edge proxy sets), then the
// first valid X-Forwarded-For entry, then CF-Connecting-IP, and finally the
// TCP peer address. Values that do not parse as IPs are skipped.
//
//	ip := clientip.GetIP(r)
//	ip = clientip.FromHeaders(conn.Header, conn.RemoteAddr)
package clientip
