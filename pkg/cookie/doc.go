// Package cookie reads and writes HTTP cookies in the signed format used by
// Node's cookie-signature and cookie-parser, so session cookies issued by
// either stack verify on the other.
//
// A signed value is "s:" + value + "." + base64(HMAC-SHA256(secret, value))
// without padding, percent-encoded on the wire. Several secrets may be given:
// the first signs, all verify, which allows rotation.
//
//	man, err := cookie.New([]string{os.Getenv("SESSION_SECRET")}) // >= 32 chars
//	if err != nil {
//		return err
//	}
//
//	_ = man.SetSigned(w, "NSS_", id, cookie.WithMaxAge(7776000), cookie.WithDomain("example.com"))
//	id, err := man.GetSigned(r, "NSS_")
//
// Parse splits all cookies of a request into a Jar of plain and verified
// signed values and decodes "j:"-prefixed JSON values.
//
// Sentinel errors (ErrCookieNotFound, ErrInvalidSignature, ErrInvalidFormat)
// work with errors.Is.
package cookie
