package session

import (
	"fmt"
	"maps"
)

// Data is the open key/value state kept for a session id.
// Values are JSON-compatible; nested objects decode as map[string]any.
type Data map[string]any

// User is the "user" object stored by the application after sign-in.
type User map[string]any

// Authed reports whether the "authed" flag is set to true.
func (d Data) Authed() bool {
	v, _ := d["authed"].(bool)
	return v
}

// User returns the stored user object.
func (d Data) User() (User, bool) {
	switch u := d["user"].(type) {
	case User:
		return u, u != nil
	case map[string]any:
		return User(u), u != nil
	}
	return nil, false
}

// UserID returns user.id or nil when there is no user.
func (d Data) UserID() any {
	u, ok := d.User()
	if !ok {
		return nil
	}
	return u.ID()
}

// HasAccess reports whether the user holds the named access flag
// or the "all" override.
func (d Data) HasAccess(name string) bool {
	u, ok := d.User()
	if !ok {
		return false
	}
	return u.Access(name) || u.Access("all")
}

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	maps.Copy(out, d)
	return out
}

// ID returns the "id" field.
func (u User) ID() any {
	return u["id"]
}

// Name returns the "user" field, the account login.
func (u User) Name() string {
	switch v := u["user"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Access reports whether access[name] is true.
func (u User) Access(name string) bool {
	var v any
	switch acc := u["access"].(type) {
	case map[string]any:
		v = acc[name]
	case map[string]bool:
		v = acc[name]
	default:
		return false
	}
	b, _ := v.(bool)
	return b
}

func merge(base, patch Data) Data {
	out := base.Clone()
	maps.Copy(out, patch)
	return out
}
