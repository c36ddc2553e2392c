package cookie

import (
	"encoding/json"
	"net/http"
	"strings"
)

const jsonPrefix = "j:"

// Jar holds the cookies of one request split into plain and signed values.
// Values prefixed with "j:" are decoded as JSON; undecodable ones stay strings.
type Jar struct {
	plain   map[string]any
	signed  map[string]any
	invalid []string
}

// Parse reads every cookie on r. Values carrying the signed prefix are
// verified with all secrets and land in the signed set; failures are listed
// by Invalid and appear in neither set.
func (m *Manager) Parse(r *http.Request) *Jar {
	jar := &Jar{
		plain:  make(map[string]any),
		signed: make(map[string]any),
	}

	for _, c := range r.Cookies() {
		value := decodeValue(c.Value)

		if !strings.HasPrefix(value, signedPrefix) {
			if _, seen := jar.plain[c.Name]; !seen {
				jar.plain[c.Name] = decodeJSON(value)
			}
			continue
		}

		if _, seen := jar.signed[c.Name]; seen {
			continue
		}
		unsigned, err := m.Unsign(value)
		if err != nil {
			jar.invalid = append(jar.invalid, c.Name)
			continue
		}
		jar.signed[c.Name] = decodeJSON(unsigned)
	}

	return jar
}

// Get returns a plain cookie value.
func (j *Jar) Get(name string) (any, bool) {
	v, ok := j.plain[name]
	return v, ok
}

// Signed returns a verified signed cookie value.
func (j *Jar) Signed(name string) (any, bool) {
	v, ok := j.signed[name]
	return v, ok
}

// SignedString returns a verified signed cookie that is a string.
func (j *Jar) SignedString(name string) (string, bool) {
	v, ok := j.signed[name].(string)
	return v, ok
}

// Invalid lists cookies that carried the signed prefix but failed verification.
func (j *Jar) Invalid() []string {
	return j.invalid
}

// Plain returns a copy of the plain cookies.
func (j *Jar) Plain() map[string]any {
	out := make(map[string]any, len(j.plain))
	for k, v := range j.plain {
		out[k] = v
	}
	return out
}

func decodeJSON(value string) any {
	raw, ok := strings.CutPrefix(value, jsonPrefix)
	if !ok {
		return value
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return value
	}
	return v
}
