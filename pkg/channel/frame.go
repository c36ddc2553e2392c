package channel

import "encoding/json"

// request is a client frame: {"id": ..., "name": "users get", "args": [...]}.
// The id is echoed verbatim and may be any JSON value.
type request struct {
	ID   json.RawMessage `json:"id"`
	Name string          `json:"name"`
	Args []any           `json:"args"`
}

type resultFrame struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result"`
}

type errorFrame struct {
	ID    json.RawMessage `json:"id"`
	Error any             `json:"error"`
}

func frameID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

const errMalformedFrame = "[API]: Malformed frame"
