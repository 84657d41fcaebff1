package ttrss

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is one API request. It is serialized as a single flat JSON object:
// {"op": ..., "sid": ..., <params>}.
type Envelope struct {
	Op     string
	SID    string
	Params map[string]any
}

func NewEnvelope(op string, params map[string]any) Envelope {
	return Envelope{Op: op, Params: params}
}

// WithSID returns a copy stamped with the session id. Params are shared.
func (e Envelope) WithSID(sid string) Envelope {
	e.SID = sid
	return e
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Params)+2)
	for k, v := range e.Params {
		if k == "op" || k == "sid" {
			return nil, fmt.Errorf("envelope param %q is reserved", k)
		}
		out[k] = v
	}
	out["op"] = e.Op
	if e.SID != "" {
		out["sid"] = e.SID
	}
	// encoding/json writes map keys in sorted order.
	return json.Marshal(out)
}

// Response is the decoded reply body. Status 0 is success; status 1 carries
// {"error": "..."} in Content.
type Response struct {
	Seq     int             `json:"seq"`
	Status  int             `json:"status"`
	Content json.RawMessage `json:"content"`
}

const (
	StatusOK  = 0
	StatusErr = 1
)

func (r Response) OK() bool {
	return r.Status == StatusOK
}

// ErrorCode extracts content.error from a failed response.
func (r Response) ErrorCode() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Content, &body); err != nil || strings.TrimSpace(body.Error) == "" {
		return "UNKNOWN_ERROR"
	}
	return body.Error
}
