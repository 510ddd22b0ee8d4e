package storefront

import (
	"encoding/json"
	"fmt"
)

// The storefront clones do not agree on a response shape. Depending on the
// build and endpoint, a list response is one of:
//
//	[ ... ]
//	{"data": [ ... ]}
//	{"success": true, "data": [ ... ]}
//
// decodeList normalizes all three into a plain slice once, at the client
// boundary, so nothing downstream ever inspects an envelope.

// envelope is the wrapped variant of a list response.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// decodeList parses a clone list response body into out (a pointer to a
// slice). A wrapped response with success=false is an error even when the
// transport status was 2xx.
func decodeList(body []byte, out any) error {
	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		return fmt.Errorf("storefront: malformed response: %w", err)
	}

	switch probe.(type) {
	case []any:
		return json.Unmarshal(body, out)
	case map[string]any:
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("storefront: malformed envelope: %w", err)
		}
		if env.Success != nil && !*env.Success {
			if env.Error != "" {
				return fmt.Errorf("storefront: clone rejected request: %s", env.Error)
			}
			return fmt.Errorf("storefront: clone rejected request")
		}
		if env.Data == nil {
			return fmt.Errorf("storefront: envelope has no data field")
		}
		return json.Unmarshal(env.Data, out)
	default:
		return fmt.Errorf("storefront: unexpected response shape")
	}
}
