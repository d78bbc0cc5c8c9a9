package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a listing within its collection. The backend is inconsistent
// about id types (numeric for most kinds, string for a few), so ID accepts
// both on the wire and normalizes to a string. Identifiers are assigned by
// the server only; the client never generates one for a persisted entity.
type ID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits a bare number when the id is numeric, matching what the
// backend originally sent, and a string otherwise. Only canonical integer
// text goes out bare; "007" or "+7" parse but are not valid JSON tokens.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}
