package auth

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// pointsAck replaces any create:points payload. The "sucess" key is what
// mobile clients read.
var pointsAck = json.RawMessage(`{"sucess":true,"message":"Points created or updated successfully"}`)

var ownerOnlyFields = []string{"user_id", "created_at", "updated_at"}

// FilterOutput shapes output for s under feature f. It returns nil when s
// lacks f. The top-level password field never survives.
func FilterOutput(s Subject, f Feature, output any) (json.RawMessage, error) {
	if err := validate(s, f); err != nil {
		return nil, err
	}
	if !s.Has(f) {
		return nil, nil
	}
	if f == CreatePoints {
		return pointsAck, nil
	}

	raw, ok := output.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(output)
		if err != nil {
			return nil, fmt.Errorf("filter output: %w", err)
		}
		raw = b
	}

	return filterJSON(s, f, raw)
}

func filterJSON(s Subject, f Feature, raw []byte) (json.RawMessage, error) {
	doc := gjson.ParseBytes(raw)

	if f == ReadContent && doc.IsArray() {
		out := []byte("[]")
		var ferr error
		doc.ForEach(func(_, item gjson.Result) bool {
			filtered, err := filterJSON(s, f, []byte(item.Raw))
			if err != nil {
				ferr = err
				return false
			}
			out, err = sjson.SetRawBytes(out, "-1", filtered)
			if err != nil {
				ferr = err
				return false
			}
			return true
		})
		if ferr != nil {
			return nil, fmt.Errorf("filter output: %w", ferr)
		}
		return out, nil
	}

	if !doc.IsObject() {
		return raw, nil
	}

	var err error
	out := raw
	if doc.Get("password").Exists() {
		if out, err = sjson.DeleteBytes(out, "password"); err != nil {
			return nil, fmt.Errorf("filter output: %w", err)
		}
	}

	if f == ReadContent && doc.Get("user_id").String() != s.ID() {
		for _, field := range ownerOnlyFields {
			if out, err = sjson.DeleteBytes(out, field); err != nil {
				return nil, fmt.Errorf("filter output: %w", err)
			}
		}
	}

	return out, nil
}
