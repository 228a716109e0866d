package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text decodes a JSON string, number or boolean into its string form. Null
// and any other value decode to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case 't', 'f':
		*t = Text(b)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*t = Text(b)
	default:
		*t = ""
	}
	return nil
}

// Flag decodes loosely typed booleans as sent by SQL-backed APIs: true/false,
// 0/1, "true"/"false", "1"/"0", "yes"/"no", "on"/"off". Null decodes to an
// unset flag. Set reports whether a non-null value was present.
type Flag struct {
	Value bool
	Set   bool
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = Flag{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	f.Set = true

	switch b[0] {
	case 't':
		f.Value = true
	case 'f':
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.Value = truthy(s)
	case '{', '[':
		// Empty containers count as false.
		f.Value = len(b) > 2
	default:
		n, err := strconv.ParseFloat(string(b), 64)
		f.Value = err == nil && n != 0
	}
	return nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off", "null":
		return false
	}
	return true
}
