package model

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// ID identifies shots and parameters. Older backups store numeric ids; they are
// kept in their decimal text form.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("invalid id %s", data)
		}
		*id = ID(data)
		return nil
	}
}

// CustomFields maps a custom parameter name to the recorded value.
type CustomFields map[string]FieldValue

// FieldValue is a categorical (text) or numeric custom field value.
type FieldValue struct {
	text    string
	number  int64
	numeric bool
}

// TextValue builds a categorical value.
func TextValue(s string) FieldValue {
	return FieldValue{text: s}
}

// NumberValue builds a numeric value.
func NumberValue(n int64) FieldValue {
	return FieldValue{number: n, numeric: true}
}

// IsNumeric reports whether the value was recorded as a number.
func (v FieldValue) IsNumeric() bool {
	return v.numeric
}

// IsZero reports whether the value is unset.
func (v FieldValue) IsZero() bool {
	return !v.numeric && v.text == ""
}

// Text returns the categorical text and whether the value is text.
func (v FieldValue) Text() (string, bool) {
	if v.numeric {
		return "", false
	}
	return v.text, true
}

// Int returns the integer form of the value. Text that parses as an integer counts.
func (v FieldValue) Int() (int64, bool) {
	if v.numeric {
		return v.number, true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.text), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (v FieldValue) String() string {
	if v.numeric {
		return strconv.FormatInt(v.number, 10)
	}
	return v.text
}

// MarshalJSON encodes the value as a bare string or number.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return []byte(strconv.FormatInt(v.number, 10)), nil
	}
	return sonic.Marshal(v.text)
}

// UnmarshalJSON decodes a string, number or null. Non-integral numbers are kept as text.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = FieldValue{}
		return nil
	case data[0] == '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	raw := string(data)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*v = NumberValue(n)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid custom field value %s", data)
	}
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		*v = NumberValue(int64(f))
		return nil
	}
	*v = TextValue(raw)
	return nil
}
