package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindList
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	}
	return "unknown"
}

// Value is the input handed to an Update call: text typed into a control,
// a raw number, a list of strings, a checkbox state, or null.
type Value struct {
	kind Kind
	text string
	list []string
	b    bool
}

// Text is free-form text input.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number is raw numeric input. It is parsed by the receiving field.
func Number(raw string) Value { return Value{kind: KindNumber, text: raw} }

// Int is a convenience for Number(strconv.Itoa(n)).
func Int(n int) Value { return Number(strconv.Itoa(n)) }

// Float is a convenience for Number with a formatted float.
func Float(f float64) Value { return Number(strconv.FormatFloat(f, 'f', -1, 64)) }

// List is a list of strings, e.g. sub-topics or reference keys.
func List(items ...string) Value { return Value{kind: KindList, list: items} }

// Bool is a checkbox state.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null clears a nullable field.
func Null() Value { return Value{kind: KindNull} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) String() string {
	switch v.kind {
	case KindList:
		return strings.Join(v.list, "\n")
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return ""
	}
	return v.text
}

// intOr parses the value as an integer, returning def when it is not a number.
// Numbers beyond the int32 range saturate.
func (v Value) intOr(def int) int {
	f := v.floatOr(math.NaN())
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return int(max(min(f, math.MaxInt32), math.MinInt32))
}

// floatOr parses the value as a float, returning def when it is not a number.
func (v Value) floatOr(def float64) float64 {
	if v.kind != KindText && v.kind != KindNumber {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// lines returns list input as is and splits text input into non-empty lines.
func (v Value) lines() []string {
	switch v.kind {
	case KindList:
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	case KindText, KindNumber:
		var out []string
		for _, line := range strings.Split(v.text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	}
	return nil
}

func (v Value) boolean() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindText, KindNumber:
		b, _ := strconv.ParseBool(strings.TrimSpace(v.text))
		return b
	}
	return false
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if _, err := strconv.ParseFloat(v.text, 64); err == nil {
			return []byte(v.text), nil
		}
		return json.Marshal(v.text)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindBool:
		return json.Marshal(v.b)
	case KindNull:
		return []byte("null"), nil
	}
	return json.Marshal(v.text)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty value")
	}
	switch b[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var x bool
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		*v = Bool(x)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				// numeric ids, e.g. CPL references
				s = string(bytes.TrimSpace(r))
			}
			items = append(items, s)
		}
		*v = List(items...)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = Number(n.String())
	return nil
}

// Field is one editable attribute of an entry of type T. Fields are declared
// once per entry type, so a field of one collection cannot be used on another.
type Field[T any] struct {
	name  string
	apply func(*T, Value)
}

// Name is the wire name of the field.
func (f Field[T]) Name() string { return f.name }

func (f Field[T]) valid() bool { return f.apply != nil }

func newField[T any](name string, apply func(*T, Value)) Field[T] {
	return Field[T]{name: name, apply: apply}
}

type fieldSet[T any] map[string]Field[T]

func fieldsOf[T any](fields ...Field[T]) fieldSet[T] {
	set := make(fieldSet[T], len(fields))
	for _, f := range fields {
		set[f.name] = f
	}
	return set
}

func (s fieldSet[T]) lookup(name string) (Field[T], bool) {
	f, ok := s[name]
	return f, ok
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clampPct(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}
