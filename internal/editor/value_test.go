package editor

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValueUnmarshal(t *testing.T) {
	tests := []struct {
		in       string
		wantKind Kind
		wantStr  string
	}{
		{`"Pengantar"`, KindText, "Pengantar"},
		{`12.5`, KindNumber, "12.5"},
		{`true`, KindBool, "true"},
		{`null`, KindNull, ""},
		{`["a", "b"]`, KindList, "a\nb"},
		{`[1, 2]`, KindList, "1\n2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if v.Kind() != tt.wantKind {
				t.Errorf("kind: got %s, want %s", v.Kind(), tt.wantKind)
			}
			if v.String() != tt.wantStr {
				t.Errorf("string: got %q, want %q", v.String(), tt.wantStr)
			}
		})
	}
}

func TestValueMarshal(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Text("x"), `"x"`},
		{Int(3), `3`},
		{Number("abc"), `"abc"`},
		{List(), `[]`},
		{List("a"), `["a"]`},
		{Bool(false), `false`},
		{Null(), `null`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.v)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.v, err)
		}
		if string(b) != tt.want {
			t.Errorf("Marshal: got %s, want %s", b, tt.want)
		}
	}
}

func TestIntOrSaturates(t *testing.T) {
	tests := []struct {
		in   Value
		want int
	}{
		{Number("1e30"), math.MaxInt32},
		{Text("-1e30"), math.MinInt32},
		{Number("2147483648"), math.MaxInt32},
		{Number("-12"), -12},
		{Number("1e400"), 5},
	}
	for _, tt := range tests {
		if got := tt.in.intOr(5); got != tt.want {
			t.Errorf("intOr(%q) = %d, want %d", tt.in.String(), got, tt.want)
		}
	}
	if got := clamp(Number("1e30").intOr(MinWeek), MinWeek, MaxWeek); got != MaxWeek {
		t.Errorf("week from 1e30 = %d, want %d", got, MaxWeek)
	}
}

func TestValueParsing(t *testing.T) {
	if got := Text("x").intOr(7); got != 7 {
		t.Errorf("intOr fallback: got %d", got)
	}
	if got := Number("3.9").intOr(0); got != 3 {
		t.Errorf("intOr truncation: got %d", got)
	}
	if got := Bool(true).floatOr(-1); got != -1 {
		t.Errorf("floatOr on bool: got %v", got)
	}
	if got := Text("NaN").floatOr(0); got != 0 {
		t.Errorf("floatOr NaN: got %v", got)
	}
	if !Text("true").boolean() || Text("ya").boolean() {
		t.Error("boolean parsing")
	}
	if diff := cmp.Diff([]string{"a", "b"}, Text(" a \n\n b").lines()); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
	if got := Null().lines(); got != nil {
		t.Errorf("lines of null: got %v", got)
	}
}
