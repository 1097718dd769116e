package rpc

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrMissingArgument is returned by the Require accessors.
var ErrMissingArgument = goerr.New("missing required argument")

// Args is a loosely-typed argument object. Optional accessors return nil
// for members that are absent, null or of the wrong shape.
type Args struct {
	m map[string]json.RawMessage
}

// ParseArgs decodes a JSON object. Empty input and null yield empty Args.
func ParseArgs(raw json.RawMessage) (Args, error) {
	a := Args{m: map[string]json.RawMessage{}}
	if isNull(raw) {
		return a, nil
	}
	if err := json.Unmarshal(raw, &a.m); err != nil {
		return a, goerr.Wrap(err, "arguments must be an object")
	}
	if a.m == nil {
		a.m = map[string]json.RawMessage{}
	}
	return a, nil
}

func (a Args) raw(key string) (json.RawMessage, bool) {
	v, ok := a.m[key]
	if !ok || isNull(v) {
		return nil, false
	}
	return v, true
}

// String returns a string member. Non-string scalars come back as their
// JSON text.
func (a Args) String(key string) *string {
	v, ok := a.raw(key)
	if !ok {
		return nil
	}
	s := text(v)
	return &s
}

// StringOr returns the string member or def.
func (a Args) StringOr(key, def string) string {
	if s := a.String(key); s != nil {
		return *s
	}
	return def
}

// Int returns an integral number member.
func (a Args) Int(key string) *int {
	v, ok := a.raw(key)
	if !ok {
		return nil
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		return nil
	}
	return &n
}

// IntOr returns the integer member or def.
func (a Args) IntOr(key string, def int) int {
	if n := a.Int(key); n != nil {
		return *n
	}
	return def
}

// Float returns a number member.
func (a Args) Float(key string) *float64 {
	v, ok := a.raw(key)
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil
	}
	return &f
}

// Bool returns a member that is literally true or false.
func (a Args) Bool(key string) *bool {
	v, ok := a.raw(key)
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return nil
	}
	return &b
}

// Strings returns an array member, rendering non-string elements as JSON text.
func (a Args) Strings(key string) []string {
	v, ok := a.raw(key)
	if !ok {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(v, &elems); err != nil {
		return nil
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = text(e)
	}
	return out
}

// Object returns an object member as written, so member order survives.
func (a Args) Object(key string) json.RawMessage {
	v, ok := a.raw(key)
	if !ok || bytes.TrimSpace(v)[0] != '{' {
		return nil
	}
	return bytes.TrimSpace(v)
}

// Time returns an RFC 3339 timestamp member. Unparseable values are absent.
func (a Args) Time(key string) *time.Time {
	s := a.String(key)
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil
	}
	return &t
}

// Raw returns the undecoded member.
func (a Args) Raw(key string) json.RawMessage {
	v, _ := a.raw(key)
	return v
}

// RequireString returns a string member or ErrMissingArgument.
func (a Args) RequireString(key string) (string, error) {
	s := a.String(key)
	if s == nil {
		return "", goerr.Wrap(ErrMissingArgument, key, goerr.V("argument", key))
	}
	return *s, nil
}

// RequireStrings returns an array member or ErrMissingArgument.
func (a Args) RequireStrings(key string) ([]string, error) {
	s := a.Strings(key)
	if s == nil {
		return nil, goerr.Wrap(ErrMissingArgument, key, goerr.V("argument", key))
	}
	return s, nil
}

func text(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(v))
}

func isNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}
