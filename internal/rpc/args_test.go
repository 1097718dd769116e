package rpc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgsAccessors(t *testing.T) {
	a, err := ParseArgs([]byte(`{
		"s": "text", "n": 42, "f": 0.5, "b": true, "nul": null,
		"arr": ["x", 1, true], "obj": {"z": 1, "k": "v"},
		"ts": "2024-05-01T10:00:00Z", "badts": "yesterday"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "text", *a.String("s"))
	assert.Equal(t, "42", *a.String("n"))
	assert.Nil(t, a.String("nul"))
	assert.Nil(t, a.String("absent"))
	assert.Equal(t, "fallback", a.StringOr("absent", "fallback"))

	assert.Equal(t, 42, *a.Int("n"))
	assert.Nil(t, a.Int("f"))
	assert.Equal(t, 7, a.IntOr("s", 7))
	assert.Equal(t, 0.5, *a.Float("f"))
	assert.True(t, *a.Bool("b"))
	assert.Nil(t, a.Bool("s"))

	assert.Equal(t, []string{"x", "1", "true"}, a.Strings("arr"))
	assert.Nil(t, a.Strings("s"))
	assert.Equal(t, `{"z": 1, "k": "v"}`, string(a.Object("obj")))
	assert.Nil(t, a.Object("arr"))

	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), a.Time("ts").UTC())
	assert.Nil(t, a.Time("badts"))
}

func TestArgsRequire(t *testing.T) {
	a, err := ParseArgs(nil)
	require.NoError(t, err)

	_, err = a.RequireString("id")
	assert.True(t, errors.Is(err, ErrMissingArgument))
	_, err = a.RequireStrings("ids")
	assert.ErrorIs(t, err, ErrMissingArgument)

	_, err = ParseArgs([]byte(`[1,2]`))
	assert.Error(t, err)
}
