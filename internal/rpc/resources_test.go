package rpc

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/mcp-memory/internal/model"
	"github.com/rcliao/mcp-memory/internal/store"
)

func TestResourcesList(t *testing.T) {
	ctx := context.Background()
	h, st := newTestHandler(t)

	long := strings.Repeat("é", 40)
	_, err := st.Create(ctx, store.CreateParams{Content: long, NS: "a"})
	require.NoError(t, err)
	titled, err := st.Create(ctx, store.CreateParams{Content: "body", Title: strPtr("Named"), NS: "b", Type: "fact"})
	require.NoError(t, err)
	archived, err := st.Create(ctx, store.CreateParams{Content: "old"})
	require.NoError(t, err)
	_, err = st.Delete(ctx, archived.ID, false)
	require.NoError(t, err)

	var res ResourcesListResult
	require.NoError(t, json.Unmarshal(call(t, h, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`).Result, &res))
	require.Len(t, res.Resources, 2)
	assert.Nil(t, res.NextCursor)

	byURI := map[string]Resource{}
	for _, r := range res.Resources {
		byURI[r.URI] = r
		assert.Equal(t, "text/plain", r.MimeType)
	}
	assert.Equal(t, "Named", byURI["mem://b/"+titled.ID].Name)
	assert.Equal(t, "fact", byURI["mem://b/"+titled.ID].Description)

	for uri, r := range byURI {
		if strings.HasPrefix(uri, "mem://a/") {
			assert.Equal(t, strings.Repeat("é", 30)+"…", r.Name)
		}
	}

	res = ResourcesListResult{}
	require.NoError(t, json.Unmarshal(call(t, h, `{"jsonrpc":"2.0","id":1,"method":"resources/list","params":{"limit":1}}`).Result, &res))
	assert.Len(t, res.Resources, 1)
	assert.NotNil(t, res.NextCursor)
}

func TestResourcesRead(t *testing.T) {
	ctx := context.Background()
	h, st := newTestHandler(t)

	m, err := st.Create(ctx, store.CreateParams{Content: "hello", NS: "proj"})
	require.NoError(t, err)

	read := func(params string) envelope {
		return call(t, h, `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":`+params+`}`)
	}

	var res ResourcesReadResult
	require.NoError(t, json.Unmarshal(read(`{"uri":"`+m.ResourceURI()+`"}`).Result, &res))
	require.Len(t, res.Contents, 1)
	assert.Equal(t, ResourceContent{URI: m.ResourceURI(), MimeType: "text/plain", Text: "hello"}, res.Contents[0])

	res = ResourcesReadResult{}
	require.NoError(t, json.Unmarshal(read(`{"uri":"`+m.ResourceURI()+`","format":"json"}`).Result, &res))
	assert.Equal(t, "application/json", res.Contents[0].MimeType)
	var decoded model.Memory
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &decoded))
	assert.Equal(t, m.ID, decoded.ID)

	cases := []struct {
		params string
		code   int
		msg    string
	}{
		{`{"uri":"http://x/y"}`, CodeInvalidParams, "Unsupported URI"},
		{`{"uri":"mem:///id"}`, CodeInvalidParams, "Invalid URI"},
		{`{"uri":"mem://noslash"}`, CodeInvalidParams, "Invalid URI"},
		{`{"uri":"mem://other/` + m.ID + `"}`, CodeNotFound, "Not found"},
		{`{"uri":"mem://proj/missing"}`, CodeNotFound, "Not found"},
	}
	for _, tc := range cases {
		env := read(tc.params)
		require.NotNil(t, env.Error, tc.params)
		assert.Equal(t, tc.code, env.Error.Code, tc.params)
		assert.Equal(t, tc.msg, env.Error.Message, tc.params)
	}

	env := read(`{}`)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeInvalidParams, env.Error.Code)
}

func TestParseURI(t *testing.T) {
	ns, id, err := parseURI("mem://a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "a", ns)
	assert.Equal(t, "b/c", id)
}

func strPtr(s string) *string { return &s }
