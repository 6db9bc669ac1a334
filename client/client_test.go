package client

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotedom/remotedom/dispatch"
	"github.com/remotedom/remotedom/pkg/logger"
	"github.com/remotedom/remotedom/response"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	d := dispatch.New(dispatch.WithLogger(logger.Test(t)))
	d.MustSet("greet", func(_ *dispatch.Context, args dispatch.Args) (*response.Response, error) {
		resp := response.New()
		resp.Select("#out").Text("hi " + args.String("name"))

		return resp, nil
	})
	d.MustSet("token", func(ctx *dispatch.Context, _ dispatch.Args) (*response.Response, error) {
		resp := response.New()
		resp.Select("#token").Text(ctx.Request.CSRF)

		return resp, nil
	})
	d.MustSetView("#main", func(_ *dispatch.Context, _ dispatch.View) (*response.Response, error) {
		resp := response.New()
		resp.RenderView("<p>main</p>", map[string]any{"n": 1})

		return resp, nil
	})

	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)

	return srv
}

func Test_Client_Call(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	got, err := c.Call(t.Context(), "greet", url.Values{"name": {"Ann"}})
	require.NoError(t, err)

	assert.Equal(t, `{"#out":[{"c":"text","a":["hi Ann"]}]}`, got.Raw())
	assert.Equal(t, []string{"#out"}, got.Targets())
	require.Len(t, got.Commands("#out"), 1)
	assert.Equal(t, "text", got.Commands("#out")[0].Name)
	assert.Equal(t, []any{"hi Ann"}, got.Commands("#out")[0].Args)
}

func Test_Client_CallView(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	got, err := c.CallView(t.Context(), "#main", nil)
	require.NoError(t, err)

	cmd, ok := got.First(5)
	require.True(t, ok)
	assert.Equal(t, []any{"<p>main</p>", map[string]any{"n": float64(1)}}, cmd.Args)
}

func Test_Client_WithCSRF(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	c, err := NewClient(srv.URL, WithCSRF("tok_abc"))
	require.NoError(t, err)

	got, err := c.Call(t.Context(), "token", nil)
	require.NoError(t, err)

	cmd, ok := got.First("text")
	require.True(t, ok)
	assert.Equal(t, []any{"tok_abc"}, cmd.Args, "token travels in the envelope field")
}

func Test_Client_Call_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Call(t.Context(), "missing", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "404")
}

func Test_Client_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient("")
	require.Error(t, err)

	c, err := NewClient("http://localhost:0")
	require.NoError(t, err)

	_, err = c.Call(t.Context(), "", nil)
	require.Error(t, err)
}

func Test_ParseCommandSet(t *testing.T) {
	t.Parallel()

	body := `{"#b":[{"c":"text","a":["B"]}],"0":[{"c":7,"a":["bad"]}],"#a":[]}`

	got, err := ParseCommandSet([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, body, got.Raw())
	assert.Equal(t, []string{"#b", "0", "#a"}, got.Targets(), "document order survives decoding")
	assert.Equal(t, 3, got.Len())

	require.Len(t, got.Commands("#b"), 1)
	assert.Equal(t, "text", got.Commands("#b")[0].Name)
	assert.Empty(t, got.Commands("#a"))
	assert.Nil(t, got.Commands("#missing"))
}

func Test_ParseCommandSet_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"#a":`},
		{name: "not an object", body: `[1,2]`},
		{name: "key without command list", body: `{"#a":{"c":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseCommandSet([]byte(tt.body))
			require.Error(t, err)
		})
	}
}

func Test_CommandSet_First(t *testing.T) {
	t.Parallel()

	body := `{"#out":[{"c":"text","a":["hi"]},{"c":"css","a":["color","red"]}],"0":[{"c":7,"a":["bad"]}]}`

	got, err := ParseCommandSet([]byte(body))
	require.NoError(t, err)

	cmd, ok := got.First("css")
	require.True(t, ok)
	assert.Equal(t, []any{"color", "red"}, cmd.Args)
	assert.Equal(t, "css", cmd.Op())

	cmd, ok = got.First(7)
	require.True(t, ok)
	assert.Equal(t, []any{"bad"}, cmd.Args)
	assert.Equal(t, 7, cmd.Op())

	_, ok = got.First("attr")
	assert.False(t, ok)

	_, ok = got.First(3)
	assert.False(t, ok)

	assert.Len(t, got.All(), 3)
}
