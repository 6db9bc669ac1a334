package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotedom/remotedom/response"
)

func Test_Globals_FlushOrder(t *testing.T) {
	t.Parallel()

	g := NewGlobals()
	g.Set("theme", "dark")
	g.Set("tries", 3)
	g.Set("theme", "light")
	g.Unset("legacy")
	require.Equal(t, 3, g.Len())

	resp := response.New()
	g.flush(resp)

	out, err := resp.Render()
	require.NoError(t, err)
	assert.Equal(t,
		`{"0":[{"c":9,"a":["theme","light"]}],"1":[{"c":9,"a":["tries",3]}],"2":[{"c":9,"a":["legacy"]}]}`,
		out,
		"entries keep first-assignment order, reassignment updates in place")
	assert.Equal(t, 0, g.Len(), "flush clears the table")
}

func Test_Globals_FlushAfterCommands(t *testing.T) {
	t.Parallel()

	resp := response.New()
	resp.Select("#out").Text("ready")

	g := NewGlobals()
	g.Set("theme", "dark")
	g.flush(resp)

	out, err := resp.Render()
	require.NoError(t, err)
	assert.Equal(t,
		`{"#out":[{"c":"text","a":["ready"]}],"0":[{"c":9,"a":["theme","dark"]}]}`,
		out)
}

func Test_Globals_EmptyName(t *testing.T) {
	t.Parallel()

	g := NewGlobals()
	g.Set("", "x")
	g.Unset("")

	assert.Equal(t, 0, g.Len())
}

type ctxKey string

func Test_Context_Context(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/remote", nil)
	r = r.WithContext(context.WithValue(r.Context(), ctxKey("k"), "v"))

	ctx := &Context{Request: &Request{HTTP: r}}
	assert.Equal(t, "v", ctx.Context().Value(ctxKey("k")))

	bare := &Context{}
	assert.Equal(t, context.Background(), bare.Context())
}
