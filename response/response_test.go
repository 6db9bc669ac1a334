package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Response_Select_Normalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		give string
		want string
	}{
		{name: "bare word becomes an id", give: "out", want: "#out"},
		{name: "id selector unchanged", give: "#out", want: "#out"},
		{name: "class selector unchanged", give: ".rows", want: ".rows"},
		{name: "new element unchanged", give: "<div>", want: "<div>"},
		{name: "attribute selector unchanged", give: "[name=q]", want: "[name=q]"},
		{name: "pseudo selector unchanged", give: ":checked", want: ":checked"},
		{name: "universal unchanged", give: "*", want: "*"},
		{name: "self target unchanged", give: "~", want: "~"},
		{name: "window reserved", give: "window", want: "window"},
		{name: "document reserved", give: "document", want: "document"},
		{name: "empty clears", give: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := New()
			r.Select(tt.give)
			assert.Equal(t, tt.want, r.Target())
		})
	}
}

func Test_Response_TargetSticky(t *testing.T) {
	t.Parallel()

	r := New()
	r.Select("#list").Append("<li>a</li>").Append("<li>b</li>").Attr("data-n", "2")

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t,
		`{"#list":[{"c":"append","a":["<li>a</li>"]},{"c":"append","a":["<li>b</li>"]},{"c":"attr","a":["data-n",2]}]}`,
		got)
}

func Test_Response_GlobalClearsTarget(t *testing.T) {
	t.Parallel()

	r := New()
	r.Select("#out").Text("first")
	r.Alert("saved")

	assert.Empty(t, r.Target())

	// Without a reselect the element operation has nowhere to go.
	r.Text("lost")

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t,
		`{"#out":[{"c":"text","a":["first"]}],"0":[{"c":1,"a":["saved"]}]}`,
		got)
}

func Test_Response_GlobalKeysIncrement(t *testing.T) {
	t.Parallel()

	r := New()
	r.Alert("one")
	r.Select("#x").Text("mid")
	r.Log("two")

	assert.Equal(t, []string{"0", "#x", "1"}, r.Targets())
}

func Test_Response_CommandWithoutTarget(t *testing.T) {
	t.Parallel()

	r := New()
	r.Command("html", "<b>dropped</b>")
	r.Capability("focus")

	assert.True(t, r.Empty())

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)
}

func Test_Response_CommandAt(t *testing.T) {
	t.Parallel()

	r := New()
	// Explicit keys are recorded verbatim, no id normalization.
	r.CommandAt("out", "text", "raw key")
	r.CommandAt("#out", "text", "id key")

	assert.Equal(t, []string{"out", "#out"}, r.Targets())
}

func Test_Response_Factory(t *testing.T) {
	t.Parallel()

	r := Factory("<li>", Prop{Name: "text", Args: []any{"new row"}}, Prop{Name: "attr", Args: []any{"class", "row"}})

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t,
		`{"<li>":[{"c":"text","a":["new row"]},{"c":"attr","a":["class","row"]}]}`,
		got)
}

func Test_Response_Capability(t *testing.T) {
	t.Parallel()

	r := New()
	r.Select("#editor").Capability("focus").Capability("scrollTo", 0, 120)

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t,
		`{"#editor":[{"c":10,"a":["focus"]},{"c":10,"a":["scrollTo",0,120]}]}`,
		got)
}

func Test_Response_PageOperations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(r *Response)
		want  string
	}{
		{
			name:  "alert",
			build: func(r *Response) { r.Alert("hi") },
			want:  `{"0":[{"c":1,"a":["hi"]}]}`,
		},
		{
			name:  "call function",
			build: func(r *Response) { r.CallFunc("refresh", "#grid", true) },
			want:  `{"0":[{"c":2,"a":["refresh","#grid",true]}]}`,
		},
		{
			name:  "script lines",
			build: func(r *Response) { r.Script("console.clear()", "start()") },
			want:  `{"0":[{"c":3,"a":["console.clear()","start()"]}]}`,
		},
		{
			name:  "json payload",
			build: func(r *Response) { r.JSON(map[string]any{"n": 3}) },
			want:  `{"0":[{"c":4,"a":["{\"n\":3}"]}]}`,
		},
		{
			name:  "exception",
			build: func(r *Response) { r.Exception("boom") },
			want:  `{"0":[{"c":7,"a":["boom"]}]}`,
		},
		{
			name:  "redirect",
			build: func(r *Response) { r.Redirect("/login") },
			want:  `{"0":[{"c":8,"a":["/login"]}]}`,
		},
		{
			name:  "redirect through view",
			build: func(r *Response) { r.RedirectToView("/articles", "main") },
			want:  `{"0":[{"c":8,"a":["/articles","main"]}]}`,
		},
		{
			name:  "set global",
			build: func(r *Response) { r.SetGlobal("page", 2) },
			want:  `{"0":[{"c":9,"a":["page",2]}]}`,
		},
		{
			name:  "unset global",
			build: func(r *Response) { r.UnsetGlobal("page") },
			want:  `{"0":[{"c":9,"a":["page"]}]}`,
		},
		{
			name:  "remote without args",
			build: func(r *Response) { r.Remote("reload", nil) },
			want:  `{"0":[{"c":255,"a":["reload"]}]}`,
		},
		{
			name:  "remote with args",
			build: func(r *Response) { r.Remote("page", map[string]any{"n": 2}) },
			want:  `{"0":[{"c":255,"a":["page",{"n":2}]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := New()
			tt.build(r)

			got, err := r.Render()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Response_EmptyWithTarget(t *testing.T) {
	t.Parallel()

	r := New()
	r.Select("#spinner")

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t, `{"#spinner":[]}`, got)
}

func Test_Response_Reset(t *testing.T) {
	t.Parallel()

	r := New()
	r.Select("#out").Text("gone").Alert("gone too")
	r.Reset()

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)

	// The key counter starts over as well.
	r.Alert("fresh")
	assert.Equal(t, []string{"0"}, r.Targets())
}

func Test_Response_RemoveTarget(t *testing.T) {
	t.Parallel()

	r := New()
	r.Select("#a").Text("keep")
	r.Select("#b").Text("drop")
	r.RemoveTarget("#b")

	assert.Equal(t, []string{"#a"}, r.Targets())
}

func Test_Response_Vars(t *testing.T) {
	t.Parallel()

	r := New()
	r.SetVar("attempts", 3)

	v, ok := r.Var("attempts")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	// Vars never reach the wire.
	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)

	r.UnsetVar("attempts")
	_, ok = r.Var("attempts")
	assert.False(t, ok)
}

func Test_Response_NumericCoercion(t *testing.T) {
	t.Parallel()

	r := New()
	r.Select("#out").Text("42")

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t, `{"#out":[{"c":"text","a":[42]}]}`, got)

	plain := New(WithNumericCoercion(false))
	plain.Select("#out").Text("42")

	got, err = plain.Render()
	require.NoError(t, err)
	assert.Equal(t, `{"#out":[{"c":"text","a":["42"]}]}`, got)
}

func Test_Response_StructArgKeepsNumbers(t *testing.T) {
	t.Parallel()

	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	r := New()
	r.Select("#chart").Command("plot", point{X: 1, Y: 2})

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t, `{"#chart":[{"c":"plot","a":[{"x":1,"y":2}]}]}`, got)
}

func Test_Response_SetName(t *testing.T) {
	t.Parallel()

	r := New(WithName("calc"))
	assert.Equal(t, "calc", r.Name())

	require.NoError(t, r.SetName("calc2"))
	assert.Equal(t, "calc2", r.Name())

	err := r.SetName("")
	require.Error(t, err)
}

func Test_Response_This(t *testing.T) {
	t.Parallel()

	r := New()
	r.This().Attr("disabled", "disabled")

	got, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t, `{"~":[{"c":"attr","a":["disabled","disabled"]}]}`, got)
}
