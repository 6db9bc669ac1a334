package response

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Merge captures a snapshot of other's commands, own plus everything other
// had merged, keyed by other's identity name. The snapshot is a deep copy
// taken now; mutating other afterwards does not change what was captured.
// Merging the same identity again replaces its snapshot in place. Merging a
// response into itself records nothing.
func (r *Response) Merge(other *Response) *Response {
	if other == nil || other == r {
		return r
	}
	r.merged.Set(other.name, deepCopyCmdMap(other.flatten()))

	return r
}

// Unmerge removes other's captured snapshot.
func (r *Response) Unmerge(other *Response) *Response {
	if other != nil {
		r.merged.Delete(other.name)
	}

	return r
}

// UnmergeName removes the snapshot captured under name.
func (r *Response) UnmergeName(name string) *Response {
	r.merged.Delete(name)

	return r
}

// Merged returns the identity names of captured snapshots in merge order.
func (r *Response) Merged() []string {
	out := make([]string, 0, r.merged.Len())
	for p := r.merged.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}

	return out
}

// flatten combines own commands with every merged snapshot, snapshots in
// merge order. A key held by both sides keeps one list: own commands first,
// then each snapshot's, appended rather than replaced.
func (r *Response) flatten() *cmdMap {
	out := orderedmap.New[string, []*Command]()
	for p := r.commands.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, append([]*Command(nil), p.Value...))
	}
	for m := r.merged.Oldest(); m != nil; m = m.Next() {
		for p := m.Value.Oldest(); p != nil; p = p.Next() {
			list, _ := out.Get(p.Key)
			out.Set(p.Key, append(list, p.Value...))
		}
	}

	return out
}

// combined is the rendered form: the flattened map, or a lone empty list
// under the current target when nothing was recorded but a target is
// selected, so the client still receives the selection.
func (r *Response) combined() *cmdMap {
	out := r.flatten()
	if out.Len() == 0 && r.target != "" {
		out.Set(r.target, []*Command{})
	}

	return out
}

func deepCopyCmdMap(src *cmdMap) *cmdMap {
	dst := orderedmap.New[string, []*Command]()
	for p := src.Oldest(); p != nil; p = p.Next() {
		list := make([]*Command, len(p.Value))
		for i, c := range p.Value {
			list[i] = c.clone()
		}
		dst.Set(p.Key, list)
	}

	return dst
}

// MarshalJSON renders the combined command map as an ordered JSON object.
func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.combined())
}

// Render returns the wire form sent to the client.
func (r *Response) Render() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// String renders the wire form, falling back to an empty object when a
// command argument cannot be encoded.
func (r *Response) String() string {
	s, err := r.Render()
	if err != nil {
		return "{}"
	}

	return s
}
