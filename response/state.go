package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrInvalidState marks persisted response state that cannot be restored.
var ErrInvalidState = errors.New("invalid persisted response state")

type responseState struct {
	Data   *cmdMap        `json:"data"`
	This   map[string]any `json:"this"`
	Name   string         `json:"name"`
	Merged *mergeMap      `json:"merged"`
}

// MarshalState encodes the full response for storage: own commands, stored
// vars, identity name, and merged snapshots. The current selection is
// transient and not part of the persisted form.
func (r *Response) MarshalState() ([]byte, error) {
	return json.Marshal(responseState{
		Data:   r.commands,
		This:   r.bag,
		Name:   r.name,
		Merged: r.merged,
	})
}

// UnmarshalState replaces the response contents with a previously persisted
// form. Malformed input is always an error and leaves the receiver
// unchanged. The internal key counter resumes past the highest numeric key
// present, so later page-level commands never collide with restored ones.
func (r *Response) UnmarshalState(b []byte) error {
	var raw responseState
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("restore response state: %w", err)
	}
	if raw.Name == "" {
		return fmt.Errorf("restore response state: missing name: %w", ErrInvalidState)
	}
	if raw.Data == nil {
		raw.Data = orderedmap.New[string, []*Command]()
	}
	if raw.Merged == nil {
		raw.Merged = orderedmap.New[string, *cmdMap]()
	}
	if raw.This == nil {
		raw.This = map[string]any{}
	}

	r.name = raw.Name
	r.commands = raw.Data
	r.merged = raw.Merged
	r.bag = raw.This
	r.target = ""
	r.counter = nextCounter(raw.Data)

	return nil
}

// Restore builds a Response from a previously persisted form.
func Restore(b []byte) (*Response, error) {
	r := New()
	if err := r.UnmarshalState(b); err != nil {
		return nil, err
	}

	return r, nil
}

func nextCounter(m *cmdMap) int {
	max := -1
	for p := m.Oldest(); p != nil; p = p.Next() {
		if n, err := strconv.Atoi(p.Key); err == nil && n >= 0 && n > max {
			max = n
		}
	}

	return max + 1
}
