package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Numeric opcodes interpreted by the browser runtime. They address page-level
// effects and are recorded under internal numeric keys, detached from any
// selected element. String opcodes (attr, html, text, ...) are element
// operations and always apply to a target.
const (
	OpAlert      = 1   // modal alert dialog
	OpCallFunc   = 2   // call a named client function
	OpScript     = 3   // evaluate raw script text
	OpJSON       = 4   // deliver a raw JSON payload
	OpRenderView = 5   // render html into a view container
	OpLog        = 6   // console output, plain or pretty
	OpException  = 7   // raise a client exception event
	OpRedirect   = 8   // navigate, optionally through a view container
	OpGlobal     = 9   // set or unset a client global variable
	OpCapability = 10  // invoke a named element capability
	OpRemote     = 255 // trigger another remote call from the client
)

var opNames = map[int]string{
	OpAlert:      "alert",
	OpCallFunc:   "call",
	OpScript:     "script",
	OpJSON:       "json",
	OpRenderView: "render",
	OpLog:        "log",
	OpException:  "exception",
	OpRedirect:   "redirect",
	OpGlobal:     "global",
	OpCapability: "capability",
	OpRemote:     "remote",
}

// OpName returns a readable name for a numeric opcode, for logs and dumps.
// Unknown opcodes render as their decimal value.
func OpName(code int) string {
	if name, ok := opNames[code]; ok {
		return name
	}

	return strconv.Itoa(code)
}

// Command is a single client instruction. Exactly one of Name or Code is
// set: named commands are element operations, coded commands are page-level
// effects. The wire form is {"c": <code or name>, "a": [<args>]} and the
// argument list is always present, possibly empty.
type Command struct {
	Name string
	Code int
	Args []any
}

// Op returns the wire value of the command selector, the name when set and
// the numeric code otherwise.
func (c *Command) Op() any {
	if c.Name != "" {
		return c.Name
	}

	return c.Code
}

func (c *Command) MarshalJSON() ([]byte, error) {
	args := c.Args
	if args == nil {
		args = []any{}
	}

	return json.Marshal(struct {
		C any   `json:"c"`
		A []any `json:"a"`
	}{C: c.Op(), A: args})
}

func (c *Command) UnmarshalJSON(b []byte) error {
	var raw struct {
		C json.RawMessage `json:"c"`
		A []any           `json:"a"`
	}

	// UseNumber keeps numeric arguments as their literal text so a decoded
	// command re-encodes byte for byte.
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	if len(raw.C) == 0 {
		return errors.New("decode command: missing \"c\" selector")
	}

	c.Name, c.Code = "", 0
	if raw.C[0] == '"' {
		if err := json.Unmarshal(raw.C, &c.Name); err != nil {
			return fmt.Errorf("decode command selector: %w", err)
		}
	} else {
		if err := json.Unmarshal(raw.C, &c.Code); err != nil {
			return fmt.Errorf("decode command selector: %w", err)
		}
	}
	c.Args = raw.A

	return nil
}

// clone returns a copy of the command with its own argument slice. Argument
// values are shared; the accumulator normalizes them into fresh structures
// on the way in, so sharing leaves nothing mutable behind.
func (c *Command) clone() *Command {
	args := make([]any, len(c.Args))
	copy(args, c.Args)

	return &Command{Name: c.Name, Code: c.Code, Args: args}
}

// Prop is a follow-up element operation applied immediately after selection,
// used by Factory to describe newly created elements.
type Prop struct {
	Name string
	Args []any
}
