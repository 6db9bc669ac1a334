package client

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Command is one decoded reply command. Numeric opcodes land in Code,
// string operations in Name; exactly one of the two is set.
type Command struct {
	Name string
	Code int
	Args []any
}

// Op returns the operation selector: the name when set, the code
// otherwise.
func (c Command) Op() any {
	if c.Name != "" {
		return c.Name
	}

	return c.Code
}

// CommandSet is a decoded reply body: reply keys in document order, each
// with its command list. The decoder walks the raw JSON so key order
// survives, which a plain map unmarshal would destroy.
type CommandSet struct {
	raw     string
	targets []string
	byKey   map[string][]Command
}

// ParseCommandSet decodes a reply body.
func ParseCommandSet(body []byte) (*CommandSet, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid reply body")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, errors.New("reply body is not a command map")
	}

	cs := &CommandSet{raw: string(body), byKey: map[string][]Command{}}

	var parseErr error
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			parseErr = fmt.Errorf("reply key %q does not hold a command list", key.String())

			return false
		}

		cmds := []Command{}
		value.ForEach(func(_, raw gjson.Result) bool {
			cmds = append(cmds, decodeCommand(raw))

			return true
		})

		cs.targets = append(cs.targets, key.String())
		cs.byKey[key.String()] = cmds

		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return cs, nil
}

func decodeCommand(raw gjson.Result) Command {
	cmd := Command{}

	op := raw.Get("c")
	if op.Type == gjson.String {
		cmd.Name = op.String()
	} else {
		cmd.Code = int(op.Int())
	}

	raw.Get("a").ForEach(func(_, a gjson.Result) bool {
		cmd.Args = append(cmd.Args, a.Value())

		return true
	})

	return cmd
}

// Raw returns the reply body as received.
func (cs *CommandSet) Raw() string {
	return cs.raw
}

// Targets returns the reply keys in document order.
func (cs *CommandSet) Targets() []string {
	out := make([]string, len(cs.targets))
	copy(out, cs.targets)

	return out
}

// Commands returns the command list under target, nil when absent.
func (cs *CommandSet) Commands(target string) []Command {
	return cs.byKey[target]
}

// All returns every command in document order.
func (cs *CommandSet) All() []Command {
	var out []Command
	for _, target := range cs.targets {
		out = append(out, cs.byKey[target]...)
	}

	return out
}

// First returns the first command whose operation matches op, which is a
// numeric opcode or a string operation name.
func (cs *CommandSet) First(op any) (Command, bool) {
	for _, cmd := range cs.All() {
		switch t := op.(type) {
		case int:
			if cmd.Name == "" && cmd.Code == t {
				return cmd, true
			}
		case string:
			if cmd.Name == t {
				return cmd, true
			}
		}
	}

	return Command{}, false
}

// Len returns the number of reply keys.
func (cs *CommandSet) Len() int {
	return len(cs.targets)
}
