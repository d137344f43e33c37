package ffmpeg

import (
	"strings"

	"github.com/alessio/shellescape"
)

// Command is a synthesized ffmpeg invocation split into its five clause
// groups, in emission order.
type Command struct {
	Binary    string
	Input     []string
	Map       []string
	Filter    []string
	Transcode []string
	Output    []string
}

func (c *Command) groups() [][]string {
	return [][]string{c.Input, c.Map, c.Filter, c.Transcode, c.Output}
}

// Args returns the raw argv, binary first, for exec.
func (c *Command) Args() []string {
	args := []string{c.Binary}
	for _, g := range c.groups() {
		args = append(args, g...)
	}
	return args
}

// String renders the command as one shell-safe line. Tokens are quoted
// only when they need it.
func (c *Command) String() string {
	parts := []string{shellescape.Quote(c.Binary)}
	for _, g := range c.groups() {
		if len(g) > 0 {
			parts = append(parts, shellescape.QuoteCommand(g))
		}
	}
	return strings.Join(parts, " ")
}

// clauses collects transcode clauses, dropping exact repeats.
type clauses struct {
	seen map[string]bool
	out  []string
}

func (c *clauses) add(tokens ...string) {
	if len(tokens) == 0 {
		return
	}
	key := strings.Join(tokens, "\x00")
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.out = append(c.out, tokens...)
}
