package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrMalformedCommand is returned when a line cannot be split into shell words
var ErrMalformedCommand = errors.New("malformed command")

// MalformedCommandError carries the offending line
type MalformedCommandError struct {
	Text string
	Err  error
}

func (e *MalformedCommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse using shell rules (%v): %s", e.Err, e.Text)
	}
	return fmt.Sprintf("cannot parse using shell rules: %q", e.Text)
}

func (e *MalformedCommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedCommand}
	}
	return []error{ErrMalformedCommand, e.Err}
}

// Option is a single key=value pair of a command
type Option struct {
	Key   string
	Value string
}

// Command represents one parsed command invocation
type Command struct {
	Name       string   // First token
	Options    []Option // key=value pairs, in source order
	Flags      string   // Short flags, concatenated in source order
	LongFlags  []string // --name flags
	Positional string   // Bare argument seen before any option, empty if none
	Original   string   // Verbatim source text
}

var (
	optionRegex    = regexp.MustCompile(`^([a-z_0-9]+)=(.*)$`)
	shortFlagRegex = regexp.MustCompile(`^-([A-Za-z0-9]+)$`)
	longFlagRegex  = regexp.MustCompile(`^--([A-Za-z0-9_]+)$`)
)

// Tokenize parses one line of shell-like text into a Command
func Tokenize(line string) (*Command, error) {
	tokens, err := shellquote.Split(line)
	if err != nil {
		return nil, &MalformedCommandError{Text: line, Err: err}
	}
	if len(tokens) == 0 {
		return nil, &MalformedCommandError{Text: line}
	}

	cmd := &Command{
		Name:     tokens[0],
		Original: line,
	}
	for _, token := range tokens[1:] {
		if matches := optionRegex.FindStringSubmatch(token); matches != nil {
			cmd.Options = append(cmd.Options, Option{Key: matches[1], Value: matches[2]})
			continue
		}
		if matches := shortFlagRegex.FindStringSubmatch(token); matches != nil {
			cmd.Flags += matches[1]
			continue
		}
		if matches := longFlagRegex.FindStringSubmatch(token); matches != nil {
			cmd.LongFlags = append(cmd.LongFlags, matches[1])
			continue
		}
		// Bare tokens after the first option are dropped
		if len(cmd.Options) == 0 {
			cmd.Positional = token
		}
	}
	return cmd, nil
}

// UsesOption reports whether the command sets the given key
func (c *Command) UsesOption(key string) bool {
	for _, opt := range c.Options {
		if opt.Key == key {
			return true
		}
	}
	return false
}

// UsesAnyOption reports whether the command sets at least one of the keys
func (c *Command) UsesAnyOption(keys ...string) bool {
	for _, key := range keys {
		if c.UsesOption(key) {
			return true
		}
	}
	return false
}

// HasFlag reports whether the short flag is present
func (c *Command) HasFlag(flag rune) bool {
	return strings.ContainsRune(c.Flags, flag)
}

// HasPrefix reports whether the command name starts with any of the prefixes
func (c *Command) HasPrefix(prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(c.Name, prefix) {
			return true
		}
	}
	return false
}

// Name returns the first word of a line without shell parsing
func Name(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
