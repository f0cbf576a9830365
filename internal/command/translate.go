package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUntranslatable marks a command whose positional argument has no known role
var ErrUntranslatable = errors.New("untranslatable command")

// UntranslatableError is reported for commands emitted as a manual-execution comment
type UntranslatableError struct {
	Text string
}

func (e *UntranslatableError) Error() string {
	return fmt.Sprintf("no role for positional argument, execute manually: %s", e.Text)
}

func (e *UntranslatableError) Unwrap() error { return ErrUntranslatable }

// CallStyle selects how a command is rendered as a Python call
type CallStyle int

const (
	StyleRun        CallStyle = iota // gs.run_command
	StyleRead                        // print(gs.read_command(...))
	StyleParse                       // gs.parse_command with -g forced
	StyleExpression                  // gs.mapcalc("...")
	StyleManual                      // commented out, run by hand
)

func (s CallStyle) String() string {
	switch s {
	case StyleRun:
		return "run"
	case StyleRead:
		return "read"
	case StyleParse:
		return "parse"
	case StyleExpression:
		return "expression"
	case StyleManual:
		return "manual"
	default:
		return fmt.Sprintf("CallStyle(%d)", int(s))
	}
}

// Predicate matches a command
type Predicate func(*Command) bool

// RoleRule assigns a semantic role to the positional argument
type RoleRule struct {
	Name  string
	Match Predicate
	Role  string
}

// StyleRule selects a call style
type StyleRule struct {
	Style CallStyle
	Match Predicate
}

// Rules is the immutable lookup data used by a Translator.
// Roles and Styles are evaluated in order, first match wins.
type Rules struct {
	Expression []string
	Roles      []RoleRule
	Styles     []StyleRule
}

// NameIs matches commands with one of the given names
func NameIs(names ...string) Predicate {
	return func(c *Command) bool {
		return slices.Contains(names, c.Name)
	}
}

// DefaultRules returns the GRASS GIS translation table
func DefaultRules() Rules {
	return Rules{
		Expression: []string{"r.mapcalc"},
		Roles: []RoleRule{
			{Name: "output-present", Role: "input", Match: func(c *Command) bool {
				return c.UsesAnyOption("output", "out")
			}},
			{Name: "region", Role: "region", Match: NameIs("g.region")},
			{Name: "legend", Role: "raster", Match: NameIs("d.legend")},
			// r.stats has an optional output
			{Name: "stats", Role: "input", Match: NameIs("r.stats")},
			{Name: "map-family", Role: "map", Match: func(c *Command) bool {
				return c.HasPrefix("d.", "r.", "v.") && c.Name != "d.out.file"
			}},
		},
		Styles: []StyleRule{
			{Style: StyleParse, Match: func(c *Command) bool {
				switch c.Name {
				case "r.info", "r.univar", "v.univar":
					return true
				case "v.info":
					return !c.HasFlag('c')
				case "g.region":
					return c.HasFlag('p') || c.HasFlag('g')
				}
				return false
			}},
			{Style: StyleRead, Match: func(c *Command) bool {
				switch c.Name {
				case "r.category", "r.report":
					return true
				case "v.info":
					return !c.HasFlag('g')
				case "r.stats":
					return !c.UsesOption("output")
				}
				return false
			}},
		},
	}
}

// Translation is the rendered form of one command
type Translation struct {
	Style  CallStyle
	Source string
	text   string
}

// Err reports the manual fallback as an error, nil otherwise
func (t Translation) Err() error {
	if t.Style != StyleManual {
		return nil
	}
	return &UntranslatableError{Text: t.text}
}

// Translator converts commands to GRASS GIS Python API calls
type Translator struct {
	rules Rules
}

// NewTranslator creates a translator over the given rules
func NewTranslator(rules Rules) *Translator {
	return &Translator{rules: rules}
}

// Translate renders cmd as Python source. The command is not modified.
func (t *Translator) Translate(cmd *Command) Translation {
	options := slices.Clone(cmd.Options)
	flags := cmd.Flags

	if cmd.Positional != "" && !t.isExpression(cmd) {
		role, ok := t.positionalRole(cmd)
		if !ok {
			return Translation{
				Style:  StyleManual,
				Source: "# execute manually the following or its equivalent:\n# " + cmd.Original,
				text:   cmd.Original,
			}
		}
		options = slices.Insert(options, 0, Option{Key: role, Value: cmd.Positional})
	}

	style := t.callStyle(cmd)

	var b strings.Builder
	switch style {
	case StyleExpression:
		b.WriteString("gs.mapcalc(" + quote(cmd.Positional))
	case StyleParse:
		if !strings.ContainsRune(flags, 'g') {
			flags += "g"
		}
		fmt.Fprintf(&b, "gs.parse_command('%s'", cmd.Name)
	case StyleRead:
		fmt.Fprintf(&b, "print(gs.read_command('%s'", cmd.Name)
	default:
		fmt.Fprintf(&b, "gs.run_command('%s'", cmd.Name)
	}

	for _, opt := range options {
		key := opt.Key
		if isPythonKeyword(key) {
			key += "_"
		}
		fmt.Fprintf(&b, ", %s=%s", key, quote(opt.Value))
	}
	if flags != "" {
		fmt.Fprintf(&b, ", flags='%s'", flags)
	}
	for _, flag := range cmd.LongFlags {
		fmt.Fprintf(&b, ", %s=True", flag)
	}
	b.WriteString(")")
	if style == StyleRead {
		// close print
		b.WriteString(")")
	}

	return Translation{Style: style, Source: b.String(), text: cmd.Original}
}

func (t *Translator) positionalRole(cmd *Command) (string, bool) {
	for _, rule := range t.rules.Roles {
		if rule.Match(cmd) {
			return rule.Role, true
		}
	}
	return "", false
}

// isExpression reports whether the positional argument is a raw expression
func (t *Translator) isExpression(cmd *Command) bool {
	return cmd.Positional != "" && slices.Contains(t.rules.Expression, cmd.Name)
}

// callStyle checks the expression list before the Styles table
func (t *Translator) callStyle(cmd *Command) CallStyle {
	if t.isExpression(cmd) {
		return StyleExpression
	}
	for _, rule := range t.rules.Styles {
		if rule.Match(cmd) {
			return rule.Style
		}
	}
	return StyleRun
}

// quote wraps value in double quotes, or single quotes if it holds a double quote
func quote(value string) string {
	if strings.Contains(value, `"`) {
		return "'" + value + "'"
	}
	return `"` + value + `"`
}

var pythonKeywords = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await",
	"break", "class", "continue", "def", "del", "elif", "else", "except",
	"finally", "for", "from", "global", "if", "import", "in", "is",
	"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
	"while", "with", "yield",
}

func isPythonKeyword(s string) bool {
	return slices.Contains(pythonKeywords, s)
}
