package convert

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/gubarz/tut2nb/internal/command"
	"github.com/gubarz/tut2nb/internal/notebook"
)

// Converter is a two-phase block converter: markup is fed in chunks and
// turned into cells once complete.
type Converter interface {
	Feed(chunk string) error
	Finalize() ([]notebook.Cell, error)
}

// markup buffers fed chunks until Finalize
type markup struct {
	buf strings.Builder
}

func (m *markup) Feed(chunk string) error {
	m.buf.WriteString(chunk)
	return nil
}

func (m *markup) take() string {
	s := m.buf.String()
	m.buf.Reset()
	return s
}

// Replacement rewrites code lines matching Pattern
type Replacement struct {
	Pattern *regexp.Regexp
	Replace string
}

// CodeRules holds the line filters applied to code blocks before rendering
type CodeRules struct {
	IgnoredLines []*regexp.Regexp
	Replacements []Replacement
}

// DefaultCodeRules drops directory changes
func DefaultCodeRules() CodeRules {
	return CodeRules{
		IgnoredLines: []*regexp.Regexp{
			regexp.MustCompile(`^cd$`),
			regexp.MustCompile(`^cd\s.*`),
		},
	}
}

const (
	imageFile       = "map.png"
	imageExpression = `Image(filename="` + imageFile + `")`
	imageMarkdown   = "![image](" + imageFile + ")"
	renderCommand   = "d.out.file"
)

var (
	inlineComment   = regexp.MustCompile(`<!--.*-->`)
	sessionSentinel = regexp.MustCompile(`^grass.?.?$`)
)

// CodeConverter turns a code block into executable cells
type CodeConverter struct {
	markup

	syntax     Syntax
	rules      CodeRules
	translator *command.Translator
	session    Session
	logger     *slog.Logger

	sessionStarted bool
	manual         []string
}

// NewCodeConverter creates a converter for one code block
func NewCodeConverter(syntax Syntax, rules CodeRules, translator *command.Translator, session Session, logger *slog.Logger) *CodeConverter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CodeConverter{
		syntax:     syntax,
		rules:      rules,
		translator: translator,
		session:    session,
		logger:     logger,
	}
}

// SessionStarted reports whether the block was a session start sentinel
func (c *CodeConverter) SessionStarted() bool {
	return c.sessionStarted
}

// Manual returns the commands left for manual execution
func (c *CodeConverter) Manual() []string {
	return c.manual
}

// Finalize renders the fed block
func (c *CodeConverter) Finalize() ([]notebook.Cell, error) {
	data, err := collectText(c.take(), keepEraseComment)
	if err != nil {
		return nil, err
	}

	text := c.clean(data)
	if text == "" {
		// python and ! output keep one cell per block, even an empty one
		switch c.syntax {
		case SyntaxPython, SyntaxPython2, SyntaxExclamation:
			return []notebook.Cell{notebook.NewCodeCell("")}, nil
		}
		return nil, nil
	}
	if sessionSentinel.MatchString(text) {
		c.sessionStarted = true
		return SessionCells(c.session, c.syntax), nil
	}

	lines := joinContinued(strings.Split(text, "\n"))
	switch c.syntax {
	case SyntaxPython, SyntaxPython2:
		return c.toPython(lines)
	case SyntaxCellMagic:
		return toMagicCells(lines), nil
	case SyntaxPure:
		return toPureCells(lines), nil
	default:
		return toExclamations(lines)
	}
}

// keepEraseComment keeps commented out display erasing as a command
func keepEraseComment(comment string) (string, bool) {
	comment = strings.TrimSpace(comment)
	return comment, strings.HasPrefix(comment, "d.erase")
}

// clean strips comments, ignored and empty lines and applies replacements
func (c *CodeConverter) clean(data string) string {
	var kept []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSuffix(line, "\r")
		line = inlineComment.ReplaceAllString(line, "")
		if c.ignored(line) {
			continue
		}
		for _, r := range c.rules.Replacements {
			line = r.Pattern.ReplaceAllString(line, r.Replace)
		}
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func (c *CodeConverter) ignored(line string) bool {
	for _, re := range c.rules.IgnoredLines {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// joinContinued merges lines ending with a backslash into the following line
func joinContinued(lines []string) []string {
	var out []string
	var pending string
	for _, line := range lines {
		if strings.HasSuffix(line, `\`) {
			pending += line + "\n"
			continue
		}
		if pending != "" {
			line = pending + line
			pending = ""
		}
		out = append(out, line)
	}
	if pending != "" {
		// dangling continuation at the end of the block
		out = append(out, strings.TrimSuffix(pending, "\\\n"))
	}
	return out
}

// ============================================================================
// Renderers
// ============================================================================

func (c *CodeConverter) toPython(lines []string) ([]notebook.Cell, error) {
	var out []string
	displayed := false
	last := ""
	for _, line := range lines {
		cmd, err := command.Tokenize(line)
		if err != nil {
			return nil, err
		}
		if cmd.Name == renderCommand {
			out = append(out, imageExpression)
		} else {
			tr := c.translator.Translate(cmd)
			if err := tr.Err(); err != nil {
				c.logger.Warn("command needs manual execution", "command", cmd.Original)
				c.manual = append(c.manual, cmd.Original)
			}
			out = append(out, tr.Source)
			if cmd.HasPrefix("d.") {
				displayed = true
			}
		}
		last = cmd.Name
	}
	if displayed && last != renderCommand {
		out = append(out, imageExpression)
	}
	return []notebook.Cell{notebook.NewCodeCell(strings.Join(out, "\n"))}, nil
}

// toExclamations prefixes each line with ! in a single Python cell
func toExclamations(lines []string) ([]notebook.Cell, error) {
	var out []string
	displayed := false
	last := ""
	for _, line := range lines {
		cmd, err := command.Tokenize(line)
		if err != nil {
			return nil, err
		}
		if cmd.Name == renderCommand {
			out = append(out, imageExpression)
		} else {
			out = append(out, "!"+line)
			if cmd.HasPrefix("d.") {
				displayed = true
			}
		}
		last = cmd.Name
	}
	if displayed && last != renderCommand {
		out = append(out, imageExpression)
	}
	return []notebook.Cell{notebook.NewCodeCell(strings.Join(out, "\n"))}, nil
}

// bashCells groups lines into cells split at render commands. The image
// cell is built by image.
func bashCells(lines []string, header []string, image notebook.Cell) []notebook.Cell {
	var cells []notebook.Cell
	out := append([]string(nil), header...)
	flush := func() {
		if len(out) > len(header) {
			cells = append(cells, notebook.NewCodeCell(strings.Join(out, "\n")))
		}
		out = append([]string(nil), header...)
	}

	displayed := false
	last := ""
	for _, line := range lines {
		name := command.Name(line)
		if name == renderCommand {
			flush()
			cells = append(cells, image)
		} else {
			out = append(out, line)
			if strings.HasPrefix(name, "d.") {
				displayed = true
			}
		}
		last = name
	}
	flush()
	if displayed && last != renderCommand {
		cells = append(cells, image)
	}
	return cells
}

func toMagicCells(lines []string) []notebook.Cell {
	return bashCells(lines, []string{"%%bash"}, notebook.NewCodeCell(imageExpression))
}

func toPureCells(lines []string) []notebook.Cell {
	return bashCells(lines, nil, notebook.NewMarkdownCell(imageMarkdown))
}

// ============================================================================
// File content
// ============================================================================

// FileContentConverter turns a file content block into a %%file cell
type FileContentConverter struct {
	markup
	filename string
}

// NewFileContentConverter creates a converter writing into filename
func NewFileContentConverter(filename string) *FileContentConverter {
	return &FileContentConverter{filename: filename}
}

func (c *FileContentConverter) Finalize() ([]notebook.Cell, error) {
	data, err := collectText(c.take(), nil)
	if err != nil {
		return nil, err
	}
	source := "%%file " + c.filename + "\n" + strings.TrimSpace(data)
	return []notebook.Cell{notebook.NewCodeCell(source)}, nil
}
