package executor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ============================================================================
// Command Runner Interface
// ============================================================================

// Runner starts external programs
type Runner interface {
	Run(name string, args ...string) error
}

// systemRunner runs programs attached to the terminal
type systemRunner struct{}

func (systemRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	return cmd.Run()
}

// ============================================================================
// Clipboard Interface
// ============================================================================

// Clipboard defines the interface for clipboard operations
type Clipboard interface {
	Copy(text string) error
}

// systemClipboard implements Clipboard using system commands
type systemClipboard struct {
	fallback io.Writer
}

// Copy copies text to the system clipboard
func (c *systemClipboard) Copy(text string) error {
	cmd := c.findClipboardCommand()
	if cmd == nil {
		// No clipboard tool found, just print
		_, err := fmt.Fprintln(c.fallback, text)
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// findClipboardCommand returns the appropriate clipboard command for the system
func (c *systemClipboard) findClipboardCommand() *exec.Cmd {
	switch {
	case commandExists("wl-copy"):
		return exec.Command("wl-copy")
	case commandExists("xclip"):
		return exec.Command("xclip", "-selection", "clipboard")
	case commandExists("xsel"):
		return exec.Command("xsel", "--clipboard", "--input")
	case commandExists("pbcopy"):
		return exec.Command("pbcopy")
	default:
		return nil
	}
}

// commandExists checks if a command is available in PATH
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ============================================================================
// Executor
// ============================================================================

// OutputMode represents how a selected cell is handed back to the user
type OutputMode string

const (
	OutputPrint OutputMode = "print"
	OutputCopy  OutputMode = "copy"
)

// ParseOutputMode validates an output mode name
func ParseOutputMode(s string) (OutputMode, error) {
	switch mode := OutputMode(s); mode {
	case OutputPrint, OutputCopy:
		return mode, nil
	}
	return "", fmt.Errorf("unknown output mode: %q (supported: print, copy)", s)
}

// Executor delivers cell sources and opens written notebooks
type Executor struct {
	out       io.Writer
	clipboard Clipboard
	runner    Runner
}

// NewExecutor creates an executor writing to stdout
func NewExecutor() *Executor {
	return &Executor{
		out:       os.Stdout,
		clipboard: &systemClipboard{fallback: os.Stdout},
		runner:    systemRunner{},
	}
}

// WithClipboard sets a custom clipboard implementation (useful for testing)
func (e *Executor) WithClipboard(c Clipboard) *Executor {
	e.clipboard = c
	return e
}

// WithRunner sets a custom program runner (useful for testing)
func (e *Executor) WithRunner(r Runner) *Executor {
	e.runner = r
	return e
}

// WithWriter sets where printed output goes
func (e *Executor) WithWriter(w io.Writer) *Executor {
	e.out = w
	return e
}

// OutputWithMode handles text output with an explicit mode
func (e *Executor) OutputWithMode(text string, mode OutputMode) error {
	switch mode {
	case OutputCopy:
		return e.clipboard.Copy(text)
	default: // print
		_, err := fmt.Fprintln(e.out, text)
		return err
	}
}

// Open runs the opener command line with the notebook path appended,
// e.g. "jupyter notebook".
func (e *Executor) Open(opener, path string) error {
	words, err := shellquote.Split(opener)
	if err != nil {
		return fmt.Errorf("open command %q: %w", opener, err)
	}
	if len(words) == 0 {
		return fmt.Errorf("open command is empty")
	}
	args := append(words[1:], path)
	if err := e.runner.Run(words[0], args...); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}
