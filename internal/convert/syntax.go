package convert

import (
	"fmt"

	"github.com/gubarz/tut2nb/internal/notebook"
)

// Syntax selects how code blocks are rendered into cells
type Syntax string

const (
	SyntaxPython      Syntax = "python"     // GRASS GIS Python API calls
	SyntaxPython2     Syntax = "python2"    // same, for a Python 2 kernel
	SyntaxExclamation Syntax = "bash"       // !command lines in a Python cell
	SyntaxCellMagic   Syntax = "bash-cells" // %%bash cells
	SyntaxPure        Syntax = "pure-bash"  // plain command cells
)

// Syntaxes lists the supported values in help order
var Syntaxes = []Syntax{SyntaxPython, SyntaxPython2, SyntaxExclamation, SyntaxCellMagic, SyntaxPure}

// ParseSyntax validates a --lang value
func ParseSyntax(s string) (Syntax, error) {
	for _, syntax := range Syntaxes {
		if string(syntax) == s {
			return syntax, nil
		}
	}
	return "", fmt.Errorf("requested output syntax not recognized: %q", s)
}

// Translates reports whether commands are translated into Python calls
func (s Syntax) Translates() bool {
	return s == SyntaxPython || s == SyntaxPython2
}

// Kernel returns the kernelspec recorded in the notebook metadata
func (s Syntax) Kernel() notebook.Kernelspec {
	if s == SyntaxPython2 {
		return notebook.Python2
	}
	return notebook.Python3
}
