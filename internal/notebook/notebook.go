// Package notebook holds the notebook document model and its nbformat v4
// JSON serialization.
package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// CellKind is the type of a notebook cell
type CellKind string

const (
	Code     CellKind = "code"
	Markdown CellKind = "markdown"
)

// Cell is one output unit of the notebook
type Cell struct {
	Kind   CellKind
	Source string
}

// NewCodeCell creates an executable cell
func NewCodeCell(source string) Cell {
	return Cell{Kind: Code, Source: source}
}

// NewMarkdownCell creates a rendered text cell
func NewMarkdownCell(source string) Cell {
	return Cell{Kind: Markdown, Source: source}
}

// Kernelspec names the language runtime of the notebook
type Kernelspec struct {
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
	Name        string `json:"name"`
}

var (
	Python3 = Kernelspec{DisplayName: "Python 3", Language: "python", Name: "python3"}
	Python2 = Kernelspec{DisplayName: "Python 2", Language: "python", Name: "python2"}
)

// Metadata is the notebook level metadata record
type Metadata struct {
	Kernelspec Kernelspec `json:"kernelspec"`
	Title      string     `json:"title,omitempty"`
}

// Mutator is the set of operations used to build a notebook
type Mutator interface {
	Append(cells ...Cell)
	Insert(index int, cell Cell)
	Remove(index int)
	Cells() []Cell
}

// Notebook is an ordered list of cells plus metadata
type Notebook struct {
	Metadata Metadata
	cells    []Cell
}

// New creates an empty notebook for the given kernel
func New(kernel Kernelspec) *Notebook {
	return &Notebook{Metadata: Metadata{Kernelspec: kernel}}
}

// Append adds cells at the end
func (n *Notebook) Append(cells ...Cell) {
	n.cells = append(n.cells, cells...)
}

// Insert places a cell before index; an index past the end appends
func (n *Notebook) Insert(index int, cell Cell) {
	index = max(0, min(index, len(n.cells)))
	n.cells = slices.Insert(n.cells, index, cell)
}

// Remove deletes the cell at index; out of range indexes are ignored
func (n *Notebook) Remove(index int) {
	if index < 0 || index >= len(n.cells) {
		return
	}
	n.cells = slices.Delete(n.cells, index, index+1)
}

// Cells returns the cells in order
func (n *Notebook) Cells() []Cell {
	return n.cells
}

// Len returns the number of cells
func (n *Notebook) Len() int {
	return len(n.cells)
}

// ============================================================================
// nbformat v4
// ============================================================================

const (
	nbformatMajor = 4
	nbformatMinor = 4
)

// Field order follows nbformat's sorted keys
type jsonCell struct {
	CellType       string         `json:"cell_type"`
	ExecutionCount json.RawMessage `json:"execution_count,omitempty"`
	Metadata       map[string]any `json:"metadata"`
	Outputs        *[]any         `json:"outputs,omitempty"`
	Source         []string       `json:"source"`
}

type jsonNotebook struct {
	Cells         []jsonCell `json:"cells"`
	Metadata      Metadata   `json:"metadata"`
	Nbformat      int        `json:"nbformat"`
	NbformatMinor int        `json:"nbformat_minor"`
}

// sourceLines splits source the way nbformat stores multi-line strings
func sourceLines(source string) []string {
	if source == "" {
		return []string{}
	}
	lines := strings.SplitAfter(source, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// MarshalJSON encodes the notebook as nbformat v4
func (n *Notebook) MarshalJSON() ([]byte, error) {
	doc := jsonNotebook{
		Cells:         make([]jsonCell, 0, len(n.cells)),
		Metadata:      n.Metadata,
		Nbformat:      nbformatMajor,
		NbformatMinor: nbformatMinor,
	}
	for _, cell := range n.cells {
		jc := jsonCell{
			CellType: string(cell.Kind),
			Metadata: map[string]any{},
			Source:   sourceLines(cell.Source),
		}
		if cell.Kind == Code {
			jc.ExecutionCount = json.RawMessage("null")
			jc.Outputs = &[]any{}
		}
		doc.Cells = append(doc.Cells, jc)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write serializes the notebook to w with one space indentation
func Write(w io.Writer, n *Notebook) error {
	raw, err := n.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode notebook: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", " "); err != nil {
		return fmt.Errorf("indent notebook: %w", err)
	}
	out.WriteByte('\n')
	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("write notebook: %w", err)
	}
	return nil
}

// WriteFile serializes the notebook to path, or to stdout when path is "-"
func WriteFile(path string, n *Notebook) error {
	if path == "-" {
		return Write(os.Stdout, n)
	}
	var buf bytes.Buffer
	if err := Write(&buf, n); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write notebook file: %w", err)
	}
	return nil
}
