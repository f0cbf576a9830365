package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gubarz/tut2nb/internal/convert"
)

// Document describes one converted document
type Document struct {
	Input     string        `yaml:"input"`
	Output    string        `yaml:"output"`
	Title     string        `yaml:"title,omitempty"`
	Syntax    string        `yaml:"syntax"`
	Kernel    string        `yaml:"kernel"`
	Stats     convert.Stats `yaml:"stats"`
	Manual    []string      `yaml:"manual,omitempty"`
	Downloads []string      `yaml:"downloads,omitempty"`
	Error     string        `yaml:"error,omitempty"`
}

// Report is the YAML document written by --report
type Report struct {
	Generated time.Time  `yaml:"generated"`
	Documents []Document `yaml:"documents"`
}

// NewDocument summarizes a conversion result. A nil res records err instead.
func NewDocument(input, output string, syntax convert.Syntax, res *convert.Result, err error) Document {
	doc := Document{
		Input:  input,
		Output: output,
		Syntax: string(syntax),
		Kernel: syntax.Kernel().Name,
	}
	if err != nil {
		doc.Error = err.Error()
	}
	if res != nil {
		doc.Title = res.Notebook.Metadata.Title
		doc.Stats = res.Stats
		doc.Manual = res.Manual
		doc.Downloads = res.Downloads
	}
	return doc
}

// Write encodes r as YAML
func Write(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// WriteFile writes r to path
func WriteFile(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a report written by WriteFile
func Load(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse report %s: %w", path, err)
	}
	return r, nil
}
