package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gubarz/tut2nb/internal/command"
	"github.com/gubarz/tut2nb/internal/notebook"
	"github.com/gubarz/tut2nb/internal/parser"
)

// DefaultDownloadMarker starts the text cell the download cell is placed before
const DefaultDownloadMarker = "Download all text files"

// defaultDownloadIndex is used when no cell starts with the download marker
const defaultDownloadIndex = 2

// Options configures one conversion
type Options struct {
	Syntax                Syntax
	Tags                  parser.Tags
	Session               Session
	SessionAfterFirstText bool
	CodeRules             CodeRules
	Translation           command.Rules
	DownloadBaseURL       string
	DownloadMarker        string
}

// DefaultOptions returns the python syntax with the built in tables. The
// session location still has to be filled in.
func DefaultOptions() Options {
	return Options{
		Syntax:          SyntaxPython,
		Tags:            parser.DefaultTags(),
		Session:         Session{Grass: "grass"},
		CodeRules:       DefaultCodeRules(),
		Translation:     command.DefaultRules(),
		DownloadBaseURL: DefaultDownloadBaseURL,
		DownloadMarker:  DefaultDownloadMarker,
	}
}

// Stats counts what a conversion produced
type Stats struct {
	TextBlocks    int `yaml:"text_blocks"`
	CodeBlocks    int `yaml:"code_blocks"`
	FileBlocks    int `yaml:"file_blocks"`
	CodeCells     int `yaml:"code_cells"`
	MarkdownCells int `yaml:"markdown_cells"`
	Downloads     int `yaml:"downloads"`
	Manual        int `yaml:"manual"`
}

// Result is a converted document
type Result struct {
	Notebook *notebook.Notebook
	Stats    Stats
	// Manual lists the commands that were left for manual execution
	Manual    []string
	Downloads []string
}

// Assembler drives the splitter and the converters over one document
type Assembler struct {
	opts       Options
	translator *command.Translator
	logger     *slog.Logger
}

// AssemblerOption customizes an Assembler
type AssemblerOption func(*Assembler)

// WithLogger sets the logger used for warnings and progress
func WithLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler creates an assembler for opts
func NewAssembler(opts Options, options ...AssemblerOption) *Assembler {
	a := &Assembler{
		opts:       opts,
		translator: command.NewTranslator(opts.Translation),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, o := range options {
		o(a)
	}
	return a
}

// conversion is the state of one Convert call
type conversion struct {
	*Assembler
	nb  *notebook.Notebook
	res *Result

	sessionDone    bool
	sessionPending bool
	seenText       bool
}

// Convert reads the whole document and assembles the notebook. A failed
// conversion returns no partial result.
func (a *Assembler) Convert(ctx context.Context, r io.Reader) (*Result, error) {
	doc, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	blocks, err := parser.SplitBlocks(bytes.NewReader(doc), a.opts.Tags)
	if err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}

	nb := notebook.New(a.opts.Syntax.Kernel())
	if title, err := DocumentTitle(doc); err != nil {
		a.logger.Debug("no document title", "error", err)
	} else {
		nb.Metadata.Title = title
	}

	c := &conversion{Assembler: a, nb: nb, res: &Result{Notebook: nb}}
	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.sessionPending {
			c.startSession()
		}
		if err := c.convertBlock(block); err != nil {
			return nil, fmt.Errorf("block %d (%s): %w", i+1, block.Type, err)
		}
	}

	if c.sessionPending {
		c.startSession()
	}
	if !c.sessionDone {
		cells := SessionCells(a.opts.Session, a.opts.Syntax)
		for i, cell := range cells {
			nb.Insert(i, cell)
		}
		c.res.Stats.CodeCells += len(cells)
	}

	if len(c.res.Downloads) > 0 {
		c.insertDownloads(nb)
	}

	nb.Append(EndSessionCell())
	c.res.Stats.CodeCells++
	c.res.Stats.Manual = len(c.res.Manual)

	a.logger.Debug("converted document",
		"blocks", len(blocks),
		"cells", nb.Len(),
		"downloads", len(c.res.Downloads),
	)
	return c.res, nil
}

func (c *conversion) convertBlock(block parser.Block) error {
	var conv Converter
	switch block.Type {
	case parser.BlockCode:
		c.res.Stats.CodeBlocks++
		conv = NewCodeConverter(c.opts.Syntax, c.opts.CodeRules, c.translator, c.opts.Session, c.logger)
	case parser.BlockFileContent:
		c.res.Stats.FileBlocks++
		conv = NewFileContentConverter(block.Filename())
	default:
		c.res.Stats.TextBlocks++
		conv = NewTextConverter(c.opts.DownloadBaseURL)
	}

	if err := conv.Feed(strings.Join(block.Content, "\n")); err != nil {
		return err
	}
	cells, err := conv.Finalize()
	if err != nil {
		return err
	}

	switch conv := conv.(type) {
	case *CodeConverter:
		c.res.Manual = append(c.res.Manual, conv.Manual()...)
		if conv.SessionStarted() {
			if c.sessionDone {
				c.logger.Warn("session already started, skipping repeated session block")
				return nil
			}
			c.sessionDone = true
		}
	case *TextConverter:
		c.res.Downloads = append(c.res.Downloads, conv.Downloads()...)
		if !c.seenText && c.opts.SessionAfterFirstText && !c.sessionDone {
			c.sessionPending = true
		}
		c.seenText = true
	}
	c.append(cells...)
	return nil
}

func (c *conversion) startSession() {
	c.sessionPending = false
	c.sessionDone = true
	c.append(SessionCells(c.opts.Session, c.opts.Syntax)...)
}

func (c *conversion) append(cells ...notebook.Cell) {
	for _, cell := range cells {
		if cell.Kind == notebook.Markdown {
			c.res.Stats.MarkdownCells++
		} else {
			c.res.Stats.CodeCells++
		}
	}
	c.nb.Append(cells...)
}

// insertDownloads places the download cell before the download marker text
// or at the default position.
func (c *conversion) insertDownloads(m notebook.Mutator) {
	cell := DownloadCell(c.res.Downloads, c.opts.Syntax)
	c.res.Stats.Downloads = len(c.res.Downloads)
	c.res.Stats.CodeCells++

	index := -1
	if c.opts.DownloadMarker != "" {
		for i, existing := range m.Cells() {
			if strings.HasPrefix(existing.Source, c.opts.DownloadMarker) {
				index = i
				break
			}
		}
	}
	if index < 0 {
		m.Insert(defaultDownloadIndex, cell)
		return
	}

	m.Insert(index, cell)
	if index > 0 && m.Cells()[index-1].Source == "" {
		removed := m.Cells()[index-1]
		m.Remove(index - 1)
		if removed.Kind == notebook.Markdown {
			c.res.Stats.MarkdownCells--
		} else {
			c.res.Stats.CodeCells--
		}
	}
}
