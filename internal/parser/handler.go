package parser

import (
	"fmt"
	"io"
	"strings"
)

// Handler receives splitter events, one method per event
type Handler interface {
	AddText(line string) error
	StartCode(line string) error
	AddCode(line string) error
	EndCode(line string) error
	// StartFileContent gets the block's non-empty data-filename value
	StartFileContent(line, filename string) error
	AddFileContent(line string) error
	EndFileContent(line string) error
	Finish() error
}

// ============================================================================
// Collector
// ============================================================================

// Collector builds blocks from splitter events. Text is the background
// content: a text block is always open unless code or file content is.
type Collector struct {
	blocks []Block

	text        []string
	code        []string
	fileContent []string
	filename    string
}

// NewCollector creates a collector with an open text block
func NewCollector() *Collector {
	return &Collector{text: []string{}}
}

// Blocks returns the collected blocks in document order
func (c *Collector) Blocks() []Block {
	return c.blocks
}

func (c *Collector) addBlock(blockType BlockType, content []string, attrs map[string]string) {
	c.blocks = append(c.blocks, Block{Type: blockType, Content: content, Attrs: attrs})
}

// endText closes the open text block, dropping it if blank
func (c *Collector) endText() {
	text := c.text
	c.text = nil
	for _, line := range text {
		if strings.TrimSpace(line) != "" {
			c.addBlock(BlockText, text, nil)
			return
		}
	}
}

func (c *Collector) AddText(line string) error {
	if c.text == nil {
		return fmt.Errorf("text block is not active at: %s", line)
	}
	c.text = append(c.text, line)
	return nil
}

func (c *Collector) StartCode(string) error {
	c.endText()
	c.code = []string{}
	return nil
}

func (c *Collector) AddCode(line string) error {
	c.code = append(c.code, line)
	return nil
}

func (c *Collector) EndCode(string) error {
	c.addBlock(BlockCode, c.code, nil)
	c.code = nil
	c.text = []string{}
	return nil
}

func (c *Collector) StartFileContent(_, filename string) error {
	c.endText()
	c.fileContent = []string{}
	c.filename = filename
	return nil
}

func (c *Collector) AddFileContent(line string) error {
	c.fileContent = append(c.fileContent, line)
	return nil
}

func (c *Collector) EndFileContent(string) error {
	c.addBlock(BlockFileContent, c.fileContent, map[string]string{"filename": c.filename})
	c.fileContent = nil
	c.filename = ""
	c.text = []string{}
	return nil
}

func (c *Collector) Finish() error {
	if c.text != nil {
		c.endText()
	}
	return nil
}

// ============================================================================
// Tracer
// ============================================================================

// Tracer writes one line per splitter event, for dry runs
type Tracer struct {
	w io.Writer
}

// NewTracer creates a tracer writing to w
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

func (t *Tracer) event(name, line string) error {
	if line == "" {
		_, err := fmt.Fprintln(t.w, name)
		return err
	}
	_, err := fmt.Fprintf(t.w, "%s %s\n", name, line)
	return err
}

func (t *Tracer) AddText(line string) error        { return t.event("add_text", line) }
func (t *Tracer) StartCode(line string) error      { return t.event("start_code", line) }
func (t *Tracer) AddCode(line string) error        { return t.event("add_code", line) }
func (t *Tracer) EndCode(line string) error        { return t.event("end_code", line) }
func (t *Tracer) AddFileContent(line string) error { return t.event("add_file_content", line) }
func (t *Tracer) EndFileContent(line string) error { return t.event("end_file_content", line) }
func (t *Tracer) Finish() error                    { return nil }

func (t *Tracer) StartFileContent(line, _ string) error {
	return t.event("start_file_content", line)
}
