package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// BlockType identifies the kind of content a block holds
type BlockType int

const (
	BlockText BlockType = iota
	BlockCode
	BlockFileContent
)

func (t BlockType) String() string {
	switch t {
	case BlockText:
		return "text"
	case BlockCode:
		return "code"
	case BlockFileContent:
		return "file_content"
	default:
		return fmt.Sprintf("BlockType(%d)", int(t))
	}
}

// Block is a maximal span of one content type
type Block struct {
	Type    BlockType         // Text, code or file content
	Content []string          // Raw lines, entities not decoded
	Attrs   map[string]string // "filename" for file content blocks
}

// Filename returns the target file of a file content block
func (b Block) Filename() string {
	return b.Attrs["filename"]
}

var (
	// ErrMissingFilename is returned for a file content block without a filename
	ErrMissingFilename = errors.New("file name needed for the file content")
	// ErrUnclosedBlock is returned when the document ends inside a code or file content block
	ErrUnclosedBlock = errors.New("unclosed block at end of document")
)

// MissingFilenameError carries the offending start tag
type MissingFilenameError struct {
	Line string
}

func (e *MissingFilenameError) Error() string {
	return fmt.Sprintf("%v (%s)", ErrMissingFilename, e.Line)
}

func (e *MissingFilenameError) Unwrap() error { return ErrMissingFilename }

// Tags holds the code block boundary patterns
type Tags struct {
	CodeStart *regexp.Regexp
	CodeEnd   *regexp.Regexp
}

const (
	DefaultCodeStart = `^<pre><code>$`
	DefaultCodeEnd   = `^</code></pre>$`
)

// DefaultTags returns the <pre><code> boundary patterns
func DefaultTags() Tags {
	return Tags{
		CodeStart: regexp.MustCompile(DefaultCodeStart),
		CodeEnd:   regexp.MustCompile(DefaultCodeEnd),
	}
}

// CompileTags compiles user supplied code block boundaries
func CompileTags(start, end string) (Tags, error) {
	codeStart, err := regexp.Compile(start)
	if err != nil {
		return Tags{}, fmt.Errorf("code start pattern: %w", err)
	}
	codeEnd, err := regexp.Compile(end)
	if err != nil {
		return Tags{}, fmt.Errorf("code end pattern: %w", err)
	}
	return Tags{CodeStart: codeStart, CodeEnd: codeEnd}, nil
}

var (
	fileContentStart = regexp.MustCompile(`^<pre data-filename=.*>$`)
	fileContentEnd   = regexp.MustCompile(`^</pre>$`)
	commentStart     = regexp.MustCompile(`^\s*<!--`)
	commentEnd       = regexp.MustCompile(`-->\s*$`)
	filenameCapture  = regexp.MustCompile(`<pre data-filename="(.*?)">`)
)

// maxLineSize bounds a single input line
const maxLineSize = 1024 * 1024

// Splitter classifies document lines into text, code and file content
type Splitter struct {
	tags Tags

	inCode         bool
	inFileContent  bool
	inBlockComment bool
}

// NewSplitter creates a splitter for the given code block boundaries
func NewSplitter(tags Tags) *Splitter {
	return &Splitter{tags: tags}
}

// Split reads the document line by line and reports events to h.
// Finish is called on h once the input is exhausted.
func (s *Splitter) Split(r io.Reader, h Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := s.splitLine(scanner.Text(), h); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	if s.inCode || s.inFileContent {
		return ErrUnclosedBlock
	}
	return h.Finish()
}

func (s *Splitter) splitLine(line string, h Handler) error {
	switch {
	case fileContentStart.MatchString(line) && !s.inBlockComment:
		matches := filenameCapture.FindStringSubmatch(line)
		if matches == nil || matches[1] == "" {
			return &MissingFilenameError{Line: line}
		}
		s.inFileContent = true
		return h.StartFileContent(line, matches[1])
	case s.inFileContent && fileContentEnd.MatchString(line):
		s.inFileContent = false
		return h.EndFileContent(line)
	case s.tags.CodeStart.MatchString(line) && !s.inBlockComment:
		s.inCode = true
		return h.StartCode(line)
	case s.inCode && s.tags.CodeEnd.MatchString(line):
		s.inCode = false
		return h.EndCode(line)
	case commentStart.MatchString(line) && !commentEnd.MatchString(line):
		s.inBlockComment = true
	case s.inBlockComment && commentEnd.MatchString(line):
		s.inBlockComment = false
	}

	// Comment boundary lines are content too
	switch {
	case s.inCode:
		return h.AddCode(line)
	case s.inFileContent:
		return h.AddFileContent(line)
	default:
		return h.AddText(line)
	}
}

// SplitBlocks splits a whole document into blocks
func SplitBlocks(r io.Reader, tags Tags) ([]Block, error) {
	c := NewCollector()
	if err := NewSplitter(tags).Split(r, c); err != nil {
		return nil, err
	}
	return c.Blocks(), nil
}
