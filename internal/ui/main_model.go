package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/tut2nb/internal/executor"
	"github.com/gubarz/tut2nb/internal/notebook"
)

// ============================================================================
// Render Buffers
// ============================================================================

// builderPool reuses the builders View renders into
var builderPool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

func getBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

func putBuilder(b *strings.Builder) {
	if b.Cap() < 64*1024 {
		builderPool.Put(b)
	}
}

// ============================================================================
// Cell Item
// ============================================================================

// cellItem wraps a notebook cell with display metadata
type cellItem struct {
	index  int // position in the notebook, 1-based
	cell   notebook.Cell
	lower  string
	header string
}

func newCellItem(i int, cell notebook.Cell) cellItem {
	return cellItem{
		index:  i + 1,
		cell:   cell,
		lower:  strings.ToLower(cell.Source),
		header: firstLine(strings.TrimSpace(cell.Source)),
	}
}

// matchesQuery checks if the cell contains all search words
func (item *cellItem) matchesQuery(words []string) bool {
	for _, word := range words {
		if !strings.Contains(item.lower, word) && string(item.cell.Kind) != word {
			return false
		}
	}
	return true
}

// ============================================================================
// Kind Filter
// ============================================================================

type kindFilter int

const (
	kindAll kindFilter = iota
	kindCode
	kindMarkdown
)

func (k kindFilter) String() string {
	switch k {
	case kindCode:
		return "code"
	case kindMarkdown:
		return "markdown"
	default:
		return "all"
	}
}

func (k kindFilter) next() kindFilter {
	return (k + 1) % 3
}

func (k kindFilter) accepts(kind notebook.CellKind) bool {
	switch k {
	case kindCode:
		return kind == notebook.Code
	case kindMarkdown:
		return kind == notebook.Markdown
	default:
		return true
	}
}

// ============================================================================
// Debounce
// ============================================================================

// filterMsg is sent once typing pauses
type filterMsg struct{}

// debounceFilter delays refiltering until the query stops changing
func debounceFilter() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return filterMsg{}
	})
}

// ============================================================================
// Main Model
// ============================================================================

// previewLines is the fixed height of the preview pane
const previewLines = 10

// mainModel is the Bubble Tea model for browsing converted cells
type mainModel struct {
	width     int
	height    int
	textInput textinput.Model
	quitting  bool

	title    string
	cells    []cellItem
	filtered []cellItem
	kind     kindFilter
	cursor   int
	offset   int // viewport scroll offset
	selected *cellItem
}

// newMainModel creates a model listing every cell of nb
func newMainModel(nb *notebook.Notebook) mainModel {
	ti := textinput.New()
	ti.Placeholder = "Type to search cells..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	cells := nb.Cells()
	items := make([]cellItem, len(cells))
	for i, cell := range cells {
		items[i] = newCellItem(i, cell)
	}

	return mainModel{
		title:     nb.Metadata.Title,
		cells:     items,
		filtered:  items,
		textInput: ti,
	}
}

// Init implements tea.Model
func (m mainModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 4
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			return m, cmd
		}
	case filterMsg:
		m.filterCells()
		return m, nil
	}

	prevQuery := m.textInput.Value()
	var tiCmd tea.Cmd
	m.textInput, tiCmd = m.textInput.Update(msg)
	cmds = append(cmds, tiCmd)

	if m.textInput.Value() != prevQuery {
		cmds = append(cmds, debounceFilter())
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input, returning a command when the key is consumed
func (m *mainModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return tea.Quit
	case "enter":
		if m.cursor < len(m.filtered) {
			item := m.filtered[m.cursor]
			m.selected = &item
			return tea.Quit
		}
	case "tab":
		m.kind = m.kind.next()
		m.filterCells()
	case "up", "ctrl+p":
		m.moveCursor(-1)
	case "down", "ctrl+n":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-10)
	case "pgdown":
		m.moveCursor(10)
	case "home", "ctrl+a":
		m.cursor = 0
		m.adjustOffset()
	case "end", "ctrl+e":
		m.cursor = max(0, len(m.filtered)-1)
		m.adjustOffset()
	}
	return nil
}

// moveCursor moves the selection by delta within the filtered cells
func (m *mainModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// listHeight is the number of list rows that fit below the preview
func (m mainModel) listHeight() int {
	return max(max(m.height, 24)-previewLines-1-3, 3)
}

// adjustOffset scrolls the list so the cursor row stays visible
func (m *mainModel) adjustOffset() {
	scrollWindow(m.cursor, len(m.filtered), m.listHeight(), &m.offset)
}

// filterCells applies the search query and kind filter
func (m *mainModel) filterCells() {
	words := strings.Fields(strings.ToLower(m.textInput.Value()))

	if len(words) == 0 && m.kind == kindAll {
		m.filtered = m.cells
	} else {
		m.filtered = make([]cellItem, 0, len(m.cells))
		for i := range m.cells {
			if m.kind.accepts(m.cells[i].cell.Kind) && m.cells[i].matchesQuery(words) {
				m.filtered = append(m.filtered, m.cells[i])
			}
		}
	}

	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// ============================================================================
// Rendering
// ============================================================================

// View implements tea.Model
func (m mainModel) View() string {
	if m.quitting {
		return ""
	}

	width := max(m.width, 80)
	height := max(m.height, 24)

	preview := m.renderPreview(width)
	list := m.renderList(m.listHeight())
	inputLines := 3 // divider + info + input
	padding := max(height-countLines(preview)-countLines(list)-inputLines, 0)

	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(preview)
	b.WriteString(list)
	b.WriteString(strings.Repeat("\n", padding))
	b.WriteString(m.renderInput(width))
	return b.String()
}

// renderPreview renders the full source of the cell under the cursor
func (m mainModel) renderPreview(width int) string {
	b := getBuilder()
	defer putBuilder(b)
	lines := 0

	if m.cursor < len(m.filtered) {
		item := m.filtered[m.cursor]
		header := fmt.Sprintf("[%d] %s", item.index, item.cell.Kind)
		if m.title != "" {
			header = m.title + " " + header
		}
		b.WriteString(styles.PreviewHeader.Render(header))
		b.WriteString("\n")
		lines++

		source := truncateLines(item.cell.Source, previewLines-lines, 0)
		style := styles.PreviewCode
		if item.cell.Kind == notebook.Markdown {
			style = styles.PreviewMarkdown
		}
		b.WriteString(style.Render(source))
		b.WriteString("\n")
		lines += countLines(source)
	}

	for lines < previewLines {
		b.WriteString("\n")
		lines++
	}

	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	return b.String()
}

// renderList renders the scrollable list of cells
func (m *mainModel) renderList(maxHeight int) string {
	if len(m.filtered) == 0 {
		return ""
	}

	start, end := scrollWindow(m.cursor, len(m.filtered), maxHeight, &m.offset)

	b := getBuilder()
	defer putBuilder(b)
	for i := start; i < end; i++ {
		b.WriteString(m.renderListItem(m.filtered[i], i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

// renderListItem renders a single list row: index, kind and first line
func (m mainModel) renderListItem(item cellItem, selected bool) string {
	idxStyle, srcStyle := styles.Index, styles.Code
	if item.cell.Kind == notebook.Markdown {
		srcStyle = styles.Markdown
	}
	if selected {
		idxStyle = styles.WithSelection(idxStyle)
		srcStyle = styles.WithSelection(srcStyle)
	}

	label := fmt.Sprintf("%4d %-8s ", item.index, item.cell.Kind)
	line := idxStyle.Render(label) + srcStyle.Render(truncateString(item.header, max(m.width, 80)-len(label)-4))
	if selected {
		return styles.Cursor.Render("▶ ") + line
	}
	return "  " + line
}

// renderInput draws the divider, the match counter and the query line
func (m mainModel) renderInput(width int) string {
	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %d/%d", len(m.filtered), len(m.cells))))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("Tab " + m.kind.String()))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("ESC exit"))
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	return b.String()
}

// ============================================================================
// Run TUI
// ============================================================================

// getTTY opens /dev/tty so the browser works while stdout is redirected,
// e.g. tut2nb preview raster.html > cell.py
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()

	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		// stdout is captured
		out, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			out = os.Stderr
		} else {
			closers = append(closers, func() { out.Close() })
		}

		in, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			in = os.Stdin
		} else {
			closers = append(closers, func() { in.Close() })
		}

		// colors follow the terminal, not the redirected stdout
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

		return in, out, func() {
			for _, c := range closers {
				c()
			}
		}
	}

	return os.Stdin, os.Stdout, func() {}
}

// RunTUI browses the cells of nb and hands the selected cell source to exec
func RunTUI(nb *notebook.Notebook, exec *executor.Executor, mode executor.OutputMode, initialQuery string) error {
	if nb.Len() == 0 {
		return fmt.Errorf("notebook has no cells")
	}

	m := newMainModel(nb)
	if initialQuery != "" {
		m.textInput.SetValue(initialQuery)
		m.filterCells()
	}

	ttyIn, ttyOut, cleanup := getTTY()
	RefreshStyles() // after getTTY sets up the renderer
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))
	finalModel, err := p.Run()
	cleanup()
	if err != nil {
		return err
	}

	result := finalModel.(mainModel)
	if result.selected == nil {
		return nil
	}
	return exec.OutputWithMode(result.selected.cell.Source, mode)
}

// ============================================================================
// Helpers
// ============================================================================

// clamp restricts v to the range [minV, maxV]
func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// countLines counts the number of lines in a string
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// firstLine returns the first line of a string
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// scrollWindow calculates the visible range for a scrollable list
func scrollWindow(cursor, total, height int, offset *int) (start, end int) {
	if cursor < *offset {
		*offset = cursor
	}
	if cursor >= *offset+height {
		*offset = cursor - height + 1
	}
	maxOffset := max(0, total-height)
	*offset = clamp(*offset, 0, maxOffset)

	start = *offset
	end = min(start+height, total)
	return
}

// truncateString truncates a string to maxLen with ellipsis
func truncateString(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// truncateLines keeps the first maxLines lines, each cut to maxLen when positive
func truncateLines(text string, maxLines int, maxLen int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		text = strings.Join(lines[:maxLines], "\n") + "..."
	}
	if maxLen > 0 && len(text) > maxLen {
		text = text[:maxLen-3] + "..."
	}
	return text
}
