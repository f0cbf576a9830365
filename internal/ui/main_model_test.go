package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/tut2nb/internal/convert"
	"github.com/gubarz/tut2nb/internal/executor"
	"github.com/gubarz/tut2nb/internal/notebook"
)

func testNotebook() *notebook.Notebook {
	nb := notebook.New(notebook.Python3)
	nb.Metadata.Title = "Raster basics"
	nb.Append(
		notebook.NewMarkdownCell("## Display\nShow the elevation raster."),
		notebook.NewCodeCell("gs.run_command('d.rast', map=\"elevation\")\nImage(filename=\"map.png\")"),
		notebook.NewMarkdownCell("Statistics"),
		notebook.NewCodeCell("gs.parse_command('r.univar', map=\"elevation\", flags='g')"),
	)
	return nb
}

func update(t *testing.T, m mainModel, msg tea.Msg) (mainModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(mainModel), cmd
}

func typeQuery(t *testing.T, m mainModel, query string) mainModel {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(query)})
	m, _ = update(t, m, filterMsg{})
	return m
}

func TestNavigation(t *testing.T) {
	m := newMainModel(testNotebook())
	require.Len(t, m.filtered, 4)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 3, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 2, m.cursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 0, m.cursor)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"single word", "elevation", []int{1, 2, 4}},
		{"all words must match", "elevation univar", []int{4}},
		{"case insensitive", "STATISTICS", []int{3}},
		{"kind name", "markdown", []int{1, 3}},
		{"no match", "v.info", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := typeQuery(t, newMainModel(testNotebook()), tt.query)
			var got []int
			for _, item := range m.filtered {
				got = append(got, item.index)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindFilter(t *testing.T) {
	m := newMainModel(testNotebook())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, kindCode, m.kind)
	require.Len(t, m.filtered, 2)
	assert.Equal(t, notebook.Code, m.filtered[0].cell.Kind)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, kindMarkdown, m.kind)
	assert.Len(t, m.filtered, 2)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, kindAll, m.kind)
	assert.Len(t, m.filtered, 4)
}

func TestSelect(t *testing.T) {
	m := newMainModel(testNotebook())
	m = typeQuery(t, m, "univar")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.NotNil(t, m.selected)
	assert.Equal(t, 4, m.selected.index)

	var buf bytes.Buffer
	exec := executor.NewExecutor().WithWriter(&buf)
	require.NoError(t, exec.OutputWithMode(m.selected.cell.Source, executor.OutputPrint))
	assert.Equal(t, "gs.parse_command('r.univar', map=\"elevation\", flags='g')\n", buf.String())
}

func TestQuit(t *testing.T) {
	m := newMainModel(testNotebook())
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Nil(t, m.selected)
	assert.Empty(t, m.View())
}

func TestView(t *testing.T) {
	m := newMainModel(testNotebook())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})

	view := m.View()
	assert.Contains(t, view, "Raster basics [2] code")
	assert.Contains(t, view, `Image(filename="map.png")`)
	assert.Contains(t, view, "4/4")
	assert.Contains(t, view, "## Display")
	assert.LessOrEqual(t, countLines(view), 30)
}

func TestRenderPreviewTruncates(t *testing.T) {
	nb := notebook.New(notebook.Python3)
	nb.Append(notebook.NewCodeCell(strings.Repeat("line\n", 30) + "last"))
	m := newMainModel(nb)

	preview := m.renderPreview(80)
	assert.NotContains(t, preview, "last")
	assert.Contains(t, preview, "line...")
	assert.Equal(t, previewLines+2, countLines(preview))
}

func TestScrollWindow(t *testing.T) {
	tests := []struct {
		name                  string
		cursor, total, height int
		offset                int
		wantStart, wantEnd    int
		wantOffset            int
	}{
		{"fits", 2, 5, 10, 0, 0, 5, 0},
		{"scroll down", 12, 20, 5, 0, 8, 13, 8},
		{"scroll up", 3, 20, 5, 10, 3, 8, 3},
		{"clamp offset", 19, 20, 5, 18, 15, 20, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := tt.offset
			start, end := scrollWindow(tt.cursor, tt.total, tt.height, &offset)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "a\nb...", truncateLines("a\nb\nc", 2, 0))
	assert.Equal(t, "first", firstLine("first\nsecond"))
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary("raster.html", "raster.ipynb", convert.Stats{
		CodeCells:     7,
		MarkdownCells: 3,
		Downloads:     2,
		Manual:        1,
	})
	for _, want := range []string{"raster.html", "raster.ipynb", "7 code", "3 markdown", "2 downloads", "1 manual"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, RenderSummary("a", "b", convert.Stats{}), "manual")
}
