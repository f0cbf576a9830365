package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/tut2nb/internal/convert"
	"github.com/gubarz/tut2nb/internal/notebook"
)

func testResult() *convert.Result {
	nb := notebook.New(notebook.Python3)
	nb.Metadata.Title = "Raster basics"
	return &convert.Result{
		Notebook:  nb,
		Stats:     convert.Stats{TextBlocks: 2, CodeBlocks: 3, CodeCells: 8, MarkdownCells: 3, Downloads: 1, Manual: 1},
		Manual:    []string{"r.mapcalc"},
		Downloads: []string{"http://example.com/data/elev.txt"},
	}
}

func TestNewDocument(t *testing.T) {
	tests := []struct {
		name      string
		syntax    convert.Syntax
		res       *convert.Result
		err       error
		wantTitle string
		wantErr   string
		kernel    string
	}{
		{"success", convert.SyntaxPython, testResult(), nil, "Raster basics", "", "python3"},
		{"python2 kernel", convert.SyntaxPython2, testResult(), nil, "Raster basics", "", "python2"},
		{"failure", convert.SyntaxPure, nil, errors.New("unclosed block"), "", "unclosed block", "python3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument("raster.html", "raster.ipynb", tt.syntax, tt.res, tt.err)
			assert.Equal(t, tt.wantTitle, doc.Title)
			assert.Equal(t, tt.wantErr, doc.Error)
			assert.Equal(t, tt.kernel, doc.Kernel)
			assert.Equal(t, string(tt.syntax), doc.Syntax)
		})
	}
}

func TestWrite(t *testing.T) {
	r := Report{
		Generated: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Documents: []Document{NewDocument("raster.html", "raster.ipynb", convert.SyntaxPython, testResult(), nil)},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "documents:\n  - input: raster.html\n")
	assert.Contains(t, out, "code_cells: 8")
	assert.Contains(t, out, "manual:\n      - r.mapcalc")
	assert.NotContains(t, out, "error:")
}

func TestWriteFileLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	r := Report{
		Generated: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Documents: []Document{
			NewDocument("raster.html", "raster.ipynb", convert.SyntaxPython, testResult(), nil),
			NewDocument("broken.html", "broken.ipynb", convert.SyntaxPython, nil, errors.New("unclosed block")),
		},
	}
	require.NoError(t, WriteFile(path, r))

	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, r.Generated.Equal(got.Generated))
	require.Len(t, got.Documents, 2)
	assert.Equal(t, r.Documents[0].Stats, got.Documents[0].Stats)
	assert.Equal(t, "unclosed block", got.Documents[1].Error)
}

func TestWriteFileBadPath(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "report.yaml"), Report{})
	assert.ErrorContains(t, err, "create report")
}
