package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/tut2nb/internal/notebook"
)

func TestSessionCells(t *testing.T) {
	cells := SessionCells(testSession, SyntaxPython)
	require.Len(t, cells, 4)
	for _, c := range cells {
		assert.Equal(t, notebook.Code, c.Kind)
		assert.False(t, strings.HasSuffix(c.Source, "\n"))
	}
	assert.True(t, strings.HasPrefix(cells[0].Source, "# This is a quick introduction into Jupyter Notebook."))
	assert.Contains(t, cells[1].Source, `subprocess.check_output(["grass78", "--config", "path"], text=True).strip()`)
	assert.Contains(t, cells[1].Source, `rcfile = gsetup.init(gisbase, "/data", "nc_spm", "user1")`)
	assert.Contains(t, cells[2].Source, "gs.set_raise_on_error(True)")
	assert.Contains(t, cells[3].Source, "GRASS_RENDER_IMMEDIATE")

	py2 := SessionCells(testSession, SyntaxPython2)
	assert.Contains(t, py2[1].Source, `subprocess.check_output(["grass78", "--config", "path"]).strip()`)

	for _, syntax := range []Syntax{SyntaxExclamation, SyntaxCellMagic, SyntaxPure} {
		for i, c := range SessionCells(testSession, syntax) {
			assert.True(t, strings.HasPrefix(c.Source, pythonInitPrefix), "%s cell %d", syntax, i)
		}
	}
}

func TestEndSessionCell(t *testing.T) {
	assert.Equal(t, notebook.NewCodeCell("# end the GRASS session\nos.remove(rcfile)"), EndSessionCell())
}

func TestDownloadCell(t *testing.T) {
	urls := []string{"http://example.org/data/a.txt", "http://example.org/data/b.csv"}

	assert.Equal(t, "# a proper directory is already set, download files\n"+
		"import urllib.request\n"+
		`urllib.request.urlretrieve("http://example.org/data/a.txt", "a.txt")`+"\n"+
		`urllib.request.urlretrieve("http://example.org/data/b.csv", "b.csv")`,
		DownloadCell(urls, SyntaxPython).Source)

	assert.Equal(t, "# a proper directory is already set, download files\n"+
		"import urllib\n"+
		`urllib.urlretrieve("http://example.org/data/a.txt", "a.txt")`+"\n"+
		`urllib.urlretrieve("http://example.org/data/b.csv", "b.csv")`,
		DownloadCell(urls, SyntaxPython2).Source)
}

func TestParseSyntax(t *testing.T) {
	for _, s := range Syntaxes {
		got, err := ParseSyntax(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSyntax("perl")
	assert.Error(t, err)

	assert.True(t, SyntaxPython2.Translates())
	assert.False(t, SyntaxCellMagic.Translates())
	assert.Equal(t, notebook.Python2, SyntaxPython2.Kernel())
	assert.Equal(t, notebook.Python3, SyntaxPure.Kernel())
}
