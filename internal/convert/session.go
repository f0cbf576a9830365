package convert

import (
	"fmt"
	"strings"

	"github.com/gubarz/tut2nb/internal/notebook"
)

// Session holds the GRASS GIS session parameters
type Session struct {
	Grass    string // GRASS GIS executable
	GISDBase string // GRASS GIS database directory
	Location string
	Mapset   string
}

const introductionCode = `# This is a quick introduction into Jupyter Notebook.
# Python code can be executed like this:
a = 6
b = 7
c = a * b
print("Answer is", c)
# Python code can be mixed with command line code (Bash).
# It is enough just to prefix the command line with an exclamation mark:
!echo "Answer is $c"
# Use Shift+Enter to execute this cell. The result is below.`

// Arguments: executable, extra check_output arguments, gisdbase, location, mapset
const startCode = `import os
import sys
import subprocess
from IPython.display import Image

# create GRASS GIS runtime environment
gisbase = subprocess.check_output(["%s", "--config", "path"]%s).strip()
os.environ['GISBASE'] = gisbase
sys.path.append(os.path.join(gisbase, "etc", "python"))

# do GRASS GIS imports
import grass.script as gs
import grass.script.setup as gsetup

# set GRASS GIS session data
rcfile = gsetup.init(gisbase, "%s", "%s", "%s")`

const settingsCode = `# default font displays
os.environ['GRASS_FONT'] = 'sans'
# overwrite existing maps
os.environ['GRASS_OVERWRITE'] = '1'
gs.set_raise_on_error(True)
gs.set_capture_stderr(True)`

const displayCode = `# set display modules to render into a file (named map.png by default)
os.environ['GRASS_RENDER_IMMEDIATE'] = 'cairo'
os.environ['GRASS_RENDER_FILE_READ'] = 'TRUE'
os.environ['GRASS_LEGEND_FILE'] = 'legend.txt'`

const endSessionCode = "# end the GRASS session\nos.remove(rcfile)"

const pythonInitPrefix = "# using Python to initialize GRASS GIS\n"

// SessionCells returns the bootstrap cells: introduction, runtime
// environment, settings and display mode.
func SessionCells(s Session, syntax Syntax) []notebook.Cell {
	extra := ", text=True"
	if syntax == SyntaxPython2 {
		extra = ""
	}
	sources := []string{
		introductionCode,
		fmt.Sprintf(startCode, s.Grass, extra, s.GISDBase, s.Location, s.Mapset),
		settingsCode,
		displayCode,
	}

	cells := make([]notebook.Cell, 0, len(sources))
	for _, source := range sources {
		// TODO: bash kernels need the environment variables exported in bash as well
		if !syntax.Translates() {
			source = pythonInitPrefix + source
		}
		cells = append(cells, notebook.NewCodeCell(source))
	}
	return cells
}

// EndSessionCell removes the session rc file
func EndSessionCell() notebook.Cell {
	return notebook.NewCodeCell(endSessionCode)
}

// DownloadCell fetches every url into the working directory
func DownloadCell(urls []string, syntax Syntax) notebook.Cell {
	var b strings.Builder
	b.WriteString("# a proper directory is already set, download files\n")
	retrieve := "urllib.request.urlretrieve"
	if syntax == SyntaxPython2 {
		b.WriteString("import urllib\n")
		retrieve = "urllib.urlretrieve"
	} else {
		b.WriteString("import urllib.request\n")
	}
	for _, url := range urls {
		name := url[strings.LastIndex(url, "/")+1:]
		fmt.Fprintf(&b, "%s(\"%s\", \"%s\")\n", retrieve, url, name)
	}
	return notebook.NewCodeCell(strings.TrimSpace(b.String()))
}
