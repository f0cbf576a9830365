package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotebookPath(t *testing.T) {
	tests := []struct {
		name  string
		dir   string
		input string
		want  string
	}{
		{"html", "out", "tutorials/raster.html", filepath.Join("out", "raster.ipynb")},
		{"no extension", "out", "vector", filepath.Join("out", "vector.ipynb")},
		{"dots in name", ".", "a/grass.intro.htm", "grass.intro.ipynb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notebookPath(tt.dir, tt.input))
		})
	}
}
