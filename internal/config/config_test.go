package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/tut2nb/internal/convert"
)

// setup isolates viper and points the home directory at a temp dir holding
// the given config file content.
func setup(t *testing.T, yaml string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	home := t.TempDir()
	t.Setenv("HOME", home)
	if yaml != "" {
		dir := filepath.Join(home, ".config", "tut2nb")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tut2nb.yaml"), []byte(yaml), 0o644))
	}
	require.NoError(t, Init())
}

func TestOptionsFromFile(t *testing.T) {
	setup(t, `
lang: bash-cells
grass: grass78
gisdbase: /data/grassdata
location: nc_spm_08_grass7
mapset: user1
session_after_text: true
code_start: '^<pre class="code"><code>$'
ignored_lines:
  - '^cd\s.*'
  - '^d\.mon'
code_replacements:
  - pattern: 'd\.mon wx.'
    replace: 'd.mon cairo'
`)

	opts, err := Options()
	require.NoError(t, err)
	assert.Equal(t, convert.SyntaxCellMagic, opts.Syntax)
	assert.Equal(t, convert.Session{
		Grass:    "grass78",
		GISDBase: "/data/grassdata",
		Location: "nc_spm_08_grass7",
		Mapset:   "user1",
	}, opts.Session)
	assert.True(t, opts.SessionAfterFirstText)
	assert.True(t, opts.Tags.CodeStart.MatchString(`<pre class="code"><code>`))
	assert.True(t, opts.Tags.CodeEnd.MatchString(`</code></pre>`))
	require.Len(t, opts.CodeRules.IgnoredLines, 2)
	assert.True(t, opts.CodeRules.IgnoredLines[1].MatchString("d.mon wx0"))
	require.Len(t, opts.CodeRules.Replacements, 1)
	assert.Equal(t, "d.mon cairo", opts.CodeRules.Replacements[0].Replace)
	assert.Equal(t, convert.DefaultDownloadMarker, opts.DownloadMarker)

	assert.Equal(t, "grass78", C.Grass)
}

func TestOptionsDefaults(t *testing.T) {
	setup(t, "")
	t.Setenv("TUT2NB_GISDBASE", "/data")
	t.Setenv("TUT2NB_LOCATION", "nc")
	t.Setenv("TUT2NB_MAPSET", "PERMANENT")

	opts, err := Options()
	require.NoError(t, err)
	assert.Equal(t, convert.SyntaxPython, opts.Syntax)
	assert.Equal(t, "grass", opts.Session.Grass)
	assert.Equal(t, "PERMANENT", opts.Session.Mapset)
	assert.Equal(t, convert.DefaultDownloadBaseURL, opts.DownloadBaseURL)
	require.Len(t, opts.CodeRules.IgnoredLines, 2)
	assert.True(t, opts.CodeRules.IgnoredLines[0].MatchString("cd"))
	assert.False(t, opts.CodeRules.IgnoredLines[1].MatchString("cdo"))
	assert.Empty(t, opts.CodeRules.Replacements)
	assert.Equal(t, 4, GetJobs())
}

func TestOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing session",
			yaml: "location: nc\n",
			want: "missing GRASS GIS session parameter: gisdbase, mapset",
		},
		{
			name: "unknown lang",
			yaml: "lang: perl\ngisdbase: /d\nlocation: l\nmapset: m\n",
			want: `requested output syntax not recognized: "perl"`,
		},
		{
			name: "bad code tag",
			yaml: "gisdbase: /d\nlocation: l\nmapset: m\ncode_end: '^(</pre>'\n",
			want: "code end",
		},
		{
			name: "bad ignored line",
			yaml: "gisdbase: /d\nlocation: l\nmapset: m\nignored_lines: ['[']\n",
			want: `ignored line "["`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t, tt.yaml)
			_, err := Options()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMalformedConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "tut2nb.yaml"), []byte("lang: [python"), 0o644))
	assert.Error(t, Init())
}

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, "notebooks"), expandTilde("~/notebooks"))
	assert.Equal(t, "/abs", expandTilde("/abs"))
	assert.Equal(t, "", expandTilde(""))
}

func TestLogLevel(t *testing.T) {
	setup(t, "log_level: warn\n")

	level, err := LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	SetLogLevel("debug")
	assert.Equal(t, "debug", C.LogLevel)
	level, err = LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	SetLogLevel("loud")
	level, err = LogLevel()
	assert.ErrorContains(t, err, `log level "loud"`)
	assert.Equal(t, slog.LevelInfo, level)
}
