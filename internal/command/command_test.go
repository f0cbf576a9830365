package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		options    []Option
		flags      string
		longFlags  []string
		positional string
	}{
		{
			name:    "options keep order",
			line:    "g.region raster=elevation res=10 align=elevation",
			options: []Option{{"raster", "elevation"}, {"res", "10"}, {"align", "elevation"}},
		},
		{
			name:    "value keeps embedded equals",
			line:    `r.mapcalc expression="slope_deg = slope * 2"`,
			options: []Option{{"expression", "slope_deg = slope * 2"}},
		},
		{
			name:  "concatenated short flags",
			line:  "g.region -ap",
			flags: "ap",
		},
		{
			name:  "separate short flags accumulate",
			line:  "g.region -a -p",
			flags: "ap",
		},
		{
			name:      "long flags",
			line:      "r.slope.aspect elevation=elevation slope=slope --overwrite --quiet",
			options:   []Option{{"elevation", "elevation"}, {"slope", "slope"}},
			longFlags: []string{"overwrite", "quiet"},
		},
		{
			name:       "positional before options",
			line:       "d.rast elevation values=100-200",
			options:    []Option{{"values", "100-200"}},
			positional: "elevation",
		},
		{
			name:       "bare token after option is dropped",
			line:       "d.rast map=elevation landuse",
			options:    []Option{{"map", "elevation"}},
			positional: "",
		},
		{
			name:       "last bare token before options wins",
			line:       "d.vect roads streams",
			positional: "streams",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Tokenize(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.line, cmd.Original)
			assert.Equal(t, tt.options, cmd.Options)
			assert.Equal(t, tt.flags, cmd.Flags)
			assert.Equal(t, tt.longFlags, cmd.LongFlags)
			assert.Equal(t, tt.positional, cmd.Positional)
		})
	}
}

func TestTokenizeMalformed(t *testing.T) {
	for _, line := range []string{`r.mapcalc "a = b`, `echo 'open`, "   "} {
		t.Run(line, func(t *testing.T) {
			_, err := Tokenize(line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedCommand))

			var malformed *MalformedCommandError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, line, malformed.Text)
		})
	}
}

func TestTokenizeOptionsRoundTrip(t *testing.T) {
	line := "v.buffer input=roads output=roads_buf distance=100 type=line"
	cmd, err := Tokenize(line)
	require.NoError(t, err)

	parts := []string{cmd.Name}
	for _, opt := range cmd.Options {
		parts = append(parts, opt.Key+"="+opt.Value)
	}
	assert.Equal(t, line, strings.Join(parts, " "))
}

func TestCommandHelpers(t *testing.T) {
	cmd, err := Tokenize("r.stats -c input=landuse out=stats.txt")
	require.NoError(t, err)

	assert.True(t, cmd.UsesOption("input"))
	assert.False(t, cmd.UsesOption("output"))
	assert.True(t, cmd.UsesAnyOption("output", "out"))
	assert.True(t, cmd.HasFlag('c'))
	assert.False(t, cmd.HasFlag('g'))
	assert.True(t, cmd.HasPrefix("d.", "r."))
	assert.Equal(t, "r.stats", Name("  r.stats -c input=landuse"))
	assert.Equal(t, "", Name(""))
}
