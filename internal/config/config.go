package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/gubarz/tut2nb/internal/convert"
	"github.com/gubarz/tut2nb/internal/parser"
)

// Replacement is a code rewrite rule as written in the config file
type Replacement struct {
	Pattern string `mapstructure:"pattern"`
	Replace string `mapstructure:"replace"`
}

// Config holds the application configuration
type Config struct {
	Lang             string        `mapstructure:"lang"`
	Grass            string        `mapstructure:"grass"`
	GISDBase         string        `mapstructure:"gisdbase"`
	Location         string        `mapstructure:"location"`
	Mapset           string        `mapstructure:"mapset"`
	CodeStart        string        `mapstructure:"code_start"`
	CodeEnd          string        `mapstructure:"code_end"`
	SessionAfterText bool          `mapstructure:"session_after_text"`
	DownloadBaseURL  string        `mapstructure:"download_base_url"`
	DownloadMarker   string        `mapstructure:"download_marker"`
	IgnoredLines     []string      `mapstructure:"ignored_lines"`
	CodeReplacements []Replacement `mapstructure:"code_replacements"`
	OutDir           string        `mapstructure:"out_dir"`
	Jobs             int           `mapstructure:"jobs"`
	LogLevel         string        `mapstructure:"log_level"`
	ColorHeader      string        `mapstructure:"color_header"`
	ColorCode        string        `mapstructure:"color_code"`
	ColorMarkdown    string        `mapstructure:"color_markdown"`
	ColorBorder      string        `mapstructure:"color_border"`
	ColorCursor      string        `mapstructure:"color_cursor"`
	ColorSelected    string        `mapstructure:"color_selected"`
	ColorDim         string        `mapstructure:"color_dim"`
	PreviewOutput    string        `mapstructure:"preview_output"`
	OpenCommand      string        `mapstructure:"open_command"`
}

// C is the global config instance
var C Config

// ErrMissingSession is returned when a session parameter is not set
var ErrMissingSession = errors.New("missing GRASS GIS session parameter")

// Init initializes configuration with viper
func Init() error {
	viper.SetDefault("lang", string(convert.SyntaxPython))
	viper.SetDefault("grass", "grass")
	viper.SetDefault("gisdbase", "")
	viper.SetDefault("location", "")
	viper.SetDefault("mapset", "")
	viper.SetDefault("code_start", parser.DefaultCodeStart)
	viper.SetDefault("code_end", parser.DefaultCodeEnd)
	viper.SetDefault("session_after_text", false)
	viper.SetDefault("download_base_url", convert.DefaultDownloadBaseURL)
	viper.SetDefault("download_marker", convert.DefaultDownloadMarker)
	viper.SetDefault("ignored_lines", []string{`^cd$`, `^cd\s.*`})
	viper.SetDefault("code_replacements", []Replacement{})
	viper.SetDefault("out_dir", ".")
	viper.SetDefault("jobs", 4)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("color_header", "36")   // Cyan
	viper.SetDefault("color_code", "32")     // Green
	viper.SetDefault("color_markdown", "90") // Gray
	viper.SetDefault("color_border", "240")
	viper.SetDefault("color_cursor", "212")
	viper.SetDefault("color_selected", "236")
	viper.SetDefault("color_dim", "241")
	viper.SetDefault("preview_output", "print")
	viper.SetDefault("open_command", "jupyter notebook")

	viper.SetConfigName("tut2nb")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "tut2nb"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("TUT2NB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return viper.Unmarshal(&C)
}

// Options builds validated conversion options from the current settings
func Options() (convert.Options, error) {
	opts := convert.DefaultOptions()

	syntax, err := convert.ParseSyntax(GetLang())
	if err != nil {
		return opts, err
	}
	opts.Syntax = syntax

	opts.Session = convert.Session{
		Grass:    viper.GetString("grass"),
		GISDBase: viper.GetString("gisdbase"),
		Location: viper.GetString("location"),
		Mapset:   viper.GetString("mapset"),
	}
	var missing []string
	for name, value := range map[string]string{
		"gisdbase": opts.Session.GISDBase,
		"location": opts.Session.Location,
		"mapset":   opts.Session.Mapset,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return opts, fmt.Errorf("%w: %s", ErrMissingSession, strings.Join(missing, ", "))
	}

	opts.Tags, err = Tags()
	if err != nil {
		return opts, err
	}
	opts.SessionAfterFirstText = viper.GetBool("session_after_text")
	opts.DownloadBaseURL = viper.GetString("download_base_url")
	opts.DownloadMarker = viper.GetString("download_marker")

	opts.CodeRules, err = codeRules()
	if err != nil {
		return opts, err
	}
	return opts, nil
}

// Tags compiles the configured code block delimiters
func Tags() (parser.Tags, error) {
	return parser.CompileTags(viper.GetString("code_start"), viper.GetString("code_end"))
}

func codeRules() (convert.CodeRules, error) {
	var rules convert.CodeRules
	for _, pattern := range viper.GetStringSlice("ignored_lines") {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return rules, fmt.Errorf("ignored line %q: %w", pattern, err)
		}
		rules.IgnoredLines = append(rules.IgnoredLines, re)
	}

	var replacements []Replacement
	if err := viper.UnmarshalKey("code_replacements", &replacements); err != nil {
		return rules, fmt.Errorf("code replacements: %w", err)
	}
	for _, r := range replacements {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return rules, fmt.Errorf("code replacement %q: %w", r.Pattern, err)
		}
		rules.Replacements = append(rules.Replacements, convert.Replacement{Pattern: re, Replace: r.Replace})
	}
	return rules, nil
}

// GetLang returns the output syntax name
func GetLang() string {
	return viper.GetString("lang")
}

// GetOutDir returns the batch output directory with tilde expansion
func GetOutDir() string {
	return expandTilde(viper.GetString("out_dir"))
}

// GetJobs returns the number of concurrent batch conversions
func GetJobs() int {
	if jobs := viper.GetInt("jobs"); jobs > 0 {
		return jobs
	}
	return 1
}

// GetLogLevel returns the configured log level name
func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetColorHeader returns ANSI color code for headers
func GetColorHeader() string {
	return viper.GetString("color_header")
}

// GetColorCode returns ANSI color code for code cells
func GetColorCode() string {
	return viper.GetString("color_code")
}

// GetColorMarkdown returns ANSI color code for markdown cells
func GetColorMarkdown() string {
	return viper.GetString("color_markdown")
}

// GetColorBorder returns the 256-color code for borders and dividers
func GetColorBorder() string {
	return viper.GetString("color_border")
}

// GetColorCursor returns the 256-color code for the list cursor
func GetColorCursor() string {
	return viper.GetString("color_cursor")
}

// GetColorSelected returns the 256-color code for the selected row background
func GetColorSelected() string {
	return viper.GetString("color_selected")
}

// GetColorDim returns the 256-color code for secondary text
func GetColorDim() string {
	return viper.GetString("color_dim")
}

// GetPreviewOutput returns what preview does with the selected cell
func GetPreviewOutput() string {
	return viper.GetString("preview_output")
}

// GetOpenCommand returns the command line used to open written notebooks
func GetOpenCommand() string {
	return viper.GetString("open_command")
}

// LogLevel parses log_level (debug, info, warn, error)
func LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(GetLogLevel())); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", GetLogLevel(), err)
	}
	return level, nil
}

// SetLogLevel overrides log_level, used by --verbose and --quiet
func SetLogLevel(level string) {
	viper.Set("log_level", level)
	C.LogLevel = level
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
