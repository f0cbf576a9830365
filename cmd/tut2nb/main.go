package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/gubarz/tut2nb/internal/config"
	"github.com/gubarz/tut2nb/internal/convert"
	"github.com/gubarz/tut2nb/internal/executor"
	"github.com/gubarz/tut2nb/internal/notebook"
	"github.com/gubarz/tut2nb/internal/parser"
	"github.com/gubarz/tut2nb/internal/report"
	"github.com/gubarz/tut2nb/internal/ui"
	"github.com/gubarz/tut2nb/internal/watch"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "tut2nb INPUT OUTPUT",
	Short: "Convert HTML tutorials into Jupyter notebooks",
	Long: `Converts an HTML tutorial with GRASS GIS command blocks into a
Jupyter notebook. Commands are translated into GRASS GIS Python API calls
or kept as shell commands, depending on --lang.

OUTPUT may be - to write the notebook to stdout.`,
	Args:         cobra.ExactArgs(2),
	RunE:         runConvert,
	SilenceUsage: true,
}

var batchCmd = &cobra.Command{
	Use:   "batch FILE...",
	Short: "Convert several documents concurrently",
	Long: `Converts every FILE into OUT_DIR/<name>.ipynb. Documents are independent:
a failing document is reported and the others are still written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var blocksCmd = &cobra.Command{
	Use:   "blocks INPUT",
	Short: "Print how a document is split into blocks",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlocks,
}

var previewCmd = &cobra.Command{
	Use:   "preview INPUT",
	Short: "Browse the converted cells interactively",
	Long: `Converts INPUT in memory and opens a searchable cell browser.
Enter prints or copies the selected cell source, esc quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(batchCmd, blocksCmd, previewCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringP("lang", "l", "", "Output syntax: python, python2, bash, bash-cells, pure-bash")
	flags.String("grass", "", "GRASS GIS executable used to start the session")
	flags.String("gisdbase", "", "GRASS GIS database directory")
	flags.String("location", "", "GRASS GIS location")
	flags.String("mapset", "", "GRASS GIS mapset")
	flags.String("code-start", "", "Regular expression matching the line that opens a code block")
	flags.String("code-end", "", "Regular expression matching the line that closes a code block")
	flags.Bool("session-after-first-text", false, "Start the session after the first text block")
	flags.String("report", "", "Write a YAML conversion report to this file")
	flags.BoolP("verbose", "v", false, "Log debug messages")
	flags.BoolP("quiet", "q", false, "Log errors only")

	rootCmd.Flags().Bool("watch", false, "Convert again whenever INPUT changes")
	rootCmd.Flags().Bool("open", false, "Open the written notebook with open_command")

	batchCmd.Flags().StringP("out-dir", "o", "", "Directory the notebooks are written to")
	batchCmd.Flags().IntP("jobs", "j", 0, "Number of documents converted at once")

	previewCmd.Flags().String("output", "", "What enter does with the selected cell: print, copy")
	previewCmd.Flags().String("query", "", "Initial search query")

	viper.BindPFlag("lang", flags.Lookup("lang"))
	viper.BindPFlag("grass", flags.Lookup("grass"))
	viper.BindPFlag("gisdbase", flags.Lookup("gisdbase"))
	viper.BindPFlag("location", flags.Lookup("location"))
	viper.BindPFlag("mapset", flags.Lookup("mapset"))
	viper.BindPFlag("code_start", flags.Lookup("code-start"))
	viper.BindPFlag("code_end", flags.Lookup("code-end"))
	viper.BindPFlag("session_after_text", flags.Lookup("session-after-first-text"))
	viper.BindPFlag("out_dir", batchCmd.Flags().Lookup("out-dir"))
	viper.BindPFlag("jobs", batchCmd.Flags().Lookup("jobs"))
	viper.BindPFlag("preview_output", previewCmd.Flags().Lookup("output"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
}

// newLogger builds the stderr logger. --verbose and --quiet win over log_level.
func newLogger(cmd *cobra.Command) *slog.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		config.SetLogLevel("debug")
	} else if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		config.SetLogLevel("error")
	}
	level, err := config.LogLevel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, using info\n", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// signalContext is cancelled on interrupt so watch and batch stop cleanly
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// convertFile converts input and writes the notebook to output. Nothing is
// written when the conversion fails.
func convertFile(ctx context.Context, opts convert.Options, logger *slog.Logger, input, output string) (*convert.Result, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := convert.NewAssembler(opts, convert.WithLogger(logger.With("input", input))).Convert(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", input, err)
	}
	if err := notebook.WriteFile(output, res.Notebook); err != nil {
		return nil, err
	}
	return res, nil
}

func writeReport(cmd *cobra.Command, docs ...report.Document) error {
	path, _ := cmd.Flags().GetString("report")
	if path == "" {
		return nil
	}
	return report.WriteFile(path, report.Report{Generated: time.Now().UTC(), Documents: docs})
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	opts, err := config.Options()
	if err != nil {
		return err
	}
	ui.RefreshStyles()

	input, output := args[0], args[1]
	ctx, cancel := signalContext()
	defer cancel()

	once := func() error {
		res, err := convertFile(ctx, opts, logger, input, output)
		if rerr := writeReport(cmd, report.NewDocument(input, output, opts.Syntax, res, err)); rerr != nil {
			logger.Error("report not written", "error", rerr)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, ui.RenderSummary(input, output, res.Stats))
		return nil
	}

	if w, _ := cmd.Flags().GetBool("watch"); w {
		if output == "-" {
			return errors.New("--watch needs an output file")
		}
		logger.Info("watching for changes", "file", input)
		return watch.New(input, once, watch.WithLogger(logger)).Run(ctx)
	}

	if err := once(); err != nil {
		return err
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		if output == "-" {
			return errors.New("--open needs an output file")
		}
		return executor.NewExecutor().Open(config.GetOpenCommand(), output)
	}
	return nil
}

// notebookPath maps an input document to its notebook in dir
func notebookPath(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".ipynb")
}

func runBatch(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	opts, err := config.Options()
	if err != nil {
		return err
	}
	ui.RefreshStyles()

	outDir := config.GetOutDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	docs := make([]report.Document, len(args))
	errs := make([]error, len(args))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(config.GetJobs())
	for i, input := range args {
		output := notebookPath(outDir, input)
		g.Go(func() error {
			res, err := convertFile(ctx, opts, logger, input, output)
			docs[i] = report.NewDocument(input, output, opts.Syntax, res, err)
			if err != nil {
				logger.Error("conversion failed", "input", input, "error", err)
				errs[i] = err
				return nil
			}
			fmt.Fprintln(os.Stderr, ui.RenderSummary(input, output, res.Stats))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeReport(cmd, docs...); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func runBlocks(cmd *cobra.Command, args []string) error {
	tags, err := config.Tags()
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	return parser.NewSplitter(tags).Split(f, parser.NewTracer(cmd.OutOrStdout()))
}

func runPreview(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	opts, err := config.Options()
	if err != nil {
		return err
	}
	mode, err := executor.ParseOutputMode(config.GetPreviewOutput())
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := convert.NewAssembler(opts, convert.WithLogger(logger)).Convert(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("convert %s: %w", args[0], err)
	}

	query, _ := cmd.Flags().GetString("query")
	return ui.RunTUI(res.Notebook, executor.NewExecutor(), mode, query)
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
