// Package main provides the CLI entrypoint for tabprompt.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tabprompt/internal/bridge/httpbridge"
	"github.com/verte-zerg/tabprompt/internal/clock"
	"github.com/verte-zerg/tabprompt/internal/config"
	"github.com/verte-zerg/tabprompt/internal/fragment"
	"github.com/verte-zerg/tabprompt/internal/library"
	"github.com/verte-zerg/tabprompt/internal/logs"
	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/store"
	"github.com/verte-zerg/tabprompt/internal/throttle"
	"github.com/verte-zerg/tabprompt/internal/tui"
)

const (
	defaultWidthCols = 48
	defaultListen    = "127.0.0.1:8787"
	defaultLogLevel  = "info"
	shutdownTimeout  = 5 * time.Second
)

var (
	flagLines    int
	flagTempo    int
	flagThrottle int
	flagWidth    int
	flagDirs     []string
	flagDB       string
	flagLogLevel string
	flagLogFile  string

	serveListen string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tabprompt [files...]",
		Short:         "Tab teleprompter for head-worn displays",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPromptCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&flagLines, "lines", fragment.DefaultLinesPerWindow, "lines per display window")
	flags.IntVar(&flagTempo, "tempo", model.DefaultTempo, "default tempo in BPM")
	flags.IntVar(&flagThrottle, "throttle-ms", int(throttle.DefaultWindow/time.Millisecond), "minimum spacing of display updates in milliseconds")
	flags.IntVar(&flagWidth, "width", defaultWidthCols, "display width in character cells")
	flags.StringSliceVar(&flagDirs, "dir", nil, "directory of tab files to load (repeatable)")
	flags.StringVar(&flagDB, "db", "", "library database path")
	flags.StringVar(&flagLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&flagLogFile, "log-file", "", "log file path")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newFragmentCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// resolveConfig merges the config file under any flags the user did not set.
func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "lines", &flagLines, fileCfg.Display.LinesPerWindow)
	applyIntConfig(cmd, "throttle-ms", &flagThrottle, fileCfg.Display.ThrottleMs)
	applyIntConfig(cmd, "width", &flagWidth, fileCfg.Display.WidthCols)
	applyIntConfig(cmd, "tempo", &flagTempo, fileCfg.Playback.Tempo)
	applyStringSliceConfig(cmd, "dir", &flagDirs, fileCfg.Library.Dirs)
	applyStringConfig(cmd, "db", &flagDB, fileCfg.Library.DB)
	applyStringConfig(cmd, "log-level", &flagLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &flagLogFile, fileCfg.Log.File)
	if cmd.Flags().Lookup("listen") != nil {
		applyStringConfig(cmd, "listen", &serveListen, fileCfg.Bridge.Listen)
	}

	cfg := model.Config{
		LinesPerWindow: flagLines,
		ThrottleWindow: time.Duration(flagThrottle) * time.Millisecond,
		WidthCols:      flagWidth,
		Tempo:          flagTempo,
		LibraryDirs:    flagDirs,
		LibraryDB:      flagDB,
		BridgeListen:   serveListen,
		LogLevel:       flagLogLevel,
		LogFile:        flagLogFile,
	}
	if cfg.LibraryDB == "" {
		cfg.LibraryDB = config.DefaultDBPath()
	}
	if cfg.LogFile == "" {
		cfg.LogFile = config.DefaultLogPath()
	}
	if len(cfg.LibraryDirs) == 0 {
		if info, err := os.Stat(config.DefaultTabDir()); err == nil && info.IsDir() {
			cfg.LibraryDirs = []string{config.DefaultTabDir()}
		}
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func runPromptCmd(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tabprompt needs a terminal; use 'tabprompt serve' to run headless")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	// The TUI owns the terminal, so records only go to the log file.
	logger, closer, err := logs.New(logs.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closeLog(closer)

	ctx := context.Background()
	a, err := startApp(ctx, cfg, args, logger, clock.Real{})
	if err != nil {
		return err
	}
	defer a.Close()

	ui := tui.NewModel(a.session, a.device, tui.Options{
		WidthCols: cfg.WidthCols,
		Rows:      cfg.LinesPerWindow,
		Display:   a.display,
	})
	defer ui.Close()
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [files...]",
		Short: "Run headless with an HTTP device bridge",
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveListen, "listen", defaultListen, "HTTP bridge listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := logs.New(logs.Options{Level: cfg.LogLevel, Console: os.Stderr, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closeLog(closer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := startApp(ctx, cfg, args, logger, clock.Real{})
	if err != nil {
		return err
	}
	defer a.Close()

	ln, err := net.Listen("tcp", cfg.BridgeListen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.BridgeListen, err)
	}
	srv := &http.Server{
		Handler:           httpbridge.NewRouter(a.device, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	logger.Info("device bridge listening", "addr", ln.Addr().String(), "documents", len(a.session.Snapshot().Catalog))

	select {
	case <-ctx.Done():
		logger.Info("interrupted; shutting down")
	case <-a.device.Done():
		logger.Info("display closed; shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("device bridge failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("device bridge shutdown failed", "error", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <files...>",
		Short: "Parse tab files and store them in the library",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.LibraryDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	docs, err := library.Import(cmd.Context(), st, args)
	for _, doc := range docs {
		if _, werr := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s - %s\n", doc.ID, doc.Title, doc.Artist); werr != nil {
			return fmt.Errorf("failed to write output: %w", werr)
		}
	}
	return err
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List library documents",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := logs.New(logs.Options{Level: cfg.LogLevel, Console: os.Stderr})
	if err != nil {
		return err
	}
	defer closeLog(closer)

	st, err := store.Open(cfg.LibraryDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	docs, err := library.Catalog(cmd.Context(), library.Sources{Store: st, Dirs: cfg.LibraryDirs}, logger)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		logErrln("No tabs found. Import with: tabprompt import <files...>")
		return nil
	}
	return writeDocuments(cmd.OutOrStdout(), docs)
}

func newFragmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fragment <file>",
		Short: "Print the display windows of a tab file",
		Args:  cobra.ExactArgs(1),
		RunE:  runFragmentCmd,
	}
}

func runFragmentCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	doc, err := library.LoadFile(args[0])
	if err != nil {
		return err
	}
	return writeWindows(cmd.OutOrStdout(), fragment.Windows(doc.Content, cfg.LinesPerWindow))
}

func writeWindows(w io.Writer, windows []string) error {
	for i, win := range windows {
		if _, err := fmt.Fprintf(w, "--- window %d/%d ---\n%s\n", i+1, len(windows), win); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tabprompt configuration
# Uncomment a value to enable it. CLI flags override config values.

[display]
# lines-per-window = %d   # Lines of tab per display window
# throttle-ms = %d       # Minimum spacing of display updates
# width-cols = %d         # Display width in character cells

[playback]
# tempo = %d             # Default tempo in BPM (%d-%d)

[library]
# dirs = [%q]
# db = %q

[bridge]
# listen = %q

[log]
# level = %q
# file = %q
`,
		fragment.DefaultLinesPerWindow,
		int(throttle.DefaultWindow/time.Millisecond),
		defaultWidthCols,
		model.DefaultTempo,
		model.MinTempo,
		model.MaxTempo,
		config.DefaultTabDir(),
		config.DefaultDBPath(),
		defaultListen,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.LinesPerWindow <= 0 {
		return fmt.Errorf("--lines must be > 0")
	}
	if cfg.Tempo < model.MinTempo || cfg.Tempo > model.MaxTempo {
		return fmt.Errorf("--tempo must be between %d and %d", model.MinTempo, model.MaxTempo)
	}
	if cfg.ThrottleWindow < 0 {
		return fmt.Errorf("--throttle-ms must be >= 0")
	}
	if cfg.WidthCols <= 0 {
		return fmt.Errorf("--width must be > 0")
	}
	if _, err := logs.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	return nil
}

func closeLog(c io.Closer) {
	if err := c.Close(); err != nil {
		logErrf("failed to close log: %v\n", err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
