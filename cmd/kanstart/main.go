package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/evanschultz/kanstart/internal/adapters/storage/sqlite"
	"github.com/evanschultz/kanstart/internal/app"
	"github.com/evanschultz/kanstart/internal/config"
	"github.com/evanschultz/kanstart/internal/localize"
	"github.com/evanschultz/kanstart/internal/onboarding"
	"github.com/evanschultz/kanstart/internal/platform"
	"github.com/evanschultz/kanstart/internal/replay"
	"github.com/evanschultz/kanstart/internal/telemetry"
	"github.com/evanschultz/kanstart/internal/template"
	"github.com/evanschultz/kanstart/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// telemetryShutdownTimeout bounds the final metric flush.
const telemetryShutdownTimeout = 2 * time.Second

// errNoTerminal is returned when the TUI is started without a terminal.
var errNoTerminal = errors.New("kanstart needs an interactive terminal (use `kanstart replay` for scripted runs)")

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// stdinIsTerminal reports whether stdin is attached to a terminal.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// main handles main.
func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version), fang.WithoutManpage()); err != nil {
		os.Exit(1)
	}
}

// run executes the command tree with explicit args and writers.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// globalOptions holds flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// newRootCommand builds the kanstart command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{
		appName: platform.DefaultAppName,
		devMode: version == "dev",
	}
	if envDev, ok := parseBoolEnv("KANSTART_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("KANSTART_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	var templateName string
	root := &cobra.Command{
		Use:           "kanstart",
		Short:         "Walk through naming a first board, its lists, and its cards",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, templateName, stderr)
		},
	}
	root.SetVersionTemplate("kanstart {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	root.Flags().StringVar(&templateName, "template", "", "start onboarding with this template instead of the picker")

	root.AddCommand(
		newTemplatesCommand(opts, stdout, stderr),
		newBoardsCommand(opts, stdout, stderr),
		newReplayCommand(opts, stdout, stderr),
		newPathsCommand(opts, stdout),
	)
	return root
}

// newTemplatesCommand lists the starter templates.
func newTemplatesCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List starter templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.resolve(stderr)
			if err != nil {
				return err
			}
			defer env.close(stderr)

			t := newTable("TEMPLATE", "NAME", "BOARD", "LISTS", "CARDS", "BACKGROUND")
			for _, tpl := range env.provider.Templates() {
				t.Row(
					string(tpl.Type),
					tpl.Name,
					tpl.Board.Name(),
					strconv.Itoa(len(tpl.Board.Lists)),
					strconv.Itoa(tpl.Board.CardCount()),
					tpl.Board.Background.String(),
				)
			}
			_, err = fmt.Fprintln(stdout, t.String())
			return err
		},
	}
}

// newBoardsCommand lists stored boards.
func newBoardsCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List boards created by onboarding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.resolve(stderr)
			if err != nil {
				return err
			}
			defer env.close(stderr)
			svc, err := env.openService()
			if err != nil {
				return err
			}

			boards, err := svc.ListBoards(cmd.Context())
			if err != nil {
				env.logger.Error("list boards failed", "err", err)
				return fmt.Errorf("list boards: %w", err)
			}
			if len(boards) == 0 {
				_, err = fmt.Fprintln(stdout, "no boards yet")
				return err
			}
			t := newTable("ID", "NAME", "TEMPLATE", "BACKGROUND", "CREATED")
			for _, b := range boards {
				t.Row(b.ID, b.Name, b.Template, b.Background, b.CreatedAt.Local().Format(time.DateTime))
			}
			_, err = fmt.Fprintln(stdout, t.String())
			return err
		},
	}
}

// newReplayCommand drives a YAML event script through a headless session.
func newReplayCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var persist bool
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay an onboarding event script without a terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := opts.resolve(stderr)
			if err != nil {
				return err
			}
			defer env.close(stderr)

			script, err := replay.Load(args[0])
			if err != nil {
				return err
			}
			tp, err := env.startTelemetry(ctx, stderr)
			if err != nil {
				return err
			}
			defer env.shutdownTelemetry(tp)

			kind, err := template.ParseType(script.Template)
			if err != nil {
				return err
			}
			env.logger.Info("replay start", "script", args[0], "template", kind, "events", len(script.Events))
			res, err := replay.Run(ctx, script, replay.Options{
				Provider: &env.provider,
				Limits:   env.limits(),
				Recorder: recorderFactory(tp, env.logger)(kind),
				Logger:   env.logger.primary(),
			})
			if err != nil {
				env.logger.Error("replay failed", "script", args[0], "err", err)
				return fmt.Errorf("replay %s: %w", args[0], err)
			}
			if err := writeReplay(stdout, res); err != nil {
				return err
			}
			if !persist || res.Board == nil {
				return nil
			}

			svc, err := env.openService()
			if err != nil {
				return err
			}
			tree, err := svc.Consume(ctx, res.Template, res.Completed)
			if err != nil {
				return fmt.Errorf("store replayed board: %w", err)
			}
			_, err = fmt.Fprintf(stdout, "saved board %s\n", tree.Board.ID)
			return err
		},
	}
	cmd.Flags().BoolVar(&persist, "persist", false, "store the completed board in the database")
	return cmd
}

// newPathsCommand prints resolved runtime paths.
func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print config, data, and log paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.paths()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "catalog: %s\n", paths.CatalogPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// runTUI runs the interactive onboarding program.
func runTUI(ctx context.Context, opts *globalOptions, templateName string, stderr io.Writer) error {
	var kind template.Type
	if strings.TrimSpace(templateName) != "" {
		parsed, err := template.ParseType(templateName)
		if err != nil {
			return err
		}
		kind = parsed
	}
	if !stdinIsTerminal() {
		return errNoTerminal
	}

	env, err := opts.resolve(stderr)
	if err != nil {
		return err
	}
	defer env.close(stderr)
	// Keep TUI rendering clean: runtime logs stay in the dev-file sink while onboarding is active.
	env.logger.SetConsoleEnabled(false)

	svc, err := env.openService()
	if err != nil {
		return err
	}
	tp, err := env.startTelemetry(ctx, env.logger.FileWriter())
	if err != nil {
		return err
	}
	defer env.shutdownTelemetry(tp)

	modelOpts := []tui.Option{
		tui.WithProvider(env.provider),
		tui.WithLimits(env.limits()),
		tui.WithLayout(tui.LayoutConfig{
			GridUnit:            env.cfg.Layout.GridUnit,
			OverlayRegularWidth: env.cfg.Layout.OverlayRegularWidth,
			CompactBreakpoint:   env.cfg.Layout.CompactBreakpoint,
			KeyboardRows:        env.cfg.Layout.KeyboardRows,
		}),
		tui.WithKeyConfig(tui.KeyConfig{
			OverlayGo:   env.cfg.Keys.OverlayGo,
			OverlaySkip: env.cfg.Keys.OverlaySkip,
			RightNav:    env.cfg.Keys.RightNav,
			SkipToBoard: env.cfg.Keys.SkipToBoard,
		}),
		tui.WithLogger(env.logger.primary()),
		tui.WithRecorderFactory(recorderFactory(tp, env.logger)),
	}
	if kind != "" {
		modelOpts = append(modelOpts, tui.WithTemplate(kind))
	}

	env.logger.Info("command flow start", "command", "tui", "template", kind)
	if _, err := programFactory(tui.NewModel(svc, modelOpts...)).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

// appEnv holds the resolved configuration and shared runtime resources of one command.
type appEnv struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	provider   template.Provider
	repo       *sqlite.Repository
}

// paths resolves platform paths for the selected app name and mode.
func (o *globalOptions) paths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// resolve loads config, logging, and localization for a command.
func (o *globalOptions) resolve(stderr io.Writer) (*appEnv, error) {
	paths, err := o.paths()
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(o.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("KANSTART_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(o.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("KANSTART_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, o.appName, o.devMode, cfg.Logging, paths.LogDir, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	logger.Debug("configuration loaded", "config_path", configPath, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}

	catalogPath := strings.TrimSpace(cfg.Localization.Catalog)
	if catalogPath == "" {
		catalogPath = paths.CatalogPath
	}
	catalog, err := localize.Load(catalogPath)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("load string catalog %q: %w", catalogPath, err)
	}
	logger.Debug("string catalog loaded", "path", catalogPath, "entries", catalog.Len())

	return &appEnv{
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		provider:   template.NewProvider(catalog),
	}, nil
}

// openService opens the sqlite repository and wraps it in the board service.
func (e *appEnv) openService() (*app.Service, error) {
	e.logger.Info("opening sqlite repository", "db_path", e.cfg.Database.Path)
	repo, err := sqlite.Open(e.cfg.Database.Path)
	if err != nil {
		e.logger.Error("sqlite open failed", "db_path", e.cfg.Database.Path, "err", err)
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	e.repo = repo
	return app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		Provider: &e.provider,
		Logger:   e.logger.primary(),
	}), nil
}

// limits returns validation limits from config.
func (e *appEnv) limits() onboarding.Limits {
	return onboarding.Limits{
		MaxChars: e.cfg.Onboarding.MaxChars,
		Debounce: e.cfg.Onboarding.Debounce(),
	}
}

// startTelemetry builds the meter provider configured for this run.
func (e *appEnv) startTelemetry(ctx context.Context, out io.Writer) (*telemetry.Provider, error) {
	tp, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:  e.cfg.Telemetry.Enabled,
		Stdout:   e.cfg.Telemetry.Stdout,
		Interval: e.cfg.Telemetry.Interval(),
		Version:  version,
	}, out)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	return tp, nil
}

// shutdownTelemetry flushes pending metrics.
func (e *appEnv) shutdownTelemetry(tp *telemetry.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		e.logger.Warn("telemetry shutdown failed", "err", err)
	}
}

// close releases the repository and log sinks.
func (e *appEnv) close(stderr io.Writer) {
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Warn("sqlite close failed", "db_path", e.cfg.Database.Path, "err", err)
		}
	}
	if err := e.logger.Close(); err != nil && e.logger.shouldLogToSink(e.logger.consoleSink) {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// recorderFactory builds one analytics recorder per onboarding session.
func recorderFactory(tp *telemetry.Provider, logger *runtimeLogger) func(template.Type) onboarding.Recorder {
	return func(kind template.Type) onboarding.Recorder {
		rec, err := telemetry.NewRecorder(tp.Meter(), kind)
		if err != nil {
			logger.Warn("analytics recorder unavailable", "template", kind, "err", err)
			return nil
		}
		return rec
	}
}

// writeReplay prints replay transitions and the completed board.
func writeReplay(w io.Writer, res replay.Result) error {
	t := newTable("#", "EVENT", "FLOW", "OVERLAY")
	for _, tr := range res.Transitions {
		t.Row(strconv.Itoa(tr.Index), tr.Event, tr.Flow.String(), tr.Overlay.String())
	}
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	if res.Board == nil {
		_, err := fmt.Fprintf(w, "flow stopped at %s before the board was created\n", res.Outputs.FlowStep)
		return err
	}
	if _, err := fmt.Fprintf(w, "board: %s\n", res.Board.Name()); err != nil {
		return err
	}
	for _, l := range res.Board.Lists {
		cards := make([]string, 0, len(l.Cards))
		for _, c := range l.Cards {
			cards = append(cards, c.DisplayName())
		}
		if _, err := fmt.Fprintf(w, "  %s: %s\n", l.Name(), strings.Join(cards, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// newTable returns a bordered table with a bold header row.
func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
