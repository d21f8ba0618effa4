package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/agent"
	"github.com/desertthunder/stasher/internal/repositories"
	"github.com/desertthunder/stasher/internal/services"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/desertthunder/stasher/internal/tasks"
	"github.com/desertthunder/stasher/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Prompt asks the user a yes/no question.
type Prompt func(ctx context.Context, question string, def bool) (bool, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil are built from the configuration on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	store      *repositories.Store
	closeStore func() error
	remote     tasks.Remote
	stasher    tasks.Stasher
	planner    agent.Planner
	prompt     Prompt
	pacer      tasks.Pacer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Store      *repositories.Store
	Remote     tasks.Remote
	Stasher    tasks.Stasher
	Planner    agent.Planner
	Prompt     Prompt
	Pacer      tasks.Pacer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     &lockedWriter{w: opts.Output},
		input:      opts.Input,
		store:      opts.Store,
		remote:     opts.Remote,
		stasher:    opts.Stasher,
		planner:    opts.Planner,
		prompt:     opts.Prompt,
		pacer:      opts.Pacer,
	}
	if r.prompt == nil {
		r.prompt = func(ctx context.Context, question string, def bool) (bool, error) {
			return ui.Confirm(ctx, r.input, r.output, question, def)
		}
	}
	return r
}

// lockedWriter serializes writes from progress goroutines and the command itself.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (r *Runner) globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

// Before loads the configuration named by --config when it exists.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return ctx, nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// After closes the store if a command opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.closeStore != nil {
		err := r.closeStore()
		r.closeStore = nil
		return err
	}
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistCommand, stashCommand, agentCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStore returns the store, opening and migrating the configured database on first use.
func (r *Runner) openStore() (*repositories.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	db, err := shared.OpenStore(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.store = repositories.NewStore(db)
	r.closeStore = db.Close
	return r.store, nil
}

func (r *Runner) credentials() (*services.OAuthCredentials, error) {
	yt := r.config.Credentials.YouTube
	redirect := fmt.Sprintf("http://%s:%d/callback", r.config.Server.Host, r.config.Server.Port)
	return services.NewOAuthCredentials(yt.ClientSecretsFile, yt.TokenPath, redirect)
}

// youtube returns the quota-aware API client, authorizing with the cached token on first use.
func (r *Runner) youtube(ctx context.Context) (tasks.Remote, error) {
	if r.remote != nil {
		return r.remote, nil
	}

	creds, err := r.credentials()
	if err != nil {
		return nil, err
	}
	httpClient, err := creds.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewYouTubeService(ctx, httpClient, "")
	if err != nil {
		return nil, err
	}

	q := r.config.Quota
	retry := services.DefaultRetryPolicy()
	if q.MaxRetries > 0 {
		retry.MaxRetries = q.MaxRetries
	}
	if q.BackoffBase > 0 {
		retry.Base = q.BackoffBase
	}
	if q.JitterFraction >= 0 {
		retry.JitterFraction = q.JitterFraction
	}

	limit := rate.Inf
	if q.RequestsPerSecond > 0 {
		limit = rate.Limit(q.RequestsPerSecond)
	}

	r.remote = services.NewClient(svc, services.ClientOpts{
		Quota:   services.NewQuotaLedger(q.DailyLimit, q.WarningThreshold, r.logger),
		Retry:   &retry,
		Limiter: rate.NewLimiter(limit, 1),
		Logger:  r.logger,
	})
	return r.remote, nil
}

func (r *Runner) mediaStasher(store *repositories.Store) tasks.Stasher {
	if r.stasher == nil {
		cfg := r.config.Stash
		r.stasher = services.NewMediaStasher(services.NewYtdlpDownloader(cfg.YtdlpPath, cfg.AudioQuality), store, r.logger)
	}
	return r.stasher
}

func (r *Runner) commandPlanner() agent.Planner {
	if r.planner == nil {
		cfg := r.config.Planner
		r.planner = services.NewPlanner(services.PlannerConfig{
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			APIKey:         cfg.APIKey,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, services.WithPlannerHTTPClient(r.httpClient))
	}
	return r.planner
}

// deps wires the sync, reconcile and stash collaborators around the store.
type deps struct {
	store      *repositories.Store
	remote     tasks.Remote
	sync       *tasks.SyncService
	reconciler *tasks.Reconciler
}

func (r *Runner) wire(ctx context.Context) (*deps, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	remote, err := r.youtube(ctx)
	if err != nil {
		return nil, err
	}
	return &deps{
		store:      store,
		remote:     remote,
		sync:       tasks.NewSyncService(remote, store, r.logger),
		reconciler: tasks.NewReconciler(remote, store, r.logger),
	}, nil
}

func (r *Runner) orchestrator(d *deps, opts ...tasks.StashOption) *tasks.StashOrchestrator {
	if r.pacer != nil {
		opts = append(opts, tasks.WithPacer(r.pacer))
	}
	return tasks.NewStashOrchestrator(d.sync, d.store, r.mediaStasher(d.store), r.logger, opts...)
}

// stashDefaults builds run options from the [stash] config section.
func (r *Runner) stashDefaults() tasks.StashOptions {
	cfg := r.config.Stash
	return tasks.StashOptions{
		OutputPath:        cfg.OutputPath,
		AudioOnly:         cfg.AudioOnly,
		UsePlaylistFolder: true,
		BatchSize:         cfg.BatchSize,
		BatchDelay:        cfg.BatchDelayDuration(),
		SummaryInterval:   cfg.SummaryIntervalDuration(),
		Concurrency:       cfg.Concurrency,
	}
}

// printProgress writes progress updates until the channel closes, then signals done.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for u := range progress {
		switch u.Phase {
		case tasks.StashConfirm, tasks.StashDone:
			continue
		}
		r.writePlain("%s\n", ui.RenderProgress(u))
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
