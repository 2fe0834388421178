package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/repositories"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/session"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil in [RunnerOpts] are built from the resolved configuration the first time a command
// needs them (see [Runner.connect]).
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	session    *session.Session
	music      services.MusicService
	text       services.TextGenerator
	auth       *services.SpotifyAuth
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	openBrowser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Session    *session.Session
	Music      services.MusicService
	Text       services.TextGenerator
	Auth       *services.SpotifyAuth
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		session:    opts.Session,
		music:      opts.Music,
		text:       opts.Text,
		auth:       opts.Auth,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,

		openBrowser: shared.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, generateCommand, synthesizeCommand, dashboardCommand, serveCommand,
		modelsCommand, nowPlayingCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before applies the global flags.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	return ctx, nil
}

// after releases the database handle opened by [Runner.connect].
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	return r.close()
}

// SetLogger replaces the logger used by the runner and the services it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// loadConfig resolves the configuration once.
func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config, err := shared.ResolveConfig(r.configPath)
	if err != nil {
		return nil, err
	}
	r.config = config
	return config, nil
}

// connect opens the credential store, restores the session and builds the upstream clients.
//
// It is a no-op for anything already provided through [RunnerOpts].
func (r *Runner) connect() error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	if r.session == nil {
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		r.db = db

		sess := session.New(repositories.NewCredentialRepository(db), r.logger)
		if err := sess.Restore(); err != nil {
			return err
		}
		r.session = sess
	}

	if r.music == nil {
		r.music = services.NewSpotifyService(r.session, "", r.httpClient)
	}
	if r.text == nil {
		r.text = services.NewGeminiService(config.Credentials.Gemini, r.httpClient)
	}
	if r.auth == nil {
		auth, err := services.NewSpotifyAuth(config.Credentials.Spotify)
		if err != nil {
			r.logger.Debug("spotify login unavailable", "error", err)
		} else {
			r.auth = auth
		}
	}

	return nil
}

// requireSession connects and fails with [shared.ErrNotAuthenticated] unless a token is held.
func (r *Runner) requireSession() error {
	if err := r.connect(); err != nil {
		return err
	}
	if !r.session.Authenticated() {
		return fmt.Errorf("%w: run 'tunesmith auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
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
