package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsplit/internal/repositories"
	"github.com/desertthunder/plsplit/internal/services"
	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/desertthunder/plsplit/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	configured bool

	provider services.Provider
	readOnly bool
	spotify  *services.SpotifyService
	tags     services.TagLookup

	db    *sql.DB
	runs  *repositories.RunRepository
	cache *repositories.TagCacheRepository

	logger  *log.Logger
	output  io.Writer
	console io.Writer
	now     func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Provider and Tags replace the Spotify and Last.fm clients built from the config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Provider   services.Provider
	Tags       services.TagLookup
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
	Console    io.Writer
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	configured := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		configured: configured,
		provider:   opts.Provider,
		tags:       opts.Tags,
		logger:     opts.Logger,
		output:     opts.Output,
		console:    opts.Console,
		now:        opts.Now,
	}
	r.attachDB(opts.DB)
	return r
}

func (r *Runner) attachDB(db *sql.DB) {
	if db == nil {
		return
	}
	r.db = db
	r.runs = repositories.NewRunRepository(db)
	r.cache = repositories.NewTagCacheRepository(db)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		analyzeCommand, exportCommand, materializeCommand, splitCommand,
		authCommand, historyCommand, cacheCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// saveTokens stores token in the config and writes the config file.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: no configuration loaded", shared.ErrMissingConfig)
	}
	if r.configPath == "" {
		return fmt.Errorf("%w: no configuration path", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
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

func (r *Runner) writeYAML(data any) error {
	output, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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

func (r *Runner) writeHeader(title string) {
	r.writePlain("%s\n", ui.Styles.Title(title))
}

func (r *Runner) writeField(label string, value any) {
	r.writePlain("%s\n", ui.Styles.Field(label, value))
}
