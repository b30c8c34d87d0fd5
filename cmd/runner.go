package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amx/internal/repositories"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	library    services.Library
	api        *services.APIService
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	engine     *tasks.AlbumEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Library    services.Library
	API        *services.APIService
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration.
//
// Nil fields get sensible defaults: DefaultConfig, a stderr logger, stdout
// output, and stdin for confirmation prompts. The engine starts without
// persistence; commands that record history attach it via storedEngine.
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

	engine := tasks.NewAlbumEngine(opts.Library, nil, nil, nil)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		library:    opts.Library,
		api:        opts.API,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		engine:     engine,
	}
}

// SetLogger replaces the runner's logger, used to redirect logs to a file
// while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// register returns all top-level CLI commands.
func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand,
		authCommand,
		albumCommand,
		migrateCommand,
		historyCommand,
		apiCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// openDatabase opens the configured SQLite database, refusing to create it
// implicitly so commands fail with guidance instead of empty-schema errors.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: database %s not found (run 'amx setup' first)", shared.ErrMissingConfig, path)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// storedEngine builds an engine with run recording and snapshot caching
// attached to the given database.
func (r *Runner) storedEngine(db *sql.DB) *tasks.AlbumEngine {
	runs := repositories.NewRunRepository(db)
	cache := repositories.NewAlbumCacheAdapter(repositories.NewAlbumRepository(db))
	return tasks.NewAlbumEngine(r.library, nil, runs, cache)
}

// saveTokens merges captured tokens into the runner config, persisting to
// the config file when a path is known.
func (r *Runner) saveTokens(tokens *shared.MusicTokens) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	if tokens == nil {
		return fmt.Errorf("%w: tokens cannot be nil", shared.ErrInvalidArgument)
	}

	if tokens.DeveloperToken != "" {
		r.config.Credentials.AppleMusic.DeveloperToken = tokens.DeveloperToken
	}
	if tokens.UserToken != "" {
		r.config.Credentials.AppleMusic.UserToken = tokens.UserToken
	}
	if tokens.Origin != "" {
		r.config.Credentials.AppleMusic.Origin = tokens.Origin
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// isTTY reports whether output goes to a terminal, which selects table
// rendering over plain text.
func (r *Runner) isTTY() bool {
	file, ok := r.output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// confirm prompts for a yes/no answer on the runner's input. EOF counts as
// a decline.
func (r *Runner) confirm(prompt string) (bool, error) {
	if err := r.writePlain("%s [y/N] ", prompt); err != nil {
		return false, err
	}

	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// writeJSON writes data as JSON to the configured output.
func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

// writePlain writes formatted text to the configured output.
func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writePlainln writes a line of text to the configured output.
func (r *Runner) writePlainln(text string) error {
	return r.writePlain("%s\n", text)
}

// writePlainHeader writes a section header with a separator line.
func (r *Runner) writePlainHeader(title string) error {
	if err := r.writePlain("\n%s\n", title); err != nil {
		return err
	}
	return r.writePlain("%s\n", strings.Repeat("═", 39))
}
