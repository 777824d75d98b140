package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/PiazzaSanPietro/agvn/internal/config"
	"github.com/PiazzaSanPietro/agvn/internal/continuity"
	"github.com/PiazzaSanPietro/agvn/internal/debuglog"
	"github.com/PiazzaSanPietro/agvn/internal/generator/gemini"
	"github.com/PiazzaSanPietro/agvn/internal/logging"
	"github.com/PiazzaSanPietro/agvn/internal/roster"
	"github.com/PiazzaSanPietro/agvn/internal/store"
	"github.com/PiazzaSanPietro/agvn/internal/workflow"
)

// databasePath returns the --db flag, falling back to the configured path.
func (o *RootOptions) databasePath() string {
	if o.Database != "" {
		return o.Database
	}
	if o.Config.DBPath != "" {
		return o.Config.DBPath
	}
	return "data/scripts.db"
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// logger builds the command logger on stderr. --verbose forces debug.
func (o *RootOptions) logger(cmd *cobra.Command) (zerolog.Logger, error) {
	level := o.Config.LogLevel
	if o.Verbose {
		level = zerolog.LevelDebugValue
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, o.LogFormat)
	if err != nil {
		return zerolog.Nop(), WrapExitError(ExitCommandError, "invalid logging configuration", err)
	}
	return logger, nil
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(o.databasePath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// roster returns the configured roster, or the embedded one.
func (o *RootOptions) roster() (*roster.Table, error) {
	if o.Config.RosterPath == "" {
		return roster.Default(), nil
	}
	table, err := roster.LoadFile(o.Config.RosterPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load roster", err)
	}
	return table, nil
}

// generator returns the override generator, or a Gemini client built from
// the configuration.
func (o *RootOptions) generator(logger zerolog.Logger) (workflow.Generator, error) {
	if o.Generator != nil {
		return o.Generator, nil
	}
	if err := o.Config.RequireGenerator(); err != nil {
		return nil, err
	}
	client, err := gemini.New(geminiConfig(o.Config), gemini.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func geminiConfig(cfg config.Config) gemini.Config {
	return gemini.Config{
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		BaseURL:         cfg.GeminiBaseURL,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
	}
}

// newWorkflow wires the generation workflow around st.
func (o *RootOptions) newWorkflow(st *store.Store, logger zerolog.Logger) (*workflow.Workflow, error) {
	gen, err := o.generator(logger)
	if err != nil {
		return nil, err
	}
	table, err := o.roster()
	if err != nil {
		return nil, err
	}

	var prompts workflow.PromptSource = workflow.StaticPrompts("")
	if o.Config.PromptsDir != "" {
		prompts = workflow.DirPrompts{Dir: o.Config.PromptsDir}
	}

	return workflow.New(workflow.Deps{
		Assembler: continuity.New(st, continuity.WithLogger(logger)),
		Store:     st,
		Roster:    table,
		Generator: gen,
		Prompts:   prompts,
		Debug:     debuglog.NewFileSink(o.Config.DebugLogDir, logger),
		IDs:       o.IDs,
		Logger:    logger,
		Timeout:   o.Config.RequestTimeout,
	})
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
