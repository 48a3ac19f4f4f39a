package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/germanamz/any-script-mcp/pkg/config"
	"github.com/germanamz/any-script-mcp/pkg/executor"
	"github.com/germanamz/any-script-mcp/pkg/tools/mcpserver"
	"github.com/germanamz/any-script-mcp/pkg/tools/scripttool"
	"github.com/germanamz/any-script-mcp/pkg/tools/toolbox"
)

const serverName = "any-script-mcp"

type app struct {
	configPaths string
	envFile     string
	logLevel    string
	httpAddr    string

	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   serverName,
		Short: "Serve shell scripts declared in YAML as MCP tools",
		Long: "Loads tool definitions from the files listed in " + config.EnvVar +
			" (or the default config path) and serves them over MCP on stdio.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
		RunE: a.runServe,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPaths, "config", "", "config path list, overrides "+config.EnvVar)
	flags.StringVar(&a.envFile, "env", ".env", "path to .env file (ignored if missing)")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.Flags().StringVar(&a.httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")

	root.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Load the configuration and list tools and skipped sources",
			Args:  cobra.NoArgs,
			RunE:  a.runCheck,
		},
		&cobra.Command{
			Use:   "call <tool> [json-args]",
			Short: "Run one tool and print its output",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  a.runCall,
		},
		&cobra.Command{
			Use:   "schema",
			Short: "Print the JSON Schema of the configuration file",
			Args:  cobra.NoArgs,
			RunE:  a.runSchema,
		},
	)

	return root
}

// setup loads the .env file and builds the logger. It runs before any
// command reads the environment.
func (a *app) setup(stderr io.Writer) error {
	if err := loadDotEnv(a.envFile); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", a.logLevel)
	}

	a.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return nil
}

func (a *app) paths() []string {
	if a.configPaths != "" {
		return config.SplitList(a.configPaths)
	}

	return config.Paths(os.LookupEnv)
}

func (a *app) loadConfig(skipped *[]config.SourceError) (config.Config, error) {
	opts := []config.LoadOption{config.WithLogger(a.log)}
	if skipped != nil {
		opts = append(opts, config.WithSkipped(skipped))
	}

	return config.Load(a.paths(), opts...)
}

func (a *app) toolBox() (*toolbox.ToolBox, error) {
	cfg, err := a.loadConfig(nil)
	if err != nil {
		return nil, err
	}

	tb := toolbox.New()
	runner := executor.New(executor.WithLogger(a.log))
	if err := scripttool.Register(tb, cfg, runner); err != nil {
		return nil, err
	}

	a.log.Info("tools loaded", "count", len(cfg.Tools), "names", strings.Join(cfg.Names(), ","))

	return tb, nil
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tb, err := a.toolBox()
	if err != nil {
		return err
	}

	srv := mcpserver.New(serverName, version, a.log)
	srv.Register(tb.Tools()...)

	if a.httpAddr != "" {
		err = srv.ListenAndServe(ctx, a.httpAddr)
	} else {
		a.log.Info("serving mcp on stdio")
		err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	if ctx.Err() != nil {
		return nil
	}

	return err
}

func (a *app) runCheck(cmd *cobra.Command, _ []string) error {
	var skipped []config.SourceError

	cfg, err := a.loadConfig(&skipped)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, tool := range cfg.Tools {
		fmt.Fprintf(w, "%s\t%s\t%s\n", tool.Name, tool.Description, strings.Join(tool.InputOrder, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, s := range skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "skipped %s: %v\n", s.Path, s.Err)
	}

	return nil
}

func (a *app) runCall(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tb, err := a.toolBox()
	if err != nil {
		return err
	}

	var input json.RawMessage
	if len(args) == 2 {
		input = json.RawMessage(args[1])
	}

	out, err := tb.Call(ctx, args[0], input)
	if err != nil {
		return err
	}

	_, err = io.WriteString(cmd.OutOrStdout(), out)

	return err
}

func (a *app) runSchema(cmd *cobra.Command, _ []string) error {
	data, err := json.MarshalIndent(config.JSONSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))

	return err
}

