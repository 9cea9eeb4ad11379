package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/neurodesk/vltemplate/pkg/api"
	"github.com/neurodesk/vltemplate/pkg/config"
	"github.com/neurodesk/vltemplate/pkg/ctxfile"
	"github.com/neurodesk/vltemplate/pkg/engine"
	"github.com/neurodesk/vltemplate/pkg/netcache"
	"github.com/spf13/cobra"
)

var rootConfigPath string
var verbose bool

var rootCmd = cobra.Command{
	Use:           "vlc",
	Short:         "Compile HTML templates with vl-* directives",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// setup loads the config and installs the default logger. The config file is
// only required when --config was given explicitly.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	required := cmd.Flags().Changed("config")
	cfg, err := config.Load(rootConfigPath, required)
	if err != nil {
		return cfg, nil, err
	}
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return cfg, log, nil
}

func loadTemplate(path string, log *slog.Logger) (*engine.Engine, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	e, err := engine.New(string(src), engine.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

var compileCmd = cobra.Command{
	Use:   "compile [template]",
	Short: "Compile a template against a context file and print the result",
	Long: `Compile a template against a context file and print the result.

--ctx may be repeated. Context files are merged in order after the config's
context_file, and a .star script sees the values loaded before it. The
template and the context files may be local paths or http(s) URLs. Remote
files are cached under cache_dir and revalidated on every run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}

		cache := netcache.New(cfg.CachePath(), log)
		ctxPaths, _ := cmd.Flags().GetStringArray("ctx")
		if cfg.ContextFile != "" {
			ctxPaths = append([]string{cfg.ContextFile}, ctxPaths...)
		}
		locals := make([]string, 0, len(ctxPaths))
		for _, p := range ctxPaths {
			local, err := cache.Resolve(cmd.Context(), p)
			if err != nil {
				return err
			}
			locals = append(locals, local)
		}
		ctx, err := ctxfile.LoadAll(locals, log)
		if err != nil {
			return err
		}

		tplPath, err := cache.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		e, err := loadTemplate(tplPath, log)
		if err != nil {
			return err
		}
		out, err := e.Compile(ctx)
		if err != nil {
			return fmt.Errorf("compiling %s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var checkCmd = cobra.Command{
	Use:   "check [template...]",
	Short: "Check that templates are well formed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := setup(cmd)
		if err != nil {
			return err
		}
		okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

		out := cmd.OutOrStdout()
		var failed int
		for _, path := range args {
			if _, err := loadTemplate(path, log); err != nil {
				log.Debug("check failed", "template", path, "error", err)
				fmt.Fprintf(out, "%s %s\n  %s\n", errorStyle.Render("FAIL"), path, detailStyle.Render(engine.Describe(err)))
				failed++
				continue
			}
			fmt.Fprintf(out, "%s   %s\n", okStyle.Render("ok"), path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d templates failed", failed, len(args))
		}
		return nil
	},
}

var serveCmd = cobra.Command{
	Use:   "serve",
	Short: "Serve the compile endpoint over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Listen = listen
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h := api.NewHandler(log, cfg.MaxBodyBytes)
		return api.Serve(ctx, cfg.Listen, h.Routes(), log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", config.DefaultPath, "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	compileCmd.Flags().StringArray("ctx", nil, "Context file (.json, .yaml, .yml or .star), may be repeated")
	rootCmd.AddCommand(&compileCmd)

	rootCmd.AddCommand(&checkCmd)

	serveCmd.Flags().String("listen", "", "Address to listen on, overrides the config file")
	rootCmd.AddCommand(&serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
