package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser"
	"github.com/nbenliogludev/go-bdd-suite/internal/config"
	"github.com/nbenliogludev/go-bdd-suite/internal/lifecycle"
	"github.com/nbenliogludev/go-bdd-suite/internal/llm"
	"github.com/nbenliogludev/go-bdd-suite/internal/logging"
	"github.com/nbenliogludev/go-bdd-suite/internal/report"
	"github.com/nbenliogludev/go-bdd-suite/internal/steps"
	"github.com/nbenliogludev/go-bdd-suite/internal/suite"
	"github.com/nbenliogludev/go-bdd-suite/internal/summary"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [feature paths...]",
		Short: "Run the feature files",
		Long: `Run the feature files found under the configured paths (or the paths
given as arguments), write the HTML report and print a summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			noColor, _ := cmd.Flags().GetBool("no-color")
			status, err := runSuite(cmd.Context(), cfg, noColor, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if status != 0 {
				return errScenariosFailed
			}
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", "config.toml", "configuration file (.toml or .yaml)")
	cmd.Flags().StringP("tags", "t", "", "only run scenarios matching this tag expression")
	cmd.Flags().Int("concurrency", 0, "scenarios run in parallel")
	cmd.Flags().String("format", "", "godog output format (progress, pretty, junit, cucumber)")
	cmd.Flags().String("browser", "", "chrome, edge, chromium, firefox or webkit")
	cmd.Flags().Bool("headless", false, "run the browser headless")
	cmd.Flags().Bool("no-ai", false, "skip the AI failure summary")
	cmd.Flags().Bool("no-color", false, "disable colored output")

	return cmd
}

// loadConfig reads the config file and applies the flags that were set
// explicitly. A missing default config file falls back to defaults.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	if !flags.Changed("config") {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("tags") {
		cfg.Suite.Tags, _ = flags.GetString("tags")
	}
	if flags.Changed("concurrency") {
		cfg.Suite.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("format") {
		cfg.Suite.Format, _ = flags.GetString("format")
	}
	if flags.Changed("browser") {
		cfg.Browser.Name, _ = flags.GetString("browser")
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless, _ = flags.GetBool("headless")
	}
	if noAI, _ := flags.GetBool("no-ai"); noAI {
		cfg.AI.Enabled = false
	}
	if len(args) > 0 {
		cfg.Suite.Paths = args
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSuite(ctx context.Context, cfg *config.Config, noColor bool, out io.Writer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	lg, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		JSONFile: cfg.Logging.JSONFile,
		NoColor:  noColor,
	})
	if err != nil {
		return 0, err
	}
	defer lg.Close()
	logger := lg.Run()

	mgr, err := browser.NewManager(browser.Options{
		Name:     cfg.Browser.Name,
		Headless: cfg.Browser.Headless,
		ExecPath: cfg.Browser.ExecPath,
		Timeout:  cfg.OperationTimeout(),
		Logger:   logger,
	})
	if err != nil {
		return 0, err
	}

	rep, err := report.New(cfg.Report.Path, cfg.Report.Title)
	if err != nil {
		return 0, fmt.Errorf("create report: %w", err)
	}
	index := report.NewFailedIndex()

	var summarizer lifecycle.Summarizer
	if cfg.AI.Enabled {
		provider, err := llm.NewProvider(ctx, cfg.AI, cfg.AITimeout(), logger)
		if err != nil {
			logger.Warn().Err(err).Msg("AI failure summary disabled")
		} else {
			summarizer = summary.New(summary.Options{
				Provider:              provider,
				Resolver:              index,
				SystemInstructionPath: cfg.AI.SystemInstructionPath,
				GenerationConfigPath:  cfg.AI.GenerationConfigPath,
				Logger:                logger,
			})
		}
	}

	orch := lifecycle.New(lifecycle.Options{
		Config:     cfg,
		Sessions:   mgr,
		Report:     rep,
		Index:      index,
		Summarizer: summarizer,
		Loggers:    lg,
		Logger:     logger,
		Console:    out,
	})

	interrupt := suite.NewInterrupt()
	defer interrupt.Close()

	status := suite.New(suite.Options{
		Config:       cfg,
		Orchestrator: orch,
		Steps:        steps.Register,
		Interrupt:    interrupt,
		Logger:       logger,
		Output:       out,
		NoColors:     noColor,
	}).Run(ctx)

	if interrupt.Interrupted() {
		logger.Warn().Msg("Run was interrupted; remaining scenarios were skipped")
	}
	return status, nil
}
