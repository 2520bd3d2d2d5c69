package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitSuccess = 0
	exitFailed  = 1
	exitError   = 2
)

// errScenariosFailed is returned by run when the suite finished with
// failing scenarios.
var errScenariosFailed = errors.New("scenarios failed")

var rootCmd = &cobra.Command{
	Use:   "bddsuite",
	Short: "Run the demo shop BDD browser suite",
	Long: `bddsuite runs the demo shop feature files in a real browser, writes an
HTML report and, when enabled, asks a generative model to explain the
failed scenarios.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func setVersion(v string) {
	rootCmd.Version = v
}

func execute() {
	rootCmd.SetVersionTemplate(`{{printf "bddsuite version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		code := exitCode(err)
		if code == exitError {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(code)
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errScenariosFailed):
		return exitFailed
	default:
		return exitError
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
}
