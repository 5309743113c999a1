package datafog

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
)

var (
	flagJSON          bool
	flagMarkdown      bool
	flagNoColor       bool
	flagDebug         bool
	flagConfig        string
	flagEnvFile       string
	flagBackend       string
	flagModel         string
	flagEndpoint      string
	flagTimeout       string
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the DataFog CLI.
var rootCmd = &cobra.Command{
	Use:   "datafog",
	Short: "Find and redact PII with LLMs",
	Long: "DataFog extracts personally identifiable information from documents with a hosted LLM, " +
		"redacts it deterministically, classifies documents and images, and records a provenance log.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if flagJSON && flagMarkdown {
			return fmt.Errorf("%w: --json and --markdown are mutually exclusive", errUsage)
		}
		if flagSelfUpdate {
			if err := selfUpdate(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "updated to latest; re-run command")
			os.Exit(exitOK)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if flagJSON || flagMarkdown || flagNoUpdateCheck {
			return
		}
		if latest, newer, _ := checkUpdate(version, false); newer && latest != "" {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "(new version available: v%s)  run 'datafog --self-update' to upgrade\n", latest)
		}
	},
}

// Execute runs the DataFog CLI. It should be called by the main package.
func Execute() {
	err := rootCmd.Execute()
	code := exitCode(err)
	if err != nil {
		if !isNoFindings(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		if sentryEnabled && code != exitNoFindings {
			sentry.CaptureException(err)
		}
	}
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
	os.Exit(code)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "emit JSON")
	pf.BoolVar(&flagMarkdown, "markdown", false, "emit a Markdown report")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	pf.BoolVar(&flagDebug, "debug", false, "verbose logging to stderr")
	pf.StringVar(&flagConfig, "config", "", "config file (default: .datafog.yml in the working directory)")
	pf.StringVar(&flagEnvFile, "env-file", ".env", "dotenv file with API keys")
	pf.StringVar(&flagBackend, "backend", "", "LLM backend: groq | openai | ollama")
	pf.StringVar(&flagModel, "model", "", "model name (default depends on backend)")
	pf.StringVar(&flagEndpoint, "endpoint", "", "override the backend's API base URL")
	pf.StringVar(&flagTimeout, "timeout", "", "per-request timeout, e.g. 30s")
	pf.BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	pf.BoolVar(&flagSelfUpdate, "self-update", false, "update datafog to the latest release")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "datafog", version)
		},
	})
}
