package datafog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/datafog/datafog-go/internal/config"
	"github.com/datafog/datafog-go/internal/files"
	"github.com/datafog/datafog-go/internal/llm"
	"github.com/datafog/datafog-go/internal/report"
)

var (
	cfgOutput      string
	cfgBackend     string
	cfgModel       string
	cfgConcurrency int
	cfgNoAudit     bool
	cfgNoCache     bool
	cfgForce       bool
	cfgGitignore   bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .datafog.yml in the working directory",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	initCmd.Flags().StringVar(&cfgOutput, "output", ".datafog.yml", "output file path")
	initCmd.Flags().StringVar(&cfgBackend, "llm", "groq", "LLM backend: groq | openai | ollama")
	initCmd.Flags().StringVar(&cfgModel, "llm-model", "", "model name (default depends on backend)")
	initCmd.Flags().IntVar(&cfgConcurrency, "concurrency", config.DefaultConcurrency, "parallel requests for classify dir")
	initCmd.Flags().BoolVar(&cfgNoAudit, "no-audit", false, "disable the provenance log by default")
	initCmd.Flags().BoolVar(&cfgNoCache, "no-cache", false, "disable the extraction cache by default")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&cfgGitignore, "gitignore", true, "add datafog's local files and .env to .gitignore")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration (API keys masked)",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	b, err := llm.ParseBackend(cfgBackend)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrUnknownBackend, err)
	}
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	}
	backend := string(b)
	model := pickString(cfgModel, llm.DefaultModel(b))
	timeout := config.DefaultTimeout.String()
	cache, audit := !cfgNoCache, !cfgNoAudit
	fc := config.FileConfig{
		Backend:     &backend,
		Model:       &model,
		Timeout:     &timeout,
		Concurrency: &cfgConcurrency,
		Cache:       &cache,
		Audit:       &audit,
	}
	if err := config.Write(cfgOutput, fc); err != nil {
		return err
	}
	if cfgGitignore {
		root := filepath.Dir(cfgOutput)
		for _, p := range files.LocalArtifacts() {
			if err := files.AppendIgnore(root, p); err != nil {
				return err
			}
		}
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (backend %s, model %s)\n", cfgOutput, backend, model)
	return err
}

type shownConfig struct {
	Backend           string            `json:"backend" yaml:"backend"`
	APIKey            string            `json:"api_key" yaml:"api_key"`
	Endpoint          string            `json:"endpoint" yaml:"endpoint"`
	Model             string            `json:"model" yaml:"model"`
	VisionModel       string            `json:"vision_model" yaml:"vision_model"`
	EntityEndpoint    string            `json:"entity_endpoint" yaml:"entity_endpoint"`
	EntityModel       string            `json:"entity_model" yaml:"entity_model"`
	Timeout           string            `json:"timeout" yaml:"timeout"`
	RequestsPerSecond float64           `json:"requests_per_second" yaml:"requests_per_second"`
	MaxRetries        int               `json:"max_retries" yaml:"max_retries"`
	Cache             bool              `json:"cache" yaml:"cache"`
	Audit             bool              `json:"audit" yaml:"audit"`
	Concurrency       int               `json:"concurrency" yaml:"concurrency"`
	DefaultExcludes   bool              `json:"default_excludes" yaml:"default_excludes"`
	MaxBytes          int64             `json:"max_bytes" yaml:"max_bytes"`
	EntityTypes       map[string]string `json:"entity_types,omitempty" yaml:"entity_types,omitempty"`
	Sentry            bool              `json:"sentry" yaml:"sentry"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	s := a.settings
	llmCfg := s.LLMConfig()
	out := shownConfig{
		Backend:           string(s.Backend),
		APIKey:            maskKey(s.APIKey),
		Endpoint:          pickString(s.Endpoint, "(default)"),
		Model:             llmCfg.Model,
		VisionModel:       s.VisionConfig().Model,
		EntityEndpoint:    s.EntityEndpoint,
		EntityModel:       s.EntityModel,
		Timeout:           s.Timeout.String(),
		RequestsPerSecond: s.RequestsPerSecond,
		MaxRetries:        s.MaxRetries,
		Cache:             s.Cache,
		Audit:             s.Audit,
		Concurrency:       s.Concurrency,
		DefaultExcludes:   s.DefaultExcludes,
		MaxBytes:          s.MaxBytes,
		Sentry:            s.SentryDSN != "",
	}
	if len(s.EntityTypes) > 0 {
		out.EntityTypes = s.EntityTypes
	}
	if flagJSON {
		return report.WriteJSON(a.out, out, a.highlight())
	}
	b, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = a.out.Write(b)
	return err
}
