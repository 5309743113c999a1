package datafog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/datafog/datafog-go/internal/config"
	"github.com/datafog/datafog-go/internal/llm"
	"github.com/datafog/datafog-go/internal/logging"
	"github.com/datafog/datafog-go/internal/report"
)

var sentryEnabled bool

// app is the per-invocation state shared by subcommands.
type app struct {
	root     string
	settings config.Settings
	logger   *zap.Logger
	out      io.Writer
	errOut   io.Writer
	print    report.PrintOptions
	tty      bool
}

// newApp resolves configuration with precedence CLI > env > local > global.
func newApp(cmd *cobra.Command) (*app, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	var lcfg, gcfg config.FileConfig
	if flagConfig != "" {
		c, err := config.LoadFile(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
		}
		lcfg = c
	} else if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	} else if !errors.Is(err, config.ErrNoLocalConfig) {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}

	envFile := flagEnvFile
	if envFile != "" && !filepath.IsAbs(envFile) {
		envFile = filepath.Join(root, envFile)
	}
	env, err := config.LoadEnv(envFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", config.ErrInvalidValue, flagEnvFile, err)
	}
	s, err := config.Resolve(lcfg, gcfg, env)
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		if err := s.SetBackend(flagBackend); err != nil {
			return nil, err
		}
	}
	s.Model = pickString(flagModel, s.Model)
	s.Endpoint = pickString(flagEndpoint, s.Endpoint)
	if flagTimeout != "" {
		if err := s.SetTimeout(flagTimeout); err != nil {
			return nil, err
		}
	}
	s.NoColor = pickBool(flagNoColor, s.NoColor) || os.Getenv("NO_COLOR") != ""

	a := &app{
		root:     root,
		settings: s,
		logger:   logging.New(cmd.ErrOrStderr(), flagDebug),
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		tty:      isTerminal(cmd.OutOrStdout()),
	}
	a.print = report.PrintOptions{NoColor: s.NoColor || !a.tty}
	if s.SentryDSN != "" && !sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: s.SentryDSN, Release: "datafog@" + version}); err != nil {
			a.logger.Warn("sentry init failed", zap.Error(err))
		} else {
			sentryEnabled = true
		}
	}
	a.logger.Debug("configuration resolved",
		zap.String("backend", string(s.Backend)),
		zap.String("model", s.LLMConfig().Model),
		zap.Duration("timeout", s.Timeout))
	return a, nil
}

// textClient builds the client used for extraction and text classification.
func (a *app) textClient() (*llm.Client, error) {
	if err := a.settings.RequireLLM(); err != nil {
		return nil, err
	}
	return llm.New(a.settings.LLMConfig(), a.logger)
}

func (a *app) visionClient() (*llm.Client, error) {
	if err := a.settings.RequireLLM(); err != nil {
		return nil, err
	}
	return llm.New(a.settings.VisionConfig(), a.logger)
}

func (a *app) entityClient() (*llm.Client, error) {
	return llm.New(a.settings.EntityConfig(), a.logger)
}

// highlight reports whether JSON output should be colourised.
func (a *app) highlight() bool { return a.tty && !a.settings.NoColor }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readInput returns the document named by args, or stdin for "-" or no
// argument, along with a display name.
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", err
		}
		return string(b), "<stdin>", nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	return string(b), args[0], nil
}

// maskKey hides all but the last four characters of an API key.
func maskKey(k string) string {
	if k == "" {
		return ""
	}
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", 8) + k[len(k)-4:]
}
