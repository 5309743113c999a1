package datafog

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datafog/datafog-go/internal/audit"
	"github.com/datafog/datafog-go/internal/cache"
	"github.com/datafog/datafog-go/internal/extract"
	"github.com/datafog/datafog-go/internal/git"
	"github.com/datafog/datafog-go/internal/redaction"
	"github.com/datafog/datafog-go/internal/report"
	"github.com/datafog/datafog-go/internal/tui"
	"github.com/datafog/datafog-go/internal/types"
)

var (
	redactDetections  string
	redactExtract     bool
	redactOut         string
	redactCopy        bool
	redactVerifySpans bool
	redactNoAudit     bool
	redactShowValues  bool
	redactNoCache     bool
	redactReview      bool
)

type redactOutput struct {
	Source       string                  `json:"source"`
	Text         string                  `json:"text"`
	Replacements int                     `json:"replacements"`
	Fingerprint  string                  `json:"fingerprint"`
	Categories   map[string]int          `json:"categories"`
	Detections   []types.DetectionRecord `json:"detections,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "redact [file|-]",
		Short: "Replace detected PII with [CATEGORY] placeholders",
		Long: "Redact a document using detections from a JSON file (--detections) or extracted by the LLM (--extract). " +
			"Detections with character offsets are applied right to left; the rest replace every occurrence of their value.",
		Args: cobra.MaximumNArgs(1),
		RunE: runRedact,
		Example: `
# Redact with an explicit detection list
datafog redact contact.txt --detections pii.json

# Extract with the LLM, then redact, writing the result to a file
datafog redact contact.txt --extract --out contact.redacted.txt`,
	}
	f := cmd.Flags()
	f.StringVar(&redactDetections, "detections", "", "JSON file with detections (array or {\"private_data\": [...]})")
	f.BoolVar(&redactExtract, "extract", false, "extract detections with the LLM")
	f.StringVar(&redactOut, "out", "", "write redacted text to this file instead of stdout")
	f.BoolVar(&redactCopy, "copy", false, "copy the redacted text to the clipboard")
	f.BoolVar(&redactVerifySpans, "verify-spans", false, "fail when the text at an offset span differs from the detection value")
	f.BoolVar(&redactNoAudit, "no-audit", false, "do not append to the provenance log")
	f.BoolVar(&redactShowValues, "show-values", false, "show detected values unmasked in reports")
	f.BoolVar(&redactNoCache, "no-cache", false, "do not read or write the extraction cache, which stores detected values in plaintext")
	f.BoolVar(&redactReview, "review", false, "choose detections interactively before redacting (requires a terminal)")
	rootCmd.AddCommand(cmd)
}

func runRedact(cmd *cobra.Command, args []string) error {
	if (redactDetections == "") == !redactExtract {
		return fmt.Errorf("%w: exactly one of --detections or --extract is required", errUsage)
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	doc, source, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	var set *redaction.DetectionSet
	model := ""
	if redactDetections != "" {
		set, err = loadDetections(redactDetections)
	} else {
		model = a.settings.LLMConfig().Model
		set, err = a.extract(cmd.Context(), doc, !redactNoCache)
	}
	if err != nil {
		if isNoFindings(err) && !flagJSON {
			_ = report.PrintDetections(a.errOut, nil, a.print)
		}
		return err
	}

	if redactReview {
		if !a.tty {
			return fmt.Errorf("%w: --review requires a terminal", errUsage)
		}
		var reextract tui.ExtractFunc
		if redactExtract {
			reextract = func() (*redaction.DetectionSet, error) { return a.extract(cmd.Context(), doc, false) }
		}
		if set, err = tui.Review(doc, set, reextract); err != nil {
			return err
		}
	}

	var opts []redaction.Option
	if redactVerifySpans {
		opts = append(opts, redaction.WithSpanVerification())
	}
	res, err := set.Redact(doc, opts...)
	if err != nil {
		return err
	}
	if redaction.IsFallbackFingerprint(set.Fingerprint()) {
		a.logger.Warn("fingerprint unavailable", zap.String("fingerprint", set.Fingerprint()))
	}

	if err := a.writeRedaction(source, set, res); err != nil {
		return err
	}
	if redactCopy {
		if err := clipboard.WriteAll(res.Text); err != nil {
			a.logger.Warn("clipboard copy failed", zap.Error(err))
		}
	}
	if a.settings.Audit && !redactNoAudit {
		a.recordAudit(source, set, res, audit.Meta{Extracted: redactExtract, Model: model})
	}
	return nil
}

func (a *app) writeRedaction(source string, set *redaction.DetectionSet, res redaction.Result) error {
	if redactOut != "" {
		if err := os.WriteFile(redactOut, []byte(res.Text), 0600); err != nil {
			return err
		}
	}
	switch {
	case flagJSON:
		out := redactOutput{
			Source:       source,
			Text:         res.Text,
			Replacements: res.Replacements,
			Fingerprint:  set.Fingerprint(),
			Categories:   set.Categories(),
		}
		if redactShowValues {
			out.Detections = types.Records(set)
		}
		return report.WriteJSON(a.out, out, a.highlight())
	case flagMarkdown:
		return report.WriteMarkdown(a.out, report.RedactionReport{
			Source:    source,
			Set:       set,
			Result:    res,
			Redacted:  true,
			ShowValue: redactShowValues,
		})
	}
	if redactOut == "" {
		if _, err := fmt.Fprint(a.out, res.Text); err != nil {
			return err
		}
		if len(res.Text) > 0 && res.Text[len(res.Text)-1] != '\n' {
			_, _ = fmt.Fprintln(a.out)
		}
	}
	return report.PrintRedactionSummary(a.errOut, source, set, res, a.print)
}

func (a *app) recordAudit(source string, set *redaction.DetectionSet, res redaction.Result, meta audit.Meta) {
	meta.Repo, meta.Commit, meta.Branch = git.RepoMetadata(a.root)
	log := audit.New(a.root)
	if err := log.LogRedaction(audit.NewRecord(source, set, res, meta)); err != nil {
		a.logger.Warn("could not write audit record", zap.String("path", log.Path()), zap.Error(err))
	}
}

// extract runs the LLM extractor, reading and saving the cache when enabled.
func (a *app) extract(ctx context.Context, doc string, useCache bool) (*redaction.DetectionSet, error) {
	client, err := a.textClient()
	if err != nil {
		return nil, err
	}
	opts := []extract.Option{extract.WithLogger(a.logger)}
	var db *cache.DB
	if useCache && a.settings.Cache {
		path := cache.DefaultPath(a.root)
		db, err = cache.Load(path)
		if err != nil {
			a.logger.Warn("ignoring unreadable extraction cache", zap.String("path", path), zap.Error(err))
		}
		opts = append(opts, extract.WithCache(db, string(client.Backend())+"/"+client.Model()))
	}
	set, err := extract.New(client, opts...).Extract(ctx, doc)
	if db != nil {
		if serr := db.Save(); serr != nil {
			a.logger.Warn("could not save extraction cache", zap.Error(serr))
		}
	}
	return set, err
}

// loadDetections reads a detection file in any of the accepted shapes.
func loadDetections(path string) (*redaction.DetectionSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	recs, err := extract.ParseRecords(string(b))
	if err != nil {
		if isNoFindings(err) {
			return nil, fmt.Errorf("%s: %w", path, redaction.ErrEmptyDetectionSet)
		}
		return nil, fmt.Errorf("%s: %w: %v", path, redaction.ErrInvalidDetection, err)
	}
	return types.RecordsToSet(recs)
}
