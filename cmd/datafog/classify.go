package datafog

import (
	"github.com/spf13/cobra"

	"github.com/datafog/datafog-go/internal/classify"
	"github.com/datafog/datafog-go/internal/files"
	"github.com/datafog/datafog-go/internal/report"
)

var (
	classifyInclude     string
	classifyExclude     string
	classifyConcurrency int
	classifyMaxBytes    int64
)

func init() {
	cmd := &cobra.Command{Use: "classify", Short: "Classify documents and images"}
	rootCmd.AddCommand(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "file <path>",
		Short: "Classify a text document",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, cl, err := newClassifier(c, false)
			if err != nil {
				return err
			}
			content, name, err := readInput(c, args)
			if err != nil {
				return err
			}
			fc, err := cl.ClassifyFile(c.Context(), content, name)
			if err != nil {
				return err
			}
			return a.writeClassification(fc)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "image <path>",
		Short: "Classify an image with the vision model",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, cl, err := newClassifier(c, true)
			if err != nil {
				return err
			}
			fc, err := cl.ClassifyImage(c.Context(), args[0])
			if err != nil {
				return err
			}
			return a.writeClassification(fc)
		},
	})

	dirCmd := &cobra.Command{
		Use:   "dir <root>",
		Short: "Classify every text file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, cl, err := newClassifier(c, false)
			if err != nil {
				return err
			}
			s := a.settings
			opts := files.Options{
				Root:            args[0],
				Include:         files.SplitGlobs(pickString(classifyInclude, s.Include)),
				Exclude:         files.SplitGlobs(pickString(classifyExclude, s.Exclude)),
				DefaultExcludes: s.DefaultExcludes,
				MaxBytes:        pickInt64(classifyMaxBytes, s.MaxBytes),
			}
			results, err := cl.ClassifyDir(c.Context(), opts, pickInt(classifyConcurrency, s.Concurrency))
			if err != nil {
				return err
			}
			if flagJSON {
				return report.WriteJSON(a.out, batchJSON(results), a.highlight())
			}
			return report.PrintClassifications(a.out, results, a.print)
		},
	}
	dirCmd.Flags().StringVar(&classifyInclude, "include", "", "comma-separated globs to include")
	dirCmd.Flags().StringVar(&classifyExclude, "exclude", "", "comma-separated globs to exclude")
	dirCmd.Flags().IntVar(&classifyConcurrency, "concurrency", 0, "parallel requests (default from config)")
	dirCmd.Flags().Int64Var(&classifyMaxBytes, "max-bytes", 0, "skip files larger than this")
	cmd.AddCommand(dirCmd)
}

func newClassifier(c *cobra.Command, vision bool) (*app, *classify.Classifier, error) {
	a, err := newApp(c)
	if err != nil {
		return nil, nil, err
	}
	text, err := a.textClient()
	if err != nil {
		return nil, nil, err
	}
	opts := []classify.Option{classify.WithLogger(a.logger)}
	if vision {
		v, err := a.visionClient()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, classify.WithVision(v))
	}
	return a, classify.New(text, opts...), nil
}

func (a *app) writeClassification(fc classify.FileClassification) error {
	if flagJSON {
		return report.WriteJSON(a.out, fc, a.highlight())
	}
	return report.PrintClassification(a.out, fc, a.print)
}

type batchEntry struct {
	Path           string                       `json:"path"`
	Classification *classify.FileClassification `json:"classification,omitempty"`
	Error          string                       `json:"error,omitempty"`
}

func batchJSON(results []classify.BatchResult) []batchEntry {
	out := make([]batchEntry, len(results))
	for i, r := range results {
		out[i] = batchEntry{Path: r.Path}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		fc := r.Classification
		out[i].Classification = &fc
	}
	return out
}
