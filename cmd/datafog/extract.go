package datafog

import (
	"github.com/spf13/cobra"

	"github.com/datafog/datafog-go/internal/report"
	"github.com/datafog/datafog-go/internal/types"
)

var (
	extractNoCache    bool
	extractShowValues bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "List the PII the LLM finds in a document",
		Long: "Extract sends the document to the configured LLM and prints the detections. " +
			"With --json the detections are written in the format accepted by 'redact --detections'.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			doc, _, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			set, err := a.extract(cmd.Context(), doc, !extractNoCache)
			if err != nil {
				if isNoFindings(err) && !flagJSON {
					_ = report.PrintDetections(a.errOut, nil, a.print)
				}
				return err
			}
			if flagJSON {
				return report.WriteJSON(a.out, map[string]any{
					"private_data": types.Records(set),
					"fingerprint":  set.Fingerprint(),
				}, a.highlight())
			}
			opts := a.print
			opts.ShowValues = extractShowValues
			return report.PrintDetections(a.out, set, opts)
		},
	}
	cmd.Flags().BoolVar(&extractNoCache, "no-cache", false, "do not read or write the extraction cache, which stores detected values in plaintext")
	cmd.Flags().BoolVar(&extractShowValues, "show-values", false, "show detected values unmasked")
	rootCmd.AddCommand(cmd)
}
