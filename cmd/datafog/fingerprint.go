package datafog

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datafog/datafog-go/internal/redaction"
	"github.com/datafog/datafog-go/internal/report"
)

var fingerprintDetections string

func init() {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the order-independent fingerprint of a detection list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fingerprintDetections == "" {
				return fmt.Errorf("%w: --detections is required", errUsage)
			}
			set, err := loadDetections(fingerprintDetections)
			if err != nil {
				return err
			}
			fp := set.Fingerprint()
			if flagJSON {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
					"fingerprint": fp,
					"detections":  set.Len(),
					"fallback":    redaction.IsFallbackFingerprint(fp),
				}, false)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fp)
			return err
		},
	}
	cmd.Flags().StringVar(&fingerprintDetections, "detections", "", "JSON file with detections")
	rootCmd.AddCommand(cmd)
}
