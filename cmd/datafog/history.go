package datafog

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/datafog/datafog-go/internal/audit"
	"github.com/datafog/datafog-go/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the provenance log of past redactions",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := newApp(c)
			if err != nil {
				return err
			}
			records, err := audit.New(a.root).LoadHistory()
			if err != nil {
				return err
			}
			if flagJSON {
				if records == nil {
					records = []audit.Record{}
				}
				return report.WriteJSON(a.out, records, a.highlight())
			}
			return report.PrintHistory(a.out, records, a.print)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <index>",
		Short: "Delete a record by its index in 'datafog history'",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: index must be an integer", errUsage)
			}
			a, err := newApp(c)
			if err != nil {
				return err
			}
			if err := audit.New(a.root).DeleteRecord(idx); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "Deleted record %d\n", idx)
			return err
		},
	})
	rootCmd.AddCommand(cmd)
}
