// Package report renders detections, classifications, entities and history
// for humans (tables, markdown) and machines (JSON).
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/datafog/datafog-go/internal/audit"
	"github.com/datafog/datafog-go/internal/classify"
	"github.com/datafog/datafog-go/internal/entities"
	"github.com/datafog/datafog-go/internal/redaction"
)

type PrintOptions struct {
	NoColor bool
	// ShowValues prints detected values unmasked.
	ShowValues bool
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func styled(s lipgloss.Style, text string, opts PrintOptions) string {
	if opts.NoColor {
		return text
	}
	return s.Render(text)
}

// PrintDetections writes one row per detection followed by a summary line
// with the fingerprint.
func PrintDetections(w io.Writer, set *redaction.DetectionSet, opts PrintOptions) error {
	if set == nil || set.Len() == 0 {
		_, err := fmt.Fprintln(w, styled(okStyle, "No PII found", opts))
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("#", "Category", "Value", "Start", "End")
	for i, d := range set.Detections() {
		val := d.Value()
		if !opts.ShowValues {
			val = MaskValue(val)
		}
		start, end := "-", "-"
		if s, e, ok := d.Offsets(); ok {
			start, end = strconv.Itoa(s), strconv.Itoa(e)
		}
		if err := table.Append([]string{strconv.Itoa(i + 1), d.Category(), val, start, end}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s %d  %s %s\n",
		styled(titleStyle, "Detections:", opts), set.Len(),
		styled(dimStyle, "fingerprint:", opts), set.Fingerprint())
	return err
}

// PrintRedactionSummary reports the outcome of a redaction on one line.
func PrintRedactionSummary(w io.Writer, source string, set *redaction.DetectionSet, res redaction.Result, opts PrintOptions) error {
	cats := set.Categories()
	names := make([]string, 0, len(cats))
	for c := range cats {
		names = append(names, c)
	}
	sort.Strings(names)
	parts := ""
	for i, c := range names {
		if i > 0 {
			parts += ", "
		}
		parts += fmt.Sprintf("%s: %d", c, cats[c])
	}
	_, err := fmt.Fprintf(w, "%s %s  replacements: %d (%s)  fingerprint: %s\n",
		styled(okStyle, "Redacted", opts), source, res.Replacements, parts, set.Fingerprint())
	return err
}

// PrintClassifications writes a table of batch classification results.
func PrintClassifications(w io.Writer, results []classify.BatchResult, opts PrintOptions) error {
	table := tablewriter.NewWriter(w)
	table.Header("File", "Type", "Confidence", "Keywords", "Summary")
	failed := 0
	for _, r := range results {
		row := []string{r.Path, "", "", "", ""}
		if r.Err != nil {
			failed++
			row[1] = styled(errStyle, "error", opts)
			row[4] = r.Err.Error()
		} else {
			c := r.Classification
			row[1] = string(c.FileType)
			row[2] = fmt.Sprintf("%.2f", c.Confidence)
			row[3] = joinMax(c.Keywords, 5)
			row[4] = c.Summary
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Classified: %d  failed: %d\n", len(results)-failed, failed)
	return err
}

// PrintClassification writes a single classification as key/value lines.
func PrintClassification(w io.Writer, c classify.FileClassification, opts PrintOptions) error {
	_, err := fmt.Fprintf(w, "%s %s\n%s %s (confidence %.2f)\n%s %s\n%s %s\n",
		styled(titleStyle, "File:", opts), c.FileName,
		styled(titleStyle, "Type:", opts), c.FileType, c.Confidence,
		styled(titleStyle, "Keywords:", opts), joinMax(c.Keywords, 0),
		styled(titleStyle, "Summary:", opts), c.Summary)
	return err
}

// PrintEntities writes detected entities as a table.
func PrintEntities(w io.Writer, ents entities.DetectedEntities, opts PrintOptions) error {
	if len(ents.Entities) == 0 {
		_, err := fmt.Fprintln(w, styled(okStyle, "No entities found", opts))
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("Type", "Text", "Start", "End")
	for _, e := range ents.Entities {
		text := e.Text
		if !opts.ShowValues {
			text = MaskValue(text)
		}
		if err := table.Append([]string{e.Type, text, intOrDash(e.Start), intOrDash(e.End)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintEntityTypes lists registry entries.
func PrintEntityTypes(w io.Writer, types []entities.EntityType) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Label")
	for _, t := range types {
		if err := table.Append([]string{t.Name, t.Label}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintHistory lists audit records newest first with their index.
func PrintHistory(w io.Writer, records []audit.Record, opts PrintOptions) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, styled(dimStyle, "No redactions recorded", opts))
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("#", "When", "Source", "Replacements", "Fingerprint", "Commit")
	for i, r := range records {
		commit := r.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fp := r.Fingerprint
		if len(fp) > 12 && !redaction.IsFallbackFingerprint(fp) {
			fp = fp[:12]
		}
		row := []string{
			strconv.Itoa(i),
			r.Timestamp.Local().Format(time.DateTime),
			r.Source,
			strconv.Itoa(r.Replacements),
			fp,
			commit,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// MaskValue keeps the first and last two characters of values longer than
// eight runes and hides everything else.
func MaskValue(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return "********"
	}
	return string(r[:2]) + "…" + string(r[len(r)-2:])
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func joinMax(items []string, max int) string {
	if max > 0 && len(items) > max {
		items = append(items[:max:max], "…")
	}
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
