package report

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/datafog/datafog-go/internal/redaction"
)

// RedactionReport is the input to WriteMarkdown.
type RedactionReport struct {
	Source    string
	When      time.Time
	Set       *redaction.DetectionSet
	Result    redaction.Result
	Redacted  bool
	ShowValue bool
}

// WriteMarkdown renders a shareable report: overview table, category
// distribution and a row per detection. Values are masked unless ShowValue
// is set. The redacted text is included when Redacted is set.
func WriteMarkdown(w io.Writer, r RedactionReport) error {
	md := markdown.NewMarkdown(w)
	md.H1("DataFog Redaction Report")
	md.PlainText("")

	when := r.When
	if when.IsZero() {
		when = time.Now()
	}
	fp := r.Set.Fingerprint()
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + r.Source + "`"},
			{"Date", when.Format("2006-01-02 15:04:05 MST")},
			{"Detections", strconv.Itoa(r.Set.Len())},
			{"Replacements", strconv.Itoa(r.Result.Replacements)},
			{"Fingerprint", "`" + fp + "`"},
		},
	})
	md.PlainText("")
	if redaction.IsFallbackFingerprint(fp) {
		md.Warningf("The fingerprint could not be computed; this report cannot be matched against other runs.")
		md.PlainText("")
	}

	writeCategories(md, r.Set.Categories())

	md.H2("Detections")
	md.PlainText("")
	rows := make([][]string, 0, r.Set.Len())
	for _, d := range r.Set.Detections() {
		val := d.Value()
		if !r.ShowValue {
			val = MaskValue(val)
		}
		span := "-"
		if s, e, ok := d.Offsets(); ok {
			span = strconv.Itoa(s) + "-" + strconv.Itoa(e)
		}
		rows = append(rows, []string{d.Placeholder(), d.Category(), "`" + val + "`", span})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Placeholder", "Category", "Value", "Span"},
		Rows:   rows,
	})
	md.PlainText("")

	if r.Redacted {
		md.H2("Redacted Text")
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightText, r.Result.Text)
		md.PlainText("")
	}
	return md.Build()
}

func writeCategories(md *markdown.Markdown, cats map[string]int) {
	names := make([]string, 0, len(cats))
	for c := range cats {
		names = append(names, c)
	}
	sort.Strings(names)

	md.H2("Categories")
	md.PlainText("")
	bullets := make([]string, len(names))
	chart := piechart.NewPieChart(io.Discard,
		piechart.WithTitle("Detections by Category"),
		piechart.WithShowData(true))
	for i, c := range names {
		bullets[i] = c + ": " + strconv.Itoa(cats[c])
		chart.LabelAndIntValue(c, uint64(cats[c]))
	}
	md.BulletList(bullets...)
	md.PlainText("")
	if len(names) > 1 {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}
