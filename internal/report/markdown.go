package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// BuildMarkdown renders the run report as Markdown. The ops console turns
// it into HTML; the raw text stays readable in a terminal or a ticket.
func BuildMarkdown(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Generation Report: %s\n\n", r.Identifier)
	fmt.Fprintf(&b, "- **Status**: %s\n", r.Status)
	if r.Customer != "" {
		fmt.Fprintf(&b, "- **Customer**: %s\n", r.Customer)
	}
	fmt.Fprintf(&b, "- **Output**: %s\n", filepath.Base(r.OutputFile))
	fmt.Fprintf(&b, "- **Generated**: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Duration**: %dms\n", r.DurationMS)
	if r.DAFMode {
		b.WriteString("- **Mode**: DAF\n")
	}
	if r.CustomMode {
		b.WriteString("- **Mode**: custom\n")
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "- **Error**: %s\n", r.Error)
	}
	b.WriteString("\n")

	if len(r.Sheets) > 0 {
		b.WriteString("## Sheets\n\n")
		b.WriteString("| Sheet | Result | Tables | Rows | Duration |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, s := range r.Sheets {
			result := "ok"
			if !s.Succeeded {
				result = "failed: " + s.Error
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %dms |\n", s.Name, result, s.Tables, s.Rows, s.DurationMS)
		}
		b.WriteString("\n")
	}

	if len(r.Summary) > 0 {
		b.WriteString("## Quantity Summary\n\n")
		b.WriteString("| Column | Total | Mean | Median | Max | Count |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		cols := make([]string, 0, len(r.Summary))
		for col := range r.Summary {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			cs := r.Summary[col]
			fmt.Fprintf(&b, "| %s | %.2f | %.2f | %.2f | %.2f | %d |\n", col, cs.Total, cs.Mean, cs.Median, cs.Max, cs.Count)
		}
		b.WriteString("\n")
	}

	if len(r.Replacements) > 0 {
		b.WriteString("## Text Replacements\n\n")
		for _, entry := range r.Replacements {
			fmt.Fprintf(&b, "- `%s` -> `%s` at %s\n", entry.Original, entry.New, entry.Location)
		}
		b.WriteString("\n")
	}

	return b.String()
}
