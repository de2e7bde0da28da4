package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/mithrel/docman/pkg/api"
)

// MarkdownDocuments renders docs as a markdown listing, one section each.
func MarkdownDocuments(docs []api.DocumentRecord, footer string) string {
	var b strings.Builder
	if len(docs) == 0 {
		b.WriteString("_No documents found._\n")
	}
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		title := d.DocumentName
		if title == "" {
			title = d.MajorHead + " / " + d.MinorHead
		}
		fmt.Fprintf(&b, "## %s\n\n", mdEscape(title))
		fmt.Fprintf(&b, "> **ID:** `%s` | **Date:** %s | **Uploaded by:** %s\n>\n", d.ShortHash(), d.DocumentDate, mdEscape(d.UploadedBy))
		fmt.Fprintf(&b, "> **Heads:** %s / %s\n>\n", mdEscape(d.MajorHead), mdEscape(d.MinorHead))
		fmt.Fprintf(&b, "> **Tags:** %s\n", mdEscape(strings.Join(d.TagNames(), ", ")))
		if r := strings.TrimSpace(d.DocumentRemarks); r != "" {
			fmt.Fprintf(&b, "\n%s\n", r)
		}
		if d.FileURL != "" {
			fmt.Fprintf(&b, "\n[file](%s)\n", d.FileURL)
		}
	}
	if footer != "" {
		fmt.Fprintf(&b, "\n*%s*\n", footer)
	}
	return b.String()
}

func mdEscape(s string) string {
	r := strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "|", "\\|")
	return r.Replace(s)
}

// WritePrettyDocuments renders docs with glamour.
func WritePrettyDocuments(w io.Writer, docs []api.DocumentRecord, footer string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(MarkdownDocuments(docs, footer))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
