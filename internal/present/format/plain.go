package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mithrel/docman/pkg/api"
)

// TSV columns: id, date, major_head, minor_head, uploaded_by, tags, name, remarks
var headerLine = "id\tdate\tmajor_head\tminor_head\tuploaded_by\ttags\tname\tremarks\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func plainLine(d api.DocumentRecord) string {
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		d.ShortHash(), esc(d.DocumentDate), esc(d.MajorHead), esc(d.MinorHead),
		esc(d.UploadedBy), esc(joinTags(d.TagNames())), esc(d.DocumentName), esc(d.DocumentRemarks))
}

func WritePlainDocuments(w io.Writer, docs []api.DocumentRecord, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	for _, d := range docs {
		_, _ = io.WriteString(tw, plainLine(d))
	}
	return tw.Flush()
}

// PlainStreamWriter incrementally writes documents in the same plain format.
// Column widths are computed per batch.
type PlainStreamWriter struct {
	tw          *tabwriter.Writer
	headers     bool
	wroteHeader bool
}

func NewPlainStreamWriter(w io.Writer, headers bool) *PlainStreamWriter {
	return &PlainStreamWriter{
		tw:      tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: headers,
	}
}

// WriteDocuments writes a batch of documents and flushes.
func (pw *PlainStreamWriter) WriteDocuments(docs []api.DocumentRecord) error {
	if pw.headers && !pw.wroteHeader {
		_, _ = io.WriteString(pw.tw, headerLine)
		pw.wroteHeader = true
	}
	for _, d := range docs {
		_, _ = io.WriteString(pw.tw, plainLine(d))
	}
	return pw.tw.Flush()
}

func (pw *PlainStreamWriter) Close() error {
	return pw.tw.Flush()
}
