package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/docman/pkg/api"
)

// NDJSONStreamWriter writes one JSON object per line. It also serves the
// non-streaming case.
type NDJSONStreamWriter struct {
	enc *json.Encoder
}

func NewNDJSONStreamWriter(w io.Writer) *NDJSONStreamWriter {
	return &NDJSONStreamWriter{enc: json.NewEncoder(w)}
}

func (nw *NDJSONStreamWriter) WriteDocuments(docs []api.DocumentRecord) error {
	for _, d := range docs {
		if err := nw.enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op for NDJSON output.
func (nw *NDJSONStreamWriter) Close() error { return nil }

func WriteNDJSONDocuments(w io.Writer, docs []api.DocumentRecord) error {
	return NewNDJSONStreamWriter(w).WriteDocuments(docs)
}
