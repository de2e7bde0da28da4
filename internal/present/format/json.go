package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/docman/pkg/api"
)

func WriteJSONDocuments(w io.Writer, docs []api.DocumentRecord, indent bool) error {
	if docs == nil {
		docs = []api.DocumentRecord{}
	}
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(docs)
}

// WriteJSONValue encodes any value, used for tag lists and summaries.
func WriteJSONValue(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// JSONStreamWriter incrementally writes documents as a JSON array.
type JSONStreamWriter struct {
	w        io.Writer
	indent   bool
	wroteAny bool
}

func NewJSONStreamWriter(w io.Writer, indent bool) *JSONStreamWriter {
	return &JSONStreamWriter{w: w, indent: indent}
}

// WriteDocuments writes a batch of documents.
func (jw *JSONStreamWriter) WriteDocuments(docs []api.DocumentRecord) error {
	for _, d := range docs {
		var (
			b   []byte
			err error
		)
		if jw.indent {
			b, err = json.MarshalIndent(d, "  ", "  ")
		} else {
			b, err = json.Marshal(d)
		}
		if err != nil {
			return err
		}
		sep := "["
		if jw.wroteAny {
			sep = ","
		}
		if jw.indent {
			sep += "\n  "
		}
		if _, err := io.WriteString(jw.w, sep); err != nil {
			return err
		}
		if _, err := jw.w.Write(b); err != nil {
			return err
		}
		jw.wroteAny = true
	}
	return nil
}

// Close finishes the JSON array.
func (jw *JSONStreamWriter) Close() error {
	switch {
	case !jw.wroteAny:
		_, err := io.WriteString(jw.w, "[]\n")
		return err
	case jw.indent:
		_, err := io.WriteString(jw.w, "\n]\n")
		return err
	default:
		_, err := io.WriteString(jw.w, "]\n")
		return err
	}
}
