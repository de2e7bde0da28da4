package format

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mithrel/docman/pkg/api"
)

func WriteYAMLDocuments(w io.Writer, docs []api.DocumentRecord) error {
	if docs == nil {
		docs = []api.DocumentRecord{}
	}
	return WriteYAMLValue(w, docs)
}

func WriteYAMLValue(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// YAMLStreamWriter emits each batch as items of one top-level sequence.
type YAMLStreamWriter struct {
	w        io.Writer
	wroteAny bool
}

func NewYAMLStreamWriter(w io.Writer) *YAMLStreamWriter {
	return &YAMLStreamWriter{w: w}
}

func (yw *YAMLStreamWriter) WriteDocuments(docs []api.DocumentRecord) error {
	if len(docs) == 0 {
		return nil
	}
	yw.wroteAny = true
	return WriteYAMLValue(yw.w, docs)
}

func (yw *YAMLStreamWriter) Close() error {
	if !yw.wroteAny {
		_, err := io.WriteString(yw.w, "[]\n")
		return err
	}
	return nil
}
