// Package present renders documents and tags in the selected output mode.
package present

import (
	"fmt"
	"io"

	"github.com/mithrel/docman/internal/present/format"
	"github.com/mithrel/docman/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
	ModeYAML
	ModeTUI
)

func (m Mode) String() string {
	switch m {
	case ModePretty:
		return "pretty"
	case ModeJSON:
		return "json"
	case ModeNDJSON:
		return "ndjson"
	case ModeYAML:
		return "yaml"
	case ModeTUI:
		return "tui"
	default:
		return "plain"
	}
}

// Machine reports whether m is meant for other programs rather than people.
func (m Mode) Machine() bool {
	return m == ModeJSON || m == ModeNDJSON || m == ModeYAML
}

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	// Footer is shown under human-readable listings, e.g. the range label.
	Footer string
}

// ParseMode parses a string like "plain", "pretty", "json", "ndjson", "yaml", "tui".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "plain":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	case "yaml":
		return ModeYAML, true
	case "tui":
		return ModeTUI, true
	default:
		return ModePlain, false
	}
}

// RenderDocuments renders a list of documents according to options. The
// TUI is interactive and is started by the caller instead.
func RenderDocuments(w io.Writer, docs []api.DocumentRecord, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSONDocuments(w, docs, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONDocuments(w, docs)
	case ModeYAML:
		return format.WriteYAMLDocuments(w, docs)
	case ModePretty:
		return format.WritePrettyDocuments(w, docs, opts.Footer)
	case ModeTUI:
		return fmt.Errorf("tui output must be started interactively")
	default:
		if err := format.WritePlainDocuments(w, docs, opts.Headers); err != nil {
			return err
		}
		if opts.Footer != "" {
			_, err := fmt.Fprintln(w, opts.Footer)
			return err
		}
		return nil
	}
}

// RenderValue renders v (tag lists, summaries). Human modes print lines.
func RenderValue(w io.Writer, v any, lines []string, opts Options) error {
	switch opts.Mode {
	case ModeJSON, ModeNDJSON:
		return format.WriteJSONValue(w, v, opts.JSONIndent && opts.Mode == ModeJSON)
	case ModeYAML:
		return format.WriteYAMLValue(w, v)
	default:
		for _, l := range lines {
			if _, err := fmt.Fprintln(w, l); err != nil {
				return err
			}
		}
		return nil
	}
}

// DocumentStreamWriter writes documents batch by batch.
type DocumentStreamWriter interface {
	WriteDocuments([]api.DocumentRecord) error
	Close() error
}

func NewDocumentStreamWriter(w io.Writer, opts Options) DocumentStreamWriter {
	switch opts.Mode {
	case ModeJSON:
		return format.NewJSONStreamWriter(w, opts.JSONIndent)
	case ModeNDJSON:
		return format.NewNDJSONStreamWriter(w)
	case ModeYAML:
		return format.NewYAMLStreamWriter(w)
	default:
		return format.NewPlainStreamWriter(w, opts.Headers)
	}
}
