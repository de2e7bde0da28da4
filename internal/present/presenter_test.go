package present

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/docman/pkg/api"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"plain", "pretty", "json", "ndjson", "yaml", "tui"} {
		m, ok := ParseMode(s)
		require.True(t, ok, s)
		assert.Equal(t, s, m.String())
	}
	_, ok := ParseMode("xml")
	assert.False(t, ok)
}

func TestRenderDocumentsPlainFooter(t *testing.T) {
	var buf bytes.Buffer
	docs := []api.DocumentRecord{{MajorHead: "HR", MinorHead: "Policy"}}
	require.NoError(t, RenderDocuments(&buf, docs, Options{Mode: ModePlain, Footer: "Showing 1 to 1 of 1"}))
	assert.True(t, strings.HasSuffix(buf.String(), "Showing 1 to 1 of 1\n"))
}

func TestRenderDocumentsJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDocuments(&buf, nil, Options{Mode: ModeJSON}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestRenderValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderValue(&buf, []string{"a", "b"}, []string{"a", "b"}, Options{Mode: ModePlain}))
	assert.Equal(t, "a\nb\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderValue(&buf, map[string]int{"total": 3}, nil, Options{Mode: ModeJSON}))
	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 3, got["total"])
}

func TestStreamWriterByMode(t *testing.T) {
	var buf bytes.Buffer
	w := NewDocumentStreamWriter(&buf, Options{Mode: ModeNDJSON})
	require.NoError(t, w.WriteDocuments([]api.DocumentRecord{{MajorHead: "x"}}))
	require.NoError(t, w.Close())
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}
