package upload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/docman/internal/apperr"
	"github.com/mithrel/docman/internal/tags"
	"github.com/mithrel/docman/pkg/api"
)

func validMeta() Metadata {
	return Metadata{
		MajorHead:       "HR",
		MinorHead:       "Policy",
		DocumentDate:    "05-03-2024",
		DocumentRemarks: "leave policy",
		UserID:          "alice",
	}
}

func TestBuildValidation(t *testing.T) {
	file := NewMemFile("a.pdf", "application/pdf", []byte("%PDF-1.4"))

	t.Run("missing file", func(t *testing.T) {
		_, err := Build(validMeta(), nil, tags.New())
		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Contains(t, apperr.Message(err), "select a file")
	})

	t.Run("missing required fields are listed", func(t *testing.T) {
		m := validMeta()
		m.MajorHead = ""
		m.UserID = "   "
		_, err := Build(m, file, tags.New())
		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Contains(t, apperr.Message(err), "major_head, user_id")
	})

	t.Run("optional fields may be empty", func(t *testing.T) {
		m := validMeta()
		m.DocumentDate = ""
		m.DocumentRemarks = ""
		_, err := Build(m, file, nil)
		require.NoError(t, err)
	})
}

func TestBuildDedupsTags(t *testing.T) {
	set := tags.New()
	set.Add("urgent")
	set.Add("urgent")

	p, err := Build(validMeta(), NewMemFile("a.pdf", "application/pdf", []byte("x")), set)
	require.NoError(t, err)

	var got api.DocumentData
	require.NoError(t, json.Unmarshal(p.JSON, &got))
	assert.Equal(t, []api.Tag{{TagName: "urgent"}}, got.Tags)
	assert.Equal(t, "05-03-2024", got.DocumentDate)
	assert.Equal(t, "alice", got.UserID)
}

func readParts(t *testing.T, body io.Reader, contentType string) map[string][]byte {
	t.Helper()
	mt, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mt)
	mr := multipart.NewReader(body, params["boundary"])
	parts := map[string][]byte{}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		parts[p.FormName()] = b
		if p.FormName() == FieldFile {
			assert.Equal(t, "report.pdf", p.FileName())
			assert.Equal(t, "application/pdf", p.Header.Get("Content-Type"))
		}
	}
	return parts
}

func TestWriteMultipart(t *testing.T) {
	content := []byte("%PDF-1.4 body")
	p, err := Build(validMeta(), NewMemFile("report.pdf", "application/pdf", content), tags.New("hr"))
	require.NoError(t, err)

	var buf bytes.Buffer
	ct, err := p.WriteMultipart(&buf)
	require.NoError(t, err)

	parts := readParts(t, &buf, ct)
	require.Len(t, parts, 2)
	assert.Equal(t, content, parts[FieldFile])
	assert.JSONEq(t, `{"major_head":"HR","minor_head":"Policy","document_date":"05-03-2024","document_remarks":"leave policy","user_id":"alice","tags":[{"tag_name":"hr"}]}`, string(parts[FieldData]))
}

func TestBodyStreams(t *testing.T) {
	p, err := Build(validMeta(), NewMemFile("report.pdf", "application/pdf", []byte("abc")), nil)
	require.NoError(t, err)
	body, ct := p.Body()
	defer body.Close()
	parts := readParts(t, body, ct)
	assert.Equal(t, []byte("abc"), parts[FieldFile])
	assert.Contains(t, string(parts[FieldData]), `"tags":[]`)
}

func TestOpenFileAndDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	f, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name())
	assert.Equal(t, int64(5), f.Size())
	assert.Contains(t, f.ContentType(), "text/plain")

	d1, err := Digest(f)
	require.NoError(t, err)
	d2, err := Digest(NewMemFile("x", "", []byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)

	_, err = OpenFile(dir)
	assert.Error(t, err)
}
