// Package upload builds the multipart body for /saveDocumentEntry.
package upload

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/mithrel/docman/internal/apperr"
	"github.com/mithrel/docman/internal/tags"
	"github.com/mithrel/docman/pkg/api"
)

// Form field names of the multipart body.
const (
	FieldFile = "file"
	FieldData = "data"
)

// Metadata describes an upload. MajorHead, MinorHead and UserID are
// required. DocumentDate is sent as given.
type Metadata struct {
	MajorHead       string
	MinorHead       string
	DocumentDate    string
	DocumentRemarks string
	UserID          string
}

// Payload is a validated upload, ready for the transport.
type Payload struct {
	File File
	Data api.DocumentData
	JSON []byte
}

// Build validates meta and file and assembles the payload. Nothing is sent.
func Build(meta Metadata, file File, set *tags.Set) (*Payload, error) {
	const op = "upload.build"
	var missing []string
	if file == nil {
		missing = append(missing, FieldFile)
	}
	for _, f := range []struct{ name, val string }{
		{"major_head", meta.MajorHead},
		{"minor_head", meta.MinorHead},
		{"user_id", meta.UserID},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		if len(missing) == 1 && missing[0] == FieldFile {
			return nil, apperr.Validation(op, "Please select a file to upload")
		}
		return nil, apperr.Validation(op, "Please fill in all required fields: %s", strings.Join(missing, ", "))
	}

	data := api.DocumentData{
		MajorHead:       meta.MajorHead,
		MinorHead:       meta.MinorHead,
		DocumentDate:    meta.DocumentDate,
		DocumentRemarks: meta.DocumentRemarks,
		UserID:          meta.UserID,
		Tags:            set.Slice(),
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document data: %w", err)
	}
	return &Payload{File: file, Data: data, JSON: b}, nil
}

// WriteMultipart writes the body with the parts "file" and "data" to w and
// returns its content type, boundary included.
func (p *Payload) WriteMultipart(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	return mw.FormDataContentType(), p.encode(mw)
}

// Body streams the multipart body through a pipe so large files are never
// buffered whole. The returned content type carries the boundary.
func (p *Payload) Body() (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(p.encode(mw))
	}()
	return pr, mw.FormDataContentType()
}

func (p *Payload) encode(mw *multipart.Writer) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldFile, escapeQuotes(p.File.Name())))
	h.Set("Content-Type", p.File.ContentType())
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	rc, err := p.File.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", p.File.Name(), err)
	}
	_, err = io.Copy(part, rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", p.File.Name(), err)
	}
	if err := mw.WriteField(FieldData, string(p.JSON)); err != nil {
		return err
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
