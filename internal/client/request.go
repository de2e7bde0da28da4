package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mithrel/docman/internal/upload"
	"github.com/mithrel/docman/pkg/api"
)

// Endpoint paths relative to the service base URL.
const (
	PathGenerateOTP  = "/generateOTP"
	PathValidateOTP  = "/validateOTP"
	PathSaveDocument = "/saveDocumentEntry"
	PathSearch       = "/searchDocumentEntry"
	PathTags         = "/documentTags"
)

// TokenHeader carries the session token on authenticated calls.
const TokenHeader = "token"

// Request describes one call to the document service. Building a Request
// performs no I/O.
type Request struct {
	Op     string
	Method string
	Path   string
	// Auth requests need a session token.
	Auth bool
	// Fallback is reported when a failed response carries no message.
	Fallback string
	// JSON is the encoded body of JSON requests.
	JSON []byte

	body func() (io.ReadCloser, string)
}

// Header returns the headers sent with r for the given token. The multipart
// content type is only known once the body is opened, so it is absent here.
func (r *Request) Header(token string) http.Header {
	h := http.Header{}
	if r.JSON != nil {
		h.Set("Content-Type", "application/json")
	}
	if r.Auth {
		h.Set(TokenHeader, token)
	}
	return h
}

func (r *Request) open() (io.ReadCloser, string) {
	if r.body != nil {
		return r.body()
	}
	if r.JSON != nil {
		return io.NopCloser(bytes.NewReader(r.JSON)), "application/json"
	}
	return nil, ""
}

func jsonRequest(op, path, fallback string, auth bool, v any) (*Request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Request{Op: op, Method: http.MethodPost, Path: path, Auth: auth, Fallback: fallback, JSON: b}, nil
}

func NewGenerateOTPRequest(mobile string) (*Request, error) {
	return jsonRequest("generate_otp", PathGenerateOTP, "Failed to send OTP", false, api.GenerateOTPRequest{MobileNumber: mobile})
}

func NewValidateOTPRequest(mobile, otp string) (*Request, error) {
	return jsonRequest("validate_otp", PathValidateOTP, "Invalid OTP", false, api.ValidateOTPRequest{MobileNumber: mobile, OTP: otp})
}

func NewSearchRequest(q api.SearchRequest) (*Request, error) {
	if q.Tags == nil {
		q.Tags = []api.Tag{}
	}
	return jsonRequest("search_documents", PathSearch, "Search failed", true, q)
}

func NewTagsRequest(term string) (*Request, error) {
	return jsonRequest("list_tags", PathTags, "Failed to fetch tags", true, api.TagsRequest{Term: term})
}

// NewSaveDocumentRequest streams p as multipart form data. No Content-Type
// is preset; the boundary comes from the body.
func NewSaveDocumentRequest(p *upload.Payload) *Request {
	return &Request{
		Op:       "save_document",
		Method:   http.MethodPost,
		Path:     PathSaveDocument,
		Auth:     true,
		Fallback: "Failed to upload document",
		body:     p.Body,
	}
}
