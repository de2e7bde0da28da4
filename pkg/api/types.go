// Package api holds the wire types exchanged with the document service.
package api

// Tag is a single document label.
type Tag struct {
	TagName string `json:"tag_name" yaml:"tag_name"`
}

// DocumentRecord is a document entry as returned by search.
type DocumentRecord struct {
	MajorHead       string `json:"major_head" yaml:"major_head"`
	MinorHead       string `json:"minor_head" yaml:"minor_head"`
	DocumentDate    string `json:"document_date" yaml:"document_date"`
	DocumentRemarks string `json:"document_remarks" yaml:"document_remarks"`
	UploadedBy      string `json:"uploaded_by" yaml:"uploaded_by"`
	Tags            []Tag  `json:"tags" yaml:"tags"`
	DocumentName    string `json:"document_name,omitempty" yaml:"document_name,omitempty"`
	FileURL         string `json:"file_url,omitempty" yaml:"file_url,omitempty"`
}

// TagNames flattens r.Tags.
func (r DocumentRecord) TagNames() []string {
	out := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		out = append(out, t.TagName)
	}
	return out
}

type GenerateOTPRequest struct {
	MobileNumber string `json:"mobile_number"`
}

type ValidateOTPRequest struct {
	MobileNumber string `json:"mobile_number"`
	OTP          string `json:"otp"`
}

// ValidateOTPResponse carries the session token. Some deployments nest it
// under data.
type ValidateOTPResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
	Data    *struct {
		Token string `json:"token"`
	} `json:"data,omitempty"`
}

// SessionToken returns the token wherever the server put it.
func (r ValidateOTPResponse) SessionToken() string {
	if r.Token != "" {
		return r.Token
	}
	if r.Data != nil {
		return r.Data.Token
	}
	return ""
}

// MessageResponse is the body of a 2xx reply that only carries a message,
// and of every non-2xx reply.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Status  bool   `json:"status,omitempty"`
}

// SearchValue is the free-text part of a search.
type SearchValue struct {
	Value string `json:"value"`
}

// SearchRequest is the body of /searchDocumentEntry. Every field is always
// serialized, empty strings included.
type SearchRequest struct {
	MajorHead  string      `json:"major_head"`
	MinorHead  string      `json:"minor_head"`
	FromDate   string      `json:"from_date"`
	ToDate     string      `json:"to_date"`
	Tags       []Tag       `json:"tags"`
	UploadedBy string      `json:"uploaded_by"`
	Start      int         `json:"start"`
	Length     int         `json:"length"`
	FilterID   string      `json:"filterId"`
	Search     SearchValue `json:"search"`
}

type SearchResponse struct {
	Data         []DocumentRecord `json:"data"`
	RecordsTotal int              `json:"recordsTotal"`
}

// DocumentData is the JSON carried in the "data" part of an upload.
type DocumentData struct {
	MajorHead       string `json:"major_head"`
	MinorHead       string `json:"minor_head"`
	DocumentDate    string `json:"document_date"`
	DocumentRemarks string `json:"document_remarks"`
	UserID          string `json:"user_id"`
	Tags            []Tag  `json:"tags"`
}

type TagsRequest struct {
	Term string `json:"term"`
}

// TagsResponse lists known tags. Older deployments answer with data.
type TagsResponse struct {
	Tags []Tag `json:"tags"`
	Data []Tag `json:"data,omitempty"`
}

// All returns whichever tag list the server filled in.
func (r TagsResponse) All() []Tag {
	if len(r.Tags) > 0 {
		return r.Tags
	}
	return r.Data
}
