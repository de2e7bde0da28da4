// Package search turns filter state into search requests and walks the
// paged results.
package search

import (
	"time"

	"github.com/mithrel/docman/internal/tags"
	"github.com/mithrel/docman/internal/util"
	"github.com/mithrel/docman/pkg/api"
)

// Date is a filter bound: either a calendar date the client formats itself
// or a string supplied pre-formatted. The zero value is unset.
type Date struct {
	t   time.Time
	raw string
}

// On returns a Date for the calendar day of t.
func On(t time.Time) Date { return Date{t: t} }

// Raw returns a Date passed to the wire unchanged.
func Raw(s string) Date { return Date{raw: s} }

func (d Date) IsZero() bool { return d.t.IsZero() && d.raw == "" }

// Wire renders d for the request body.
func (d Date) Wire() string {
	if !d.t.IsZero() {
		return util.FormatDate(d.t)
	}
	return d.raw
}

// Filters is the user-entered search criteria. The zero value matches
// everything.
type Filters struct {
	MajorHead  string
	MinorHead  string
	FromDate   Date
	ToDate     Date
	UploadedBy string
	Tags       *tags.Set
	Query      string
}

// Clone returns a copy that shares no tag storage with f.
func (f Filters) Clone() Filters {
	f.Tags = f.Tags.Clone()
	return f
}

// BuildQuery assembles the /searchDocumentEntry body. Every string field is
// present even when empty and nothing is trimmed.
func BuildQuery(f Filters, p Page, freeText string) api.SearchRequest {
	return api.SearchRequest{
		MajorHead:  f.MajorHead,
		MinorHead:  f.MinorHead,
		FromDate:   f.FromDate.Wire(),
		ToDate:     f.ToDate.Wire(),
		Tags:       f.Tags.Slice(),
		UploadedBy: f.UploadedBy,
		Start:      p.Index * p.Size,
		Length:     p.Size,
		FilterID:   "",
		Search:     api.SearchValue{Value: freeText},
	}
}
