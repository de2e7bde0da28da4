package api

import (
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"
)

// Hash returns a deterministic BLAKE3 fingerprint of the record, used as a
// stable row identity since the service returns no document id.
func (r DocumentRecord) Hash() string {
	h := blake3.New()

	for _, f := range []string{r.MajorHead, r.MinorHead, r.DocumentDate, r.DocumentRemarks, r.UploadedBy, r.DocumentName, r.FileURL} {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}

	// Tag order is not significant.
	names := r.TagNames()
	sort.Strings(names)
	for _, t := range names {
		h.Write([]byte(t))
		h.Write([]byte{0})
	}
	h.Write([]byte{0})

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// ShortHash is the first 12 hex chars of Hash.
func (r DocumentRecord) ShortHash() string {
	return r.Hash()[:12]
}
