package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mithrel/docman/internal/util"
	"github.com/mithrel/docman/pkg/api"
)

type storedDoc struct {
	id    string
	rec   api.DocumentRecord
	file  []byte
	ctype string
	added time.Time
	seq   int
}

// docStore keeps uploaded documents newest first.
type docStore struct {
	mu   sync.RWMutex
	docs []storedDoc
	seq  int
	tags map[string]struct{}
}

func newDocStore() *docStore {
	return &docStore{tags: map[string]struct{}{}}
}

func (s *docStore) add(rec api.DocumentRecord, file []byte, now time.Time) string {
	return s.addFile(rec, file, "", now)
}

func (s *docStore) addFile(rec api.DocumentRecord, file []byte, ctype string, now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := uuid.NewString()
	if rec.Tags == nil {
		rec.Tags = []api.Tag{}
	}
	for _, t := range rec.Tags {
		s.tags[t.TagName] = struct{}{}
	}
	if file != nil && rec.FileURL == "" {
		rec.FileURL = "/files/" + id
	}
	s.docs = append(s.docs, storedDoc{id: id, rec: rec, file: file, ctype: ctype, added: now, seq: s.seq})
	return id
}

func (s *docStore) file(id string) (storedDoc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.id == id && d.file != nil {
			return d, true
		}
	}
	return storedDoc{}, false
}

// search filters, orders newest first and slices [start, start+length).
func (s *docStore) search(q api.SearchRequest) ([]api.DocumentRecord, int, error) {
	m, err := newMatcher(q)
	if err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	matched := make([]storedDoc, 0, len(s.docs))
	for _, d := range s.docs {
		if m.match(d.rec) {
			matched = append(matched, d)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	total := len(matched)

	start := q.Start
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if q.Length > 0 && start+q.Length < total {
		end = start + q.Length
	}
	out := make([]api.DocumentRecord, 0, end-start)
	for _, d := range matched[start:end] {
		out = append(out, d.rec)
	}
	return out, total, nil
}

// tagList returns known tags containing term, case-insensitively, sorted.
func (s *docStore) tagList(term string) []api.Tag {
	term = strings.ToLower(strings.TrimSpace(term))
	s.mu.RLock()
	names := make([]string, 0, len(s.tags))
	for name := range s.tags {
		if term == "" || strings.Contains(strings.ToLower(name), term) {
			names = append(names, name)
		}
	}
	s.mu.RUnlock()
	sort.Strings(names)
	out := make([]api.Tag, 0, len(names))
	for _, n := range names {
		out = append(out, api.Tag{TagName: n})
	}
	return out
}

type matcher struct {
	q        api.SearchRequest
	from, to time.Time
	text     string
}

func newMatcher(q api.SearchRequest) (*matcher, error) {
	m := &matcher{q: q, text: strings.ToLower(strings.TrimSpace(q.Search.Value))}
	var err error
	if m.from, err = parseBound(q.FromDate); err != nil {
		return nil, fmt.Errorf("from_date: %w", err)
	}
	if m.to, err = parseBound(q.ToDate); err != nil {
		return nil, fmt.Errorf("to_date: %w", err)
	}
	return m, nil
}

func parseBound(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return time.Parse(util.DateLayout, strings.TrimSpace(s))
}

func (m *matcher) match(r api.DocumentRecord) bool {
	if !eqFold(m.q.MajorHead, r.MajorHead) || !eqFold(m.q.MinorHead, r.MinorHead) || !eqFold(m.q.UploadedBy, r.UploadedBy) {
		return false
	}
	if !m.matchDate(r.DocumentDate) {
		return false
	}
	for _, want := range m.q.Tags {
		if !hasTag(r, want.TagName) {
			return false
		}
	}
	return m.matchText(r)
}

func (m *matcher) matchDate(s string) bool {
	if m.from.IsZero() && m.to.IsZero() {
		return true
	}
	d, err := time.Parse(util.DateLayout, s)
	if err != nil {
		return false
	}
	if !m.from.IsZero() && d.Before(m.from) {
		return false
	}
	if !m.to.IsZero() && d.After(m.to) {
		return false
	}
	return true
}

func (m *matcher) matchText(r api.DocumentRecord) bool {
	if m.text == "" {
		return true
	}
	fields := append([]string{r.MajorHead, r.MinorHead, r.DocumentRemarks, r.DocumentName, r.UploadedBy}, r.TagNames()...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), m.text) {
			return true
		}
	}
	return false
}

// eqFold treats an empty filter as a wildcard.
func eqFold(filter, value string) bool {
	return filter == "" || strings.EqualFold(filter, value)
}

func hasTag(r api.DocumentRecord, name string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t.TagName, name) {
			return true
		}
	}
	return false
}
