package search

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mithrel/docman/internal/tags"
	"github.com/mithrel/docman/pkg/api"
)

// ErrStale reports that a response arrived after a newer request was issued
// and was discarded.
var ErrStale = errors.New("search: response superseded by a newer request")

// Backend executes a search request.
type Backend interface {
	SearchDocuments(ctx context.Context, req api.SearchRequest) (api.SearchResponse, error)
}

// View is what a screen renders after a search.
type View struct {
	Documents  []api.DocumentRecord
	Page       Page
	RangeLabel string
	PageLabel  string
	HasNext    bool
	HasPrev    bool
	Loading    bool
	Err        error
}

// Session owns the filters, pager and current results of one search screen.
// Only the response to the most recently issued request is ever applied.
type Session struct {
	backend Backend
	log     *zap.Logger

	mu      sync.Mutex
	filters Filters
	pager   *Pager
	docs    []api.DocumentRecord
	shown   int // page index the current docs belong to
	seq     uint64
	loading bool
	lastErr error
}

type SessionOption func(*Session)

func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession returns a Session with empty filters on page 0.
func NewSession(b Backend, pageSize int, opts ...SessionOption) *Session {
	s := &Session{
		backend: b,
		log:     zap.NewNop(),
		filters: Filters{Tags: tags.New()},
		pager:   NewPager(pageSize),
		docs:    []api.DocumentRecord{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Update mutates the filters. It does not fetch.
func (s *Session) Update(fn func(f *Filters)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.filters)
	if s.filters.Tags == nil {
		s.filters.Tags = tags.New()
	}
}

// Filters returns a copy of the current filters.
func (s *Session) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

func (s *Session) AddTag(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Tags.Add(name)
}

func (s *Session) RemoveTag(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Tags.Remove(index)
}

// Clear resets filters and the page index without fetching. Responses to
// requests already in flight are discarded.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = Filters{Tags: tags.New()}
	s.pager.Reset()
	s.shown = 0
	s.seq++
	s.loading = false
	s.lastErr = nil
}

// Search runs the current filters from the first page.
func (s *Session) Search(ctx context.Context) (View, error) {
	return s.issue(ctx, "search", func(p *Pager) bool { p.Reset(); return true })
}

// Fetch reloads the current page.
func (s *Session) Fetch(ctx context.Context) (View, error) {
	return s.issue(ctx, "fetch", nil)
}

// NextPage moves forward and fetches. At the last page it is a no-op.
func (s *Session) NextPage(ctx context.Context) (View, error) {
	return s.issue(ctx, "next", (*Pager).Next)
}

// PrevPage moves back and fetches. At the first page it is a no-op.
func (s *Session) PrevPage(ctx context.Context) (View, error) {
	return s.issue(ctx, "prev", (*Pager).Previous)
}

// GoTo fetches page index directly. Before the first response the total is
// unknown, so the index is only clamped once the reply arrives.
func (s *Session) GoTo(ctx context.Context, index int) (View, error) {
	return s.issue(ctx, "goto", func(p *Pager) bool {
		if p.total > 0 {
			p.SetIndex(index)
		} else {
			p.index = max(0, index)
		}
		return true
	})
}

// issue snapshots filters and page into one request, tags it with a fresh
// sequence number and applies the response only if no newer request was
// issued meanwhile. A failed fetch puts the pager back on the page whose
// documents are shown, which may differ from the index this request started
// from when an earlier move is still in flight.
func (s *Session) issue(ctx context.Context, op string, move func(*Pager) bool) (View, error) {
	s.mu.Lock()
	if move != nil && !move(s.pager) {
		v := s.viewLocked()
		s.mu.Unlock()
		return v, nil
	}
	s.seq++
	seq := s.seq
	req := BuildQuery(s.filters, s.pager.Snapshot(), s.filters.Query)
	s.loading = true
	s.mu.Unlock()

	resp, err := s.backend.SearchDocuments(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.log.Debug("discarding stale search response", zap.String("op", op), zap.Uint64("seq", seq), zap.Uint64("latest", s.seq))
		return s.viewLocked(), ErrStale
	}
	s.loading = false
	if err != nil {
		s.pager.restore(s.shown)
		s.lastErr = err
		s.log.Warn("search failed", zap.String("op", op), zap.Error(err))
		return s.viewLocked(), err
	}
	s.lastErr = nil
	s.docs = resp.Data
	if s.docs == nil {
		s.docs = []api.DocumentRecord{}
	}
	s.pager.SetTotal(resp.RecordsTotal)
	s.shown = s.pager.index
	s.log.Debug("search applied", zap.String("op", op), zap.Int("records", len(resp.Data)), zap.Int("total", resp.RecordsTotal))
	return s.viewLocked(), nil
}

// View returns the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	return View{
		Documents:  append([]api.DocumentRecord(nil), s.docs...),
		Page:       s.pager.Snapshot(),
		RangeLabel: s.pager.RangeLabel(),
		PageLabel:  s.pager.PageLabel(),
		HasNext:    s.pager.HasNext(),
		HasPrev:    s.pager.HasPrev(),
		Loading:    s.loading,
		Err:        s.lastErr,
	}
}

// FetchAll walks every page of the current filters from the first one and
// hands each batch to fn. Session state is not touched.
func (s *Session) FetchAll(ctx context.Context, fn func(batch []api.DocumentRecord, p Page) error) error {
	s.mu.Lock()
	f := s.filters.Clone()
	size := s.pager.size
	s.mu.Unlock()

	pager := NewPager(size)
	for {
		req := BuildQuery(f, pager.Snapshot(), f.Query)
		resp, err := s.backend.SearchDocuments(ctx, req)
		if err != nil {
			return err
		}
		pager.SetTotal(resp.RecordsTotal)
		if len(resp.Data) == 0 {
			return nil
		}
		if err := fn(resp.Data, pager.Snapshot()); err != nil {
			return err
		}
		if !pager.Next() {
			return nil
		}
	}
}
