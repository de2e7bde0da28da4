package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/docman/pkg/api"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

// scriptedBackend answers each request from a handler, optionally holding
// the response until released.
type scriptedBackend struct {
	mu       sync.Mutex
	requests []api.SearchRequest
	handle   func(req api.SearchRequest) (api.SearchResponse, error)
	gates    map[string]chan struct{}
}

func (b *scriptedBackend) SearchDocuments(ctx context.Context, req api.SearchRequest) (api.SearchResponse, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	gate := b.gates[req.Search.Value]
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return b.handle(req)
}

func (b *scriptedBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func docs(prefix string, n int) []api.DocumentRecord {
	out := make([]api.DocumentRecord, n)
	for i := range out {
		out[i] = api.DocumentRecord{MajorHead: prefix, DocumentRemarks: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

func pagedBackend(total int) *scriptedBackend {
	return &scriptedBackend{handle: func(req api.SearchRequest) (api.SearchResponse, error) {
		n := min(req.Length, max(0, total-req.Start))
		return api.SearchResponse{Data: docs(fmt.Sprintf("p%d", req.Start/req.Length), n), RecordsTotal: total}, nil
	}}
}

func TestSessionSearchAndPaging(t *testing.T) {
	ctx := context.Background()
	b := pagedBackend(23)
	s := NewSession(b, 10)

	s.Update(func(f *Filters) { f.MajorHead = "HR" })
	v, err := s.Search(ctx)
	require.NoError(t, err)
	assert.Len(t, v.Documents, 10)
	assert.Equal(t, "1 to 10 of 23", v.RangeLabel)
	assert.True(t, v.HasNext)
	assert.Equal(t, "HR", b.requests[0].MajorHead)

	v, err = s.NextPage(ctx)
	require.NoError(t, err)
	v, err = s.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, v.Documents, 3)
	assert.Equal(t, "Page 3 of 3", v.PageLabel)
	assert.Equal(t, 20, b.requests[2].Start)

	_, err = s.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, b.count(), "next past the last page does not fetch")

	v, err = s.Search(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Page.Index, "a new search restarts from the first page")
}

func TestSessionStaleResponseIsDiscarded(t *testing.T) {
	ctx := context.Background()
	gateA := make(chan struct{})
	b := &scriptedBackend{
		gates: map[string]chan struct{}{"A": gateA},
		handle: func(req api.SearchRequest) (api.SearchResponse, error) {
			return api.SearchResponse{Data: docs(req.Search.Value, 1), RecordsTotal: 1}, nil
		},
	}
	s := NewSession(b, 10)

	s.Update(func(f *Filters) { f.Query = "A" })
	errA := make(chan error, 1)
	go func() {
		_, err := s.Search(ctx)
		errA <- err
	}()
	require.Eventually(t, func() bool { return b.count() == 1 }, timeout, tick)

	s.Update(func(f *Filters) { f.Query = "B" })
	v, err := s.Search(ctx)
	require.NoError(t, err)
	require.Len(t, v.Documents, 1)
	assert.Equal(t, "B", v.Documents[0].MajorHead)

	close(gateA)
	require.ErrorIs(t, <-errA, ErrStale)

	v = s.View()
	require.Len(t, v.Documents, 1)
	assert.Equal(t, "B", v.Documents[0].MajorHead, "late response A must not overwrite B")
	assert.False(t, v.Loading)
}

func TestSessionFailureRestoresPage(t *testing.T) {
	ctx := context.Background()
	fail := false
	b := pagedBackend(30)
	ok := b.handle
	b.handle = func(req api.SearchRequest) (api.SearchResponse, error) {
		if fail {
			return api.SearchResponse{}, errors.New("boom")
		}
		return ok(req)
	}
	s := NewSession(b, 10)
	_, err := s.Search(ctx)
	require.NoError(t, err)

	fail = true
	v, err := s.NextPage(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, v.Page.Index)
	assert.Len(t, v.Documents, 10, "previous results stay visible")
	assert.Error(t, v.Err)
}

func TestSessionFailureAfterPendingMoveRestoresShownPage(t *testing.T) {
	for name, second := range map[string]func(*Session, context.Context) (View, error){
		"search":    (*Session).Search,
		"next page": (*Session).NextPage,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := pagedBackend(30)
			ok := b.handle
			b.handle = func(req api.SearchRequest) (api.SearchResponse, error) {
				if req.Search.Value == "B" {
					return api.SearchResponse{}, errors.New("boom")
				}
				return ok(req)
			}
			s := NewSession(b, 10)
			s.Update(func(f *Filters) { f.Query = "A" })
			_, err := s.Search(ctx)
			require.NoError(t, err)

			gate := make(chan struct{})
			b.mu.Lock()
			b.gates = map[string]chan struct{}{"A": gate}
			b.mu.Unlock()
			errA := make(chan error, 1)
			go func() {
				_, err := s.NextPage(ctx)
				errA <- err
			}()
			require.Eventually(t, func() bool { return b.count() == 2 }, timeout, tick)

			s.Update(func(f *Filters) { f.Query = "B" })
			v, err := second(s, ctx)
			require.Error(t, err)
			assert.Equal(t, 0, v.Page.Index)
			assert.Equal(t, "1 to 10 of 30", v.RangeLabel)
			require.NotEmpty(t, v.Documents)
			assert.Equal(t, "p0", v.Documents[0].MajorHead, "labels match the documents on screen")

			close(gate)
			require.ErrorIs(t, <-errA, ErrStale)
			assert.Equal(t, 0, s.View().Page.Index)
		})
	}
}

func TestSessionClear(t *testing.T) {
	ctx := context.Background()
	b := pagedBackend(30)
	s := NewSession(b, 10)
	s.Update(func(f *Filters) {
		f.MajorHead = "HR"
		f.Query = "x"
	})
	s.AddTag("urgent")
	_, err := s.Search(ctx)
	require.NoError(t, err)
	_, err = s.NextPage(ctx)
	require.NoError(t, err)
	calls := b.count()

	s.Clear()
	f := s.Filters()
	assert.Equal(t, "", f.MajorHead)
	assert.Equal(t, "", f.Query)
	assert.Equal(t, 0, f.Tags.Len())
	assert.Equal(t, 0, s.View().Page.Index)
	assert.Equal(t, calls, b.count(), "clear does not fetch")
}

func TestSessionTagsAreOwned(t *testing.T) {
	s := NewSession(pagedBackend(0), 10)
	s.AddTag("a")
	f := s.Filters()
	f.Tags.Add("b")
	assert.Equal(t, []string{"a"}, s.Filters().Tags.Names())
	assert.True(t, s.RemoveTag(0))
	assert.False(t, s.RemoveTag(0))
}

func TestSessionFetchAll(t *testing.T) {
	b := pagedBackend(23)
	s := NewSession(b, 10)
	var got []api.DocumentRecord
	var pages []int
	err := s.FetchAll(context.Background(), func(batch []api.DocumentRecord, p Page) error {
		got = append(got, batch...)
		pages = append(pages, p.Index)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 23)
	assert.Equal(t, []int{0, 1, 2}, pages)
	assert.Equal(t, 0, s.View().Page.Index)
}

func TestSessionGoTo(t *testing.T) {
	ctx := context.Background()
	b := pagedBackend(23)
	s := NewSession(b, 10)

	v, err := s.GoTo(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, b.requests[0].Start, "first fetch uses the requested page as is")
	assert.Equal(t, "21 to 23 of 23", v.RangeLabel)

	v, err = s.GoTo(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 20, b.requests[1].Start, "known total clamps before fetching")
	assert.Equal(t, 2, v.Page.Index)
}
