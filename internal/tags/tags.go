// Package tags implements the ordered, de-duplicated tag collection shared
// by the upload form and the search filters.
package tags

import (
	"strings"
	"sync"

	"github.com/mithrel/docman/pkg/api"
)

// Set is an ordered collection of unique tag names. The zero value is ready
// to use. A Set belongs to a single screen and is never shared.
type Set struct {
	mu    sync.Mutex
	names []string
}

// New returns a Set seeded with names, in order, skipping blanks and repeats.
func New(names ...string) *Set {
	s := &Set{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add trims name and appends it unless it is empty or already present.
// Matching is exact and case-sensitive. It reports whether the set changed.
func (s *Set) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.names {
		if n == name {
			return false
		}
	}
	s.names = append(s.names, name)
	return true
}

// AddCSV adds every comma-separated name in csv and returns how many were new.
func (s *Set) AddCSV(csv string) int {
	added := 0
	for _, p := range strings.Split(csv, ",") {
		if s.Add(p) {
			added++
		}
	}
	return added
}

// Remove drops the tag at index. Out-of-range indexes are ignored.
func (s *Set) Remove(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.names) {
		return false
	}
	s.names = append(s.names[:index:index], s.names[index+1:]...)
	return true
}

// RemoveName drops the tag equal to name, if present.
func (s *Set) RemoveName(name string) bool {
	return s.Remove(s.indexOf(strings.TrimSpace(name)))
}

func (s *Set) indexOf(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Contains reports whether name is in the set.
func (s *Set) Contains(name string) bool {
	return s.indexOf(name) >= 0
}

// Len returns the number of tags.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// Clear removes every tag.
func (s *Set) Clear() {
	s.mu.Lock()
	s.names = nil
	s.mu.Unlock()
}

// Names returns a copy of the tag names in insertion order.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.names...)
}

// Slice returns the tags in wire form. It is never nil so it always
// serializes as a JSON array.
func (s *Set) Slice() []api.Tag {
	if s == nil {
		return []api.Tag{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Tag, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, api.Tag{TagName: n})
	}
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	if s == nil {
		return &Set{}
	}
	return &Set{names: s.Names()}
}

func (s *Set) String() string {
	return strings.Join(s.Names(), ", ")
}
