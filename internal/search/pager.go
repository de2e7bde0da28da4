package search

import "fmt"

// DefaultPageSize matches the page length both front-ends used.
const DefaultPageSize = 10

// Page is a snapshot of pagination state.
type Page struct {
	Index int
	Size  int
	Total int
}

// Pager tracks the current page over a result set of known size. The page
// size is fixed for the life of the Pager.
type Pager struct {
	index int
	size  int
	total int
}

// NewPager returns a Pager on page 0. Non-positive sizes fall back to
// DefaultPageSize.
func NewPager(size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{size: size}
}

func (p *Pager) Reset() { p.index = 0 }

// SetTotal records the total and clamps the index onto the last valid page.
func (p *Pager) SetTotal(n int) {
	if n < 0 {
		n = 0
	}
	p.total = n
	if last := p.lastIndex(); p.index > last {
		p.index = last
	}
}

// Next moves one page forward and reports whether it moved.
func (p *Pager) Next() bool {
	if p.index >= p.lastIndex() {
		return false
	}
	p.index++
	return true
}

// Previous moves one page back and reports whether it moved.
func (p *Pager) Previous() bool {
	if p.index == 0 {
		return false
	}
	p.index--
	return true
}

// SetIndex jumps to page i, clamped to the valid range.
func (p *Pager) SetIndex(i int) {
	if i < 0 {
		i = 0
	}
	if last := p.lastIndex(); i > last && p.total > 0 {
		i = last
	}
	p.index = i
}

// PageCount is ceil(total/size), or 0 for an empty result.
func (p *Pager) PageCount() int {
	return (p.total + p.size - 1) / p.size
}

func (p *Pager) HasNext() bool { return p.index < p.lastIndex() }
func (p *Pager) HasPrev() bool { return p.index > 0 }

func (p *Pager) lastIndex() int {
	return max(0, p.PageCount()-1)
}

// Start is the zero-based offset of the current page.
func (p *Pager) Start() int { return p.index * p.size }

// RangeLabel renders the 1-based inclusive range of the current page, e.g.
// "1 to 10 of 23".
func (p *Pager) RangeLabel() string {
	if p.total == 0 {
		return "0 to 0 of 0"
	}
	from := p.Start() + 1
	to := min(p.Start()+p.size, p.total)
	return fmt.Sprintf("%d to %d of %d", from, to, p.total)
}

// PageLabel renders "Page N of M".
func (p *Pager) PageLabel() string {
	return fmt.Sprintf("Page %d of %d", p.index+1, max(1, p.PageCount()))
}

func (p *Pager) Snapshot() Page {
	return Page{Index: p.index, Size: p.size, Total: p.total}
}

// restore puts back a previous position without touching the total.
func (p *Pager) restore(index int) { p.index = index }
