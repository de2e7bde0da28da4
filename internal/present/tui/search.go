package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/docman/internal/present/format"
	"github.com/mithrel/docman/internal/search"
	"github.com/mithrel/docman/internal/util"
	"github.com/mithrel/docman/pkg/api"
)

// SearchOptions configure RunSearch.
type SearchOptions struct {
	Headers bool
	// Tags, when set, feeds tag suggestions into the filter form.
	Tags         TagLister
	SuggestLimit int
	// Out receives the pretty rendering of the document picked with enter.
	Out io.Writer
	Now func() time.Time
}

// TagLister looks up known tags matching a term.
type TagLister interface {
	ListTags(ctx context.Context, term string) ([]api.Tag, error)
}

// RunSearch opens an interactive table over sess. The first page is loaded
// on start.
func RunSearch(ctx context.Context, sess *search.Session, opts SearchOptions) error {
	m := newSearchModel(ctx, sess, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(searchModel); ok && fm.picked != nil && opts.Out != nil {
		return format.WritePrettyDocuments(opts.Out, []api.DocumentRecord{*fm.picked}, "")
	}
	return nil
}

type searchModel struct {
	ctx     context.Context
	sess    *search.Session
	table   table.Model
	view    search.View
	headers bool
	width   int
	height  int
	status  string
	loading bool
	modal   *filterModal
	picked  *api.DocumentRecord
	now     func() time.Time
	tags    TagLister
	limit   int
}

func newSearchModel(ctx context.Context, sess *search.Session, opts SearchOptions) searchModel {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := searchModel{
		ctx:     ctx,
		sess:    sess,
		view:    sess.View(),
		headers: opts.Headers,
		now:     now,
		tags:    opts.Tags,
		limit:   opts.SuggestLimit,
	}
	m.table = table.New(table.WithColumns(m.columnsFor(10, 14, 14, 14, 12, 20)), table.WithFocused(true))
	m.applyStyles()
	m.updateRows()
	return m
}

func (m searchModel) Init() tea.Cmd {
	return m.run(m.sess.Search, "Searching…")
}

func (m *searchModel) run(fn func(context.Context) (search.View, error), status string) tea.Cmd {
	m.loading = true
	m.status = status
	return searchCmd(m.ctx, fn)
}

func (m *searchModel) updateRows() {
	rows := make([]table.Row, 0, len(m.view.Documents))
	for _, d := range m.view.Documents {
		rows = append(rows, table.Row{
			d.DocumentDate,
			d.MajorHead,
			d.MinorHead,
			d.UploadedBy,
			d.ShortHash(),
			joinTags(d.TagNames()),
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

func (m searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultMsg:
		if errors.Is(msg.err, search.ErrStale) {
			return m, nil
		}
		m.loading = false
		m.view = msg.view
		m.updateRows()
		m.status = statusFor("Loaded", msg.err, msg.dur)
		return m, nil
	case tagSuggestMsg:
		if m.modal != nil && msg.err == nil {
			m.modal.setSuggestions(msg.term, msg.names)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.applyLayout()
		if m.modal != nil {
			m.modal.resizeForTerm(msg.Width, msg.Height)
		}
		return m, nil
	case tea.KeyMsg:
		if m.modal != nil {
			return m.updateModal(msg)
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.view.Documents) {
				d := m.view.Documents[idx]
				m.picked = &d
			}
			return m, tea.Quit
		case "n", "right", "pgdown":
			if !m.view.HasNext {
				m.status = "Already on the last page"
				return m, nil
			}
			return m, m.run(m.sess.NextPage, "Loading next page…")
		case "p", "left", "pgup":
			if !m.view.HasPrev {
				m.status = "Already on the first page"
				return m, nil
			}
			return m, m.run(m.sess.PrevPage, "Loading previous page…")
		case "r":
			return m, m.run(m.sess.Fetch, "Refreshing…")
		case "f", "/":
			m.modal = newFilterModal(m.currentFilterValues(), m.width, m.height)
			return m, nil
		case "c":
			m.sess.Clear()
			m.view = m.sess.View()
			m.loading = false
			m.status = "Filters cleared, press r to reload"
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m searchModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+q":
		m.modal = nil
		return m, nil
	case "enter":
		if err := applyFilterValues(m.sess, m.modal.values(), m.now()); err != nil {
			m.modal.err = err.Error()
			return m, nil
		}
		m.modal = nil
		return m, m.run(m.sess.Search, "Searching…")
	}
	var cmd tea.Cmd
	m.modal, cmd = m.modal.update(msg)
	if m.tags != nil {
		if term, ok := m.modal.wantsSuggestions(); ok {
			return m, tea.Batch(cmd, suggestTagsCmd(m.ctx, m.tags, term, m.limit))
		}
	}
	return m, cmd
}

func (m searchModel) currentFilterValues() filterValues {
	f := m.sess.Filters()
	return filterValues{
		MajorHead:  f.MajorHead,
		MinorHead:  f.MinorHead,
		From:       f.FromDate.Wire(),
		To:         f.ToDate.Wire(),
		UploadedBy: f.UploadedBy,
		Tags:       strings.Join(f.Tags.Names(), ","),
		Query:      f.Query,
	}
}

// applyFilterValues validates the form and replaces the session filters.
// On error the session is untouched.
func applyFilterValues(sess *search.Session, v filterValues, now time.Time) error {
	from, to, err := util.NormalizeDateRange(v.From, v.To, now)
	if err != nil {
		return err
	}
	sess.Update(func(f *search.Filters) {
		f.MajorHead = strings.TrimSpace(v.MajorHead)
		f.MinorHead = strings.TrimSpace(v.MinorHead)
		f.FromDate = search.Raw(from)
		f.ToDate = search.Raw(to)
		f.UploadedBy = strings.TrimSpace(v.UploadedBy)
		f.Query = v.Query
		f.Tags.Clear()
		f.Tags.AddCSV(v.Tags)
	})
	return nil
}

func (m searchModel) renderFooter() string {
	left := "n/p=page • f=filter • c=clear • r=refresh • enter=show • q=exit"
	right := "Showing " + m.view.RangeLabel + " • " + m.view.PageLabel
	if m.loading {
		right = "… " + right
	}
	if m.status != "" {
		right = m.status + " • " + right
	}
	width := m.table.Width()
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + "\n" + right
	}
	return left + strings.Repeat(" ", space) + right
}

func (m searchModel) View() string {
	var base string
	if len(m.view.Documents) == 0 && !m.loading {
		base = "(no documents)\n\n" + m.renderFooter() + "\n"
	} else {
		base = m.table.View() + "\n" + m.renderFooter() + "\n"
	}
	if m.modal != nil {
		return renderOverlay(m.width, m.height, base, m.modal.View(), m.modal.width, m.modal.height)
	}
	return base
}

func (m *searchModel) applyLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.table.SetHeight(max(6, m.height-2))
	m.table.SetWidth(m.width)
	avail := m.width - 12
	if avail < 60 {
		return
	}
	dateW, idW := 10, 12
	rem := avail - dateW - idW
	each := rem / 5
	tagsW := rem - each*3
	m.table.SetColumns(m.columnsFor(dateW, each, each, each, idW, tagsW))
}

func (m *searchModel) applyStyles() {
	s := table.DefaultStyles()
	if m.headers {
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
	} else {
		s.Header = s.Header.
			BorderBottom(false).
			Bold(false)
	}
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	m.table.SetStyles(s)
}

// columnsFor returns columns with or without titles based on the headers flag.
func (m *searchModel) columnsFor(dateW, majorW, minorW, byW, idW, tagsW int) []table.Column {
	titles := []string{"Date", "Major", "Minor", "Uploaded by", "ID", "Tags"}
	widths := []int{dateW, majorW, minorW, byW, idW, tagsW}
	cols := make([]table.Column, len(titles))
	for i := range titles {
		cols[i] = table.Column{Width: widths[i]}
		if m.headers {
			cols[i].Title = titles[i]
		}
	}
	return cols
}
