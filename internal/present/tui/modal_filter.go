package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lipglossv2 "github.com/charmbracelet/lipgloss/v2"
)

// Filter field positions inside filterModal.inputs.
const (
	fieldMajor = iota
	fieldMinor
	fieldFrom
	fieldTo
	fieldUploadedBy
	fieldTags
	fieldQuery
	fieldCount
)

// filterValues is the raw text of the filter form.
type filterValues struct {
	MajorHead  string
	MinorHead  string
	From       string
	To         string
	UploadedBy string
	Tags       string
	Query      string
}

// filterModal is a foreground modal with inputs to filter the search.
type filterModal struct {
	inputs []textinput.Model
	width  int
	height int
	padX   int
	padY   int
	box    lipglossv2.Style
	focus  int
	err    string

	// Tag suggestions for the last term typed into the tags field.
	suggestFor  string
	suggested   bool
	suggestions []string
}

func newFilterModal(v filterValues, termW, termH int) *filterModal {
	m := &filterModal{padX: 2, padY: 1, inputs: make([]textinput.Model, fieldCount)}
	m.inputs[fieldMajor] = newFilterInput("major head:  ", "HR", v.MajorHead)
	m.inputs[fieldMinor] = newFilterInput("minor head:  ", "Policy", v.MinorHead)
	m.inputs[fieldFrom] = newFilterInput("from date:   ", "DD-MM-YYYY | 2024-03-05 | 1w", v.From)
	m.inputs[fieldTo] = newFilterInput("to date:     ", "DD-MM-YYYY | today", v.To)
	m.inputs[fieldUploadedBy] = newFilterInput("uploaded by: ", "user id", v.UploadedBy)
	m.inputs[fieldTags] = newFilterInput("tags:        ", "urgent,q1", v.Tags)
	m.inputs[fieldQuery] = newFilterInput("search:      ", "free text", v.Query)
	m.setFocus(0)
	m.resizeForTerm(termW, termH)
	return m
}

func newFilterInput(prompt, placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.SetValue(value)
	return ti
}

func (m *filterModal) resizeForTerm(termW, termH int) {
	if termW <= 0 || termH <= 0 {
		termW, termH = 80, 24
	}
	w := int(float64(termW) * 0.6)
	if termW < 80 {
		w = termW - 4
	}
	if w < 46 {
		w = max(42, termW-2)
	}
	if w > 90 {
		w = 90
	}
	h := fieldCount + 9
	if h > termH-1 {
		h = max(10, termH-1)
	}
	m.width, m.height = w, h
	m.box = lipglossv2.NewStyle().
		Width(w).
		Height(h).
		Padding(m.padY, m.padX).
		Border(lipglossv2.RoundedBorder()).
		BorderForeground(lipglossv2.Color("63"))

	innerW := w - 2 - m.padX*2
	minW := 12
	if innerW < minW {
		innerW = minW
	}
	for i := range m.inputs {
		m.inputs[i].Width = max(minW, innerW-lipgloss.Width(m.inputs[i].Prompt))
	}
}

func (m *filterModal) setFocus(idx int) {
	m.focus = idx
	for i := range m.inputs {
		if i == idx {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *filterModal) values() filterValues {
	return filterValues{
		MajorHead:  m.inputs[fieldMajor].Value(),
		MinorHead:  m.inputs[fieldMinor].Value(),
		From:       m.inputs[fieldFrom].Value(),
		To:         m.inputs[fieldTo].Value(),
		UploadedBy: m.inputs[fieldUploadedBy].Value(),
		Tags:       m.inputs[fieldTags].Value(),
		Query:      m.inputs[fieldQuery].Value(),
	}
}

func (m *filterModal) clear() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.err = ""
}

func (m *filterModal) update(msg tea.Msg) (*filterModal, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeForTerm(x.Width, x.Height)
		return m, nil
	case tea.KeyMsg:
		switch x.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		case "ctrl+x":
			m.clear()
			return m, nil
		case "ctrl+t":
			m.acceptSuggestion()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// tagTerm is the tag being typed: the text after the last comma.
func (m *filterModal) tagTerm() string {
	v := m.inputs[fieldTags].Value()
	if i := strings.LastIndex(v, ","); i >= 0 {
		v = v[i+1:]
	}
	return strings.TrimSpace(v)
}

// wantsSuggestions reports whether the tag term changed since the last lookup
// and records it as requested.
func (m *filterModal) wantsSuggestions() (string, bool) {
	if m.focus != fieldTags {
		return "", false
	}
	term := m.tagTerm()
	if m.suggested && term == m.suggestFor {
		return "", false
	}
	m.suggested = true
	m.suggestFor = term
	return term, true
}

// setSuggestions applies a lookup result unless the term moved on.
func (m *filterModal) setSuggestions(term string, names []string) {
	if term != m.suggestFor {
		return
	}
	m.suggestions = names
}

// acceptSuggestion replaces the tag being typed with the best suggestion.
func (m *filterModal) acceptSuggestion() {
	if m.focus != fieldTags || len(m.suggestions) == 0 {
		return
	}
	v := m.inputs[fieldTags].Value()
	prefix := ""
	if i := strings.LastIndex(v, ","); i >= 0 {
		prefix = v[:i+1]
	}
	m.inputs[fieldTags].SetValue(prefix + m.suggestions[0] + ",")
	m.inputs[fieldTags].CursorEnd()
}

func (m *filterModal) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("Filters")
	help := lipgloss.NewStyle().Faint(true).Render("enter=apply • esc=cancel • tab=next • ctrl+t=complete tag • ctrl+x=clear")
	lines := []string{header, ""}
	for i, in := range m.inputs {
		lines = append(lines, in.View())
		if i == fieldTags && m.focus == fieldTags && len(m.suggestions) > 0 {
			lines = append(lines, lipgloss.NewStyle().Faint(true).Render("  ctrl+t: "+strings.Join(m.suggestions, " · ")))
		}
	}
	if m.err != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(m.err))
	}
	lines = append(lines, "", help)
	return m.box.Render(strings.Join(lines, "\n"))
}
