package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mithrel/docman/internal/auth"
	"github.com/mithrel/docman/internal/search"
	"github.com/mithrel/docman/internal/util"
)

// searchResultMsg conveys the outcome of a search or page move back to Update.
type searchResultMsg struct {
	view search.View
	err  error
	dur  time.Duration
}

// otpSentMsg conveys the outcome of an OTP request.
type otpSentMsg struct {
	err error
	dur time.Duration
}

// loginResultMsg conveys the outcome of OTP verification.
type loginResultMsg struct {
	token string
	err   error
}

// tagSuggestMsg carries ranked tag names for term.
type tagSuggestMsg struct {
	term  string
	names []string
	err   error
}

// cooldownTickMsg redraws the resend countdown.
type cooldownTickMsg struct{}

func searchCmd(ctx context.Context, run func(context.Context) (search.View, error)) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		v, err := run(ctx)
		return searchResultMsg{view: v, err: err, dur: time.Since(start)}
	}
}

func requestOTPCmd(ctx context.Context, flow *auth.Flow, mobile string, resend bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		var err error
		if resend {
			err = flow.Resend(ctx)
		} else {
			err = flow.RequestOTP(ctx, mobile)
		}
		return otpSentMsg{err: err, dur: time.Since(start)}
	}
}

func verifyOTPCmd(ctx context.Context, flow *auth.Flow, otp string) tea.Cmd {
	return func() tea.Msg {
		token, err := flow.VerifyOTP(ctx, otp)
		return loginResultMsg{token: token, err: err}
	}
}

func cooldownTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg { return cooldownTickMsg{} })
}

func suggestTagsCmd(ctx context.Context, lister TagLister, term string, limit int) tea.Cmd {
	return func() tea.Msg {
		found, err := lister.ListTags(ctx, term)
		if err != nil {
			return tagSuggestMsg{term: term, err: err}
		}
		names := make([]string, 0, len(found))
		for _, t := range found {
			names = append(names, t.TagName)
		}
		return tagSuggestMsg{term: term, names: util.RankTags(term, names, limit)}
	}
}
