package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/docman/internal/auth"
)

// ErrLoginCancelled is returned when the user leaves the login screen.
var ErrLoginCancelled = errors.New("login cancelled")

// LoginResult is what a completed login screen hands back.
type LoginResult struct {
	Token  string
	Mobile string
}

// RunLogin drives flow interactively until a token is issued or the user quits.
func RunLogin(ctx context.Context, flow *auth.Flow, mobile string) (LoginResult, error) {
	m := newLoginModel(ctx, flow, mobile)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return LoginResult{}, err
	}
	fm, ok := final.(loginModel)
	if !ok || fm.token == "" {
		return LoginResult{}, ErrLoginCancelled
	}
	return LoginResult{Token: fm.token, Mobile: flow.State().Mobile}, nil
}

type loginModel struct {
	ctx     context.Context
	flow    *auth.Flow
	mobile  textinput.Model
	otp     textinput.Model
	status  string
	isErr   bool
	pending bool
	ticking bool
	token   string
}

func newLoginModel(ctx context.Context, flow *auth.Flow, mobile string) loginModel {
	mi := textinput.New()
	mi.Prompt = "Mobile number: "
	mi.Placeholder = "10 digits"
	mi.CharLimit = 15
	mi.SetValue(mobile)
	mi.Focus()

	oi := textinput.New()
	oi.Prompt = "OTP: "
	oi.Placeholder = "code"
	oi.CharLimit = 8
	oi.EchoMode = textinput.EchoPassword

	return loginModel{ctx: ctx, flow: flow, mobile: mi, otp: oi}
}

func (m loginModel) Init() tea.Cmd { return textinput.Blink }

func (m loginModel) phase() auth.Phase { return m.flow.State().Phase }

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case otpSentMsg:
		m.pending = false
		if errors.Is(msg.err, auth.ErrSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.setStatus(statusFor("", msg.err, 0), true)
			return m, nil
		}
		m.setStatus(statusFor(fmt.Sprintf("OTP sent to %s", auth.MaskMobile(m.flow.State().Mobile)), nil, msg.dur), false)
		m.mobile.Blur()
		m.otp.Focus()
		if !m.ticking {
			m.ticking = true
			return m, cooldownTick()
		}
		return m, nil
	case cooldownTickMsg:
		if m.flow.Cooldown() > 0 {
			return m, cooldownTick()
		}
		m.ticking = false
		return m, nil
	case loginResultMsg:
		m.pending = false
		if errors.Is(msg.err, auth.ErrSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.setStatus(statusFor("", msg.err, 0), true)
			return m, nil
		}
		m.token = msg.token
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.phase() == auth.EnteringMobile {
				m.pending = true
				m.setStatus("Sending OTP…", false)
				return m, requestOTPCmd(m.ctx, m.flow, strings.TrimSpace(m.mobile.Value()), false)
			}
			m.pending = true
			m.setStatus("Verifying…", false)
			return m, verifyOTPCmd(m.ctx, m.flow, strings.TrimSpace(m.otp.Value()))
		case "ctrl+r":
			if m.phase() != auth.AwaitingOTP {
				return m, nil
			}
			m.pending = true
			m.setStatus("Resending OTP…", false)
			return m, requestOTPCmd(m.ctx, m.flow, "", true)
		case "ctrl+n":
			m.flow.ChangeNumber()
			m.pending = false
			m.otp.SetValue("")
			m.otp.Blur()
			m.mobile.Focus()
			m.setStatus("", false)
			return m, nil
		}
	}
	var cmd tea.Cmd
	if m.phase() == auth.EnteringMobile {
		m.mobile, cmd = m.mobile.Update(msg)
	} else {
		m.otp, cmd = m.otp.Update(msg)
	}
	return m, cmd
}

func (m *loginModel) setStatus(s string, isErr bool) {
	m.status = s
	m.isErr = isErr
}

func (m loginModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Render("docman login")
	faint := lipgloss.NewStyle().Faint(true)
	lines := []string{title, ""}

	st := m.flow.State()
	if st.Phase == auth.EnteringMobile {
		lines = append(lines, m.mobile.View(), "", faint.Render("enter=send OTP • esc=quit"))
	} else {
		lines = append(lines,
			fmt.Sprintf("Mobile number: %s", auth.MaskMobile(st.Mobile)),
			m.otp.View(),
			"",
		)
		if st.Cooldown > 0 {
			lines = append(lines, faint.Render(fmt.Sprintf("Resend OTP in %ds", st.Cooldown)))
		} else {
			lines = append(lines, faint.Render("ctrl+r=resend OTP"))
		}
		lines = append(lines, faint.Render("enter=verify • ctrl+n=change number • esc=quit"))
	}
	if m.status != "" {
		style := lipgloss.NewStyle()
		if m.isErr {
			style = style.Foreground(lipgloss.Color("203"))
		}
		lines = append(lines, "", style.Render(m.status))
	}
	return strings.Join(lines, "\n") + "\n"
}
