package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/mithrel/docman/internal/apperr"
	"github.com/mithrel/docman/internal/auth"
	"github.com/mithrel/docman/internal/present/tui"
)

func newLoginCmd() *cobra.Command {
	var mobile, otp string
	var noTUI bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your mobile number and a one-time password",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			flow := app.NewLoginFlow()
			defer flow.Close()

			var res tui.LoginResult
			var err error
			if !noTUI && otp == "" && stdinIsTerminal(cmd) {
				res, err = tui.RunLogin(cmd.Context(), flow, mobile)
			} else {
				res, err = promptLogin(cmd.Context(), flow, cmd.InOrStdin(), cmd.ErrOrStderr(), mobile, otp)
			}
			if err != nil {
				return err
			}
			if err := app.SaveSession(res.Token, res.Mobile); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", auth.MaskMobile(res.Mobile), app.Tokens.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&mobile, "mobile", "", "mobile number to send the OTP to")
	cmd.Flags().StringVar(&otp, "otp", "", "one-time password (skips the OTP prompt)")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "prompt line by line instead of the full-screen form")
	return cmd
}

func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// promptLogin runs the flow over plain lines. At the OTP prompt "r" resends
// and "c" goes back to the number prompt.
func promptLogin(ctx context.Context, flow *auth.Flow, in io.Reader, out io.Writer, mobile, otp string) (tui.LoginResult, error) {
	sc := bufio.NewScanner(in)
	readLine := func(prompt string) (string, error) {
		_, _ = fmt.Fprint(out, prompt)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", tui.ErrLoginCancelled
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	for {
		if flow.State().Phase == auth.EnteringMobile {
			if mobile == "" {
				m, err := readLine("Mobile number: ")
				if err != nil {
					return tui.LoginResult{}, err
				}
				mobile = m
			}
			if err := flow.RequestOTP(ctx, mobile); err != nil {
				if !retryable(err) {
					return tui.LoginResult{}, err
				}
				_, _ = fmt.Fprintln(out, apperr.Message(err))
				mobile = ""
				continue
			}
			_, _ = fmt.Fprintf(out, "OTP sent to %s\n", auth.MaskMobile(mobile))
		}

		code := otp
		otp = ""
		if code == "" {
			c, err := readLine("OTP (r to resend, c to change number): ")
			if err != nil {
				return tui.LoginResult{}, err
			}
			code = c
		}
		switch strings.ToLower(code) {
		case "r":
			if err := flow.Resend(ctx); err != nil {
				_, _ = fmt.Fprintln(out, apperr.Message(err))
			} else {
				_, _ = fmt.Fprintln(out, "OTP resent")
			}
			continue
		case "c":
			flow.ChangeNumber()
			mobile = ""
			continue
		}

		token, err := flow.VerifyOTP(ctx, code)
		if err != nil {
			if !retryable(err) {
				return tui.LoginResult{}, err
			}
			_, _ = fmt.Fprintln(out, apperr.Message(err))
			continue
		}
		return tui.LoginResult{Token: token, Mobile: flow.State().Mobile}, nil
	}
}

// retryable reports whether the prompt should ask again instead of failing.
func retryable(err error) bool {
	if errors.Is(err, auth.ErrClosed) || errors.Is(err, apperr.ErrNetwork) {
		return false
	}
	return errors.Is(err, apperr.ErrValidation) || errors.Is(err, apperr.ErrServer)
}
