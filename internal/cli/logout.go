package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/mithrel/docman/internal/tokenstore"
)

func newLogoutCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if _, err := app.Tokens.Load(); errors.Is(err, tokenstore.ErrNoToken) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := confirm("Log out?", "The stored session token will be removed.", yes); err != nil {
				return err
			}
			if err := app.Tokens.Delete(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func confirm(title, desc string, yes bool) error {
	if yes {
		return nil
	}
	if !term.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("confirmation required; rerun with --yes")
	}
	ok := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(desc).
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted")
	}
	return nil
}
