package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/docman/internal/auth"
	"github.com/mithrel/docman/internal/present"
	"github.com/mithrel/docman/internal/tokenstore"
)

type statusReport struct {
	LoggedIn  bool       `json:"logged_in" yaml:"logged_in"`
	Mobile    string     `json:"mobile,omitempty" yaml:"mobile,omitempty"`
	Since     *time.Time `json:"since,omitempty" yaml:"since,omitempty"`
	BaseURL   string     `json:"base_url" yaml:"base_url"`
	Store     string     `json:"token_store" yaml:"token_store"`
	ConfigURL string     `json:"config_file,omitempty" yaml:"config_file,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session and service endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			opts, err := out.options(cmd)
			if err != nil {
				return err
			}
			rep := statusReport{
				BaseURL:   app.Client.BaseURL(),
				Store:     app.Tokens.Name(),
				ConfigURL: app.Cfg.ConfigFileUsed(),
			}
			sess, err := app.Tokens.Load()
			switch {
			case err == nil:
				rep.LoggedIn = true
				rep.Mobile = auth.MaskMobile(sess.Mobile)
				if !sess.CreatedAt.IsZero() {
					t := sess.CreatedAt
					rep.Since = &t
				}
			case !errors.Is(err, tokenstore.ErrNoToken):
				return err
			}

			lines := []string{"Not logged in"}
			if rep.LoggedIn {
				lines = []string{"Logged in as " + rep.Mobile}
				if rep.Since != nil {
					lines[0] += " since " + rep.Since.Local().Format(time.DateTime)
				}
			}
			lines = append(lines, "Service: "+rep.BaseURL, "Token store: "+rep.Store)
			if rep.ConfigURL != "" {
				lines = append(lines, "Config: "+rep.ConfigURL)
			}
			if opts.Mode == present.ModeTUI {
				opts.Mode = present.ModePlain
			}
			return present.RenderValue(cmd.OutOrStdout(), rep, lines, opts)
		},
	}
	out.register(cmd)
	return cmd
}
